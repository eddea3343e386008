package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeDecryption    ErrorCode = "DECRYPTION_ERROR"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// AppError - типизированная ошибка бизнес-слоя. Код определяет и реакцию
// клиента (повторить с исправленным вводом, предложить другое действие),
// и HTTP статус на транспортном уровне.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Limit      int // заполняется только для QUOTA_EXCEEDED
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// QuotaExceeded создаёт ошибку превышения лимита с указанием самого лимита,
// чтобы клиент мог показать его пользователю.
func QuotaExceeded(limit int, message string) *AppError {
	e := New(ErrCodeQuotaExceeded, fmt.Sprintf("%s (лимит: %d)", message, limit))
	e.Limit = limit
	return e
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeQuotaExceeded:
		return http.StatusTooManyRequests
	case ErrCodeInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool      { return is(err, ErrCodeNotFound) }
func IsValidation(err error) bool    { return is(err, ErrCodeValidation) }
func IsConflict(err error) bool      { return is(err, ErrCodeConflict) }
func IsQuotaExceeded(err error) bool { return is(err, ErrCodeQuotaExceeded) }
func IsInvalidState(err error) bool  { return is(err, ErrCodeInvalidState) }
func IsForbidden(err error) bool     { return is(err, ErrCodeForbidden) }
func IsDecryption(err error) bool    { return is(err, ErrCodeDecryption) }

var (
	ErrListingNotFound     = New(ErrCodeNotFound, "объявление не найдено или недоступно")
	ErrReservationNotFound = New(ErrCodeNotFound, "резерв не найден")
	ErrPaymentNotFound     = New(ErrCodeNotFound, "чек не найден")
	ErrDisputeNotFound     = New(ErrCodeNotFound, "спор не найден")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrUserBanned          = New(ErrCodeForbidden, "доступ заблокирован администратором")
)
