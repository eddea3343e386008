package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
	"github.com/mealmarket/mealmarket-backend/internal/storage"
)

type PaymentHandler struct {
	payments     *service.PaymentService
	reservations *service.ReservationService
	proofs       *storage.ProofStorage
}

func NewPaymentHandler(payments *service.PaymentService, reservations *service.ReservationService, proofs *storage.ProofStorage) *PaymentHandler {
	return &PaymentHandler{payments: payments, reservations: reservations, proofs: proofs}
}

// SubmitPayment обрабатывает POST /reservations/:id/payment.
// Принимает multipart-форму: поле method и файл proof с изображением чека.
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	reservationID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	method := c.PostForm("method")
	fileHeader, err := c.FormFile("proof")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "файл proof обязателен"))
		return
	}

	// Путь прежнего чека, чтобы убрать файл после перезаписи.
	var previousProof string
	if existing, err := h.payments.GetByReservation(c.Request.Context(), reservationID); err == nil {
		previousProof = existing.ProofFileID
	}

	file, err := fileHeader.Open()
	if err != nil {
		fail(c, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать файл"))
		return
	}
	defer file.Close()

	proofPath, _, err := h.proofs.Save(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotAnImage):
			fail(c, apperror.New(apperror.ErrCodeValidation, "чек должен быть изображением"))
		case errors.Is(err, storage.ErrTooLarge):
			fail(c, apperror.New(apperror.ErrCodeValidation, "файл слишком большой"))
		default:
			fail(c, err)
		}
		return
	}

	payment, err := h.payments.SubmitPayment(c.Request.Context(), reservationID, userID, method, proofPath)
	if err != nil {
		_ = h.proofs.Delete(c.Request.Context(), proofPath)
		fail(c, err)
		return
	}

	if previousProof != "" && previousProof != proofPath {
		if err := h.proofs.Delete(c.Request.Context(), previousProof); err != nil {
			logrus.WithError(err).WithField("path", previousProof).Warn("Не удалось удалить прежний чек")
		}
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPayment обрабатывает GET /reservations/:id/payment.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	reservationID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	reservation, err := h.reservations.GetReservation(c.Request.Context(), reservationID)
	if err != nil {
		fail(c, err)
		return
	}
	if reservation.BuyerID != userID {
		fail(c, apperror.ErrForbidden)
		return
	}

	payment, err := h.payments.GetByReservation(c.Request.Context(), reservationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
