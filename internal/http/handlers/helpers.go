package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealmarket/mealmarket-backend/internal/http/middleware"
)

var (
	errUserNotInContext = errors.New("пользователь не найден в контексте")
	errInvalidUUID      = errors.New("неверный формат UUID")
)

// currentUserID извлекает userID из контекста.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errUserNotInContext
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errUserNotInContext
	}
	return userID, nil
}

// parseUUIDParam читает UUID из URL-параметра.
func parseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, errInvalidUUID
	}
	return parsed, nil
}

// parseIntQuery читает числовой query-параметр с дефолтом.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// getPagination извлекает limit и offset из query-параметров.
func getPagination(c *gin.Context) (limit, offset int) {
	limit = parseIntQuery(c, "limit", 20)
	offset = parseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}

// fail передаёт ошибку централизованному обработчику.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
