package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: типизированные ошибки
// бизнес-слоя транслируются в их HTTP статус, всё остальное маскируется
// как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			body := gin.H{
				"error": appErr.Message,
				"code":  appErr.Code,
			}
			if appErr.Code == apperror.ErrCodeQuotaExceeded {
				body["limit"] = appErr.Limit
			}
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Ошибка обработки запроса")
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logrus.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Ошибка обработки запроса")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
	}
}
