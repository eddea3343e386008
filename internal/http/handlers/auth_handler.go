package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
)

// AuthHandler выпускает access-токены. Запросы приходят не от конечных
// пользователей, а от доверенного шлюза (бота), который подтверждает
// личность пользователя и подписывается общим секретом.
type AuthHandler struct {
	users         *service.UserService
	tokens        *service.TokenManager
	gatewaySecret string
}

func NewAuthHandler(users *service.UserService, tokens *service.TokenManager, gatewaySecret string) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, gatewaySecret: gatewaySecret}
}

// IssueToken обрабатывает POST /auth/token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	secret := c.GetHeader("X-Gateway-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.gatewaySecret)) != 1 {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	var req struct {
		TelegramID int64  `json:"tg_id" binding:"required"`
		Name       string `json:"name"`
		Uni        string `json:"uni"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "tg_id обязателен"))
		return
	}

	user, err := h.users.EnsureUser(c.Request.Context(), req.TelegramID, req.Name, req.Uni)
	if err != nil {
		fail(c, err)
		return
	}
	if user.IsBanned {
		fail(c, apperror.ErrUserBanned)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token.Token,
		"expires_in":   int(token.ExpiresIn.Seconds()),
		"user":         user,
	})
}
