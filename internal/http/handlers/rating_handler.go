package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
)

type RatingHandler struct {
	ratings *service.RatingService
}

func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// RateDeal обрабатывает POST /deals/:id/rating.
func (h *RatingHandler) RateDeal(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	dealID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	var req struct {
		Stars int     `json:"stars" binding:"required"`
		Text  *string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "stars обязателен"))
		return
	}

	rating, err := h.ratings.RateDeal(c.Request.Context(), dealID, userID, req.Stars, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// GetDealRating обрабатывает GET /deals/:id/rating.
func (h *RatingHandler) GetDealRating(c *gin.Context) {
	dealID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	rating, err := h.ratings.DealRating(c.Request.Context(), dealID)
	if err != nil {
		fail(c, err)
		return
	}
	if rating == nil {
		c.JSON(http.StatusOK, gin.H{"rating": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating": rating})
}

// ListUserRatings обрабатывает GET /users/:id/ratings.
func (h *RatingHandler) ListUserRatings(c *gin.Context) {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}
	limit, offset := getPagination(c)

	ratings, err := h.ratings.UserRatings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": ratings, "limit": limit, "offset": offset})
}
