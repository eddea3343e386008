package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
)

type ListingHandler struct {
	listings *service.ListingService
}

func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// CreateListing обрабатывает POST /listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	var req struct {
		Date     string `json:"date" binding:"required"`
		MealType string `json:"meal_type" binding:"required"`
		DishName string `json:"dish_name" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Price    int    `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "обязательные поля: date, meal_type, dish_name, code"))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "date должна быть в формате YYYY-MM-DD"))
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), service.CreateListingInput{
		SellerID: userID,
		Date:     date,
		MealType: req.MealType,
		DishName: req.DishName,
		Code:     req.Code,
		Price:    req.Price,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// BrowseListings обрабатывает GET /listings. Фильтр по типу приёма пищи
// передаётся как meal=lunch,dinner.
func (h *ListingHandler) BrowseListings(c *gin.Context) {
	limit, offset := getPagination(c)

	var filters []string
	if raw := c.Query("meal"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filters = append(filters, part)
			}
		}
	}

	listings, err := h.listings.BrowseListings(c.Request.Context(), filters, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "limit": limit, "offset": offset})
}

// GetListing обрабатывает GET /listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	listing, err := h.listings.GetListing(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// MyListings обрабатывает GET /listings/mine.
func (h *ListingHandler) MyListings(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	limit, offset := getPagination(c)

	listings, err := h.listings.MyListings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "limit": limit, "offset": offset})
}

// CancelListing обрабатывает DELETE /listings/:id.
func (h *ListingHandler) CancelListing(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	if err := h.listings.CancelListing(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "объявление снято"})
}
