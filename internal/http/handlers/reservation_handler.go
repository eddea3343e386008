package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
)

type ReservationHandler struct {
	reservations *service.ReservationService
	listings     *service.ListingService
}

func NewReservationHandler(reservations *service.ReservationService, listings *service.ListingService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, listings: listings}
}

// Reserve обрабатывает POST /reservations.
func (h *ReservationHandler) Reserve(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	var req struct {
		ListingID string `json:"listing_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "listing_id обязателен"))
		return
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "неверный listing_id"))
		return
	}

	reservation, err := h.reservations.Reserve(c.Request.Context(), listingID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// MyReservations обрабатывает GET /reservations/mine.
func (h *ReservationHandler) MyReservations(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	limit, offset := getPagination(c)

	reservations, err := h.reservations.MyReservations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations, "limit": limit, "offset": offset})
}

// CancelReservation обрабатывает DELETE /reservations/:id.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
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

	if err := h.reservations.CancelReservation(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "бронь отменена"})
}

// RevealCode обрабатывает GET /reservations/:id/code. Полный код выдаётся
// покупателю только после одобрения оплаты.
func (h *ReservationHandler) RevealCode(c *gin.Context) {
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

	reservation, err := h.reservations.GetReservation(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if reservation.BuyerID != userID {
		fail(c, apperror.ErrForbidden)
		return
	}
	if reservation.Status != models.ReservationStatusApproved {
		fail(c, apperror.New(apperror.ErrCodeInvalidState, "код выдаётся после одобрения оплаты"))
		return
	}

	code, err := h.listings.RevealCode(c.Request.Context(), reservation.ListingID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}
