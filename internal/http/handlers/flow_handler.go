package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealmarket/mealmarket-backend/internal/flow"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
)

// FlowHandler обслуживает черновики многошаговых операций. Шлюз ведёт с
// пользователем пошаговый диалог и хранит промежуточное состояние здесь,
// чтобы переживать свои рестарты.
type FlowHandler struct {
	drafts *flow.Store
}

func NewFlowHandler(drafts *flow.Store) *FlowHandler {
	return &FlowHandler{drafts: drafts}
}

var knownFlows = map[string]struct{}{
	flow.FlowCreateListing: {},
	flow.FlowOpenDispute:   {},
	flow.FlowRateDeal:      {},
}

// BeginFlow обрабатывает POST /flows.
func (h *FlowHandler) BeginFlow(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	var req struct {
		Flow string `json:"flow" binding:"required"`
		Step string `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "flow и step обязательны"))
		return
	}
	if _, ok := knownFlows[req.Flow]; !ok {
		fail(c, apperror.New(apperror.ErrCodeValidation, "неизвестный поток: "+req.Flow))
		return
	}

	draft := h.drafts.Begin(userID, req.Flow, req.Step)
	c.JSON(http.StatusCreated, draft)
}

// GetFlow обрабатывает GET /flows.
func (h *FlowHandler) GetFlow(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	draft := h.drafts.Get(userID)
	if draft == nil {
		c.JSON(http.StatusOK, gin.H{"draft": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// AdvanceFlow обрабатывает PUT /flows.
func (h *FlowHandler) AdvanceFlow(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	var req struct {
		Field    string `json:"field" binding:"required"`
		Value    string `json:"value" binding:"required"`
		NextStep string `json:"next_step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "field, value и next_step обязательны"))
		return
	}

	if !h.drafts.Advance(userID, req.Field, req.Value, req.NextStep) {
		fail(c, apperror.New(apperror.ErrCodeNotFound, "активный черновик не найден"))
		return
	}
	c.JSON(http.StatusOK, h.drafts.Get(userID))
}

// FinishFlow обрабатывает POST /flows/finish. Возвращает накопленные поля и
// сбрасывает черновик.
func (h *FlowHandler) FinishFlow(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	fields := h.drafts.Finish(userID)
	if fields == nil {
		fail(c, apperror.New(apperror.ErrCodeNotFound, "активный черновик не найден"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// AbortFlow обрабатывает DELETE /flows.
func (h *FlowHandler) AbortFlow(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}

	h.drafts.Abort(userID)
	c.JSON(http.StatusOK, gin.H{"status": "aborted"})
}
