package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
	"github.com/mealmarket/mealmarket-backend/internal/storage"
)

type DisputeHandler struct {
	disputes *service.DisputeService
	proofs   *storage.ProofStorage
}

func NewDisputeHandler(disputes *service.DisputeService, proofs *storage.ProofStorage) *DisputeHandler {
	return &DisputeHandler{disputes: disputes, proofs: proofs}
}

// OpenDispute обрабатывает POST /deals/:id/dispute. В :id передаётся
// идентификатор объявления или брони. Принимает multipart-форму: поле reason
// и необязательный файл evidence с изображением.
func (h *DisputeHandler) OpenDispute(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	subjectID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	reason := c.PostForm("reason")

	var evidencePath *string
	if fileHeader, err := c.FormFile("evidence"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			fail(c, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать файл"))
			return
		}
		defer file.Close()

		path, _, err := h.proofs.Save(c.Request.Context(), userID, fileHeader.Filename, file)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotAnImage):
				fail(c, apperror.New(apperror.ErrCodeValidation, "доказательство должно быть изображением"))
			case errors.Is(err, storage.ErrTooLarge):
				fail(c, apperror.New(apperror.ErrCodeValidation, "файл слишком большой"))
			default:
				fail(c, err)
			}
			return
		}
		evidencePath = &path
	}

	dispute, err := h.disputes.OpenDispute(c.Request.Context(), subjectID, userID, reason, evidencePath)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// GetDispute обрабатывает GET /disputes/:id.
func (h *DisputeHandler) GetDispute(c *gin.Context) {
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

	dispute, err := h.disputes.GetDispute(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	// Спор видят только его стороны.
	if dispute.BuyerID != userID && dispute.SellerID != userID {
		fail(c, apperror.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, dispute)
}
