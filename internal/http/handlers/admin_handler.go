package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/service"
	"github.com/mealmarket/mealmarket-backend/internal/storage"
	"github.com/mealmarket/mealmarket-backend/internal/ws"
)

// AdminHandler объединяет админские операции: модерацию чеков, споры,
// блокировки, настройки и отчёты.
type AdminHandler struct {
	payments     *service.PaymentService
	reservations *service.ReservationService
	listings     *service.ListingService
	disputes     *service.DisputeService
	users        *service.UserService
	settings     *service.SettingsService
	reports      *service.ReportService
	proofs       *storage.ProofStorage
	hub          *ws.Hub
}

func NewAdminHandler(
	payments *service.PaymentService,
	reservations *service.ReservationService,
	listings *service.ListingService,
	disputes *service.DisputeService,
	users *service.UserService,
	settings *service.SettingsService,
	reports *service.ReportService,
	proofs *storage.ProofStorage,
	hub *ws.Hub,
) *AdminHandler {
	return &AdminHandler{
		payments:     payments,
		reservations: reservations,
		listings:     listings,
		disputes:     disputes,
		users:        users,
		settings:     settings,
		reports:      reports,
		proofs:       proofs,
		hub:          hub,
	}
}

// PendingPayments обрабатывает GET /admin/payments.
func (h *AdminHandler) PendingPayments(c *gin.Context) {
	queue, err := h.payments.PendingQueue(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": queue})
}

// ApprovePayment обрабатывает POST /admin/payments/:id/approve.
// После одобрения покупатель получает полный код через WebSocket.
func (h *AdminHandler) ApprovePayment(c *gin.Context) {
	adminID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	paymentID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	payment, err := h.payments.ApprovePayment(c.Request.Context(), paymentID, adminID)
	if err != nil {
		fail(c, err)
		return
	}

	reservation, err := h.reservations.GetReservation(c.Request.Context(), payment.ReservationID)
	if err != nil {
		fail(c, err)
		return
	}
	code, err := h.listings.RevealCode(c.Request.Context(), reservation.ListingID)
	if err != nil {
		fail(c, err)
		return
	}

	notifyErr := h.hub.NotifyUser(reservation.BuyerID, ws.EventPaymentApproved, gin.H{
		"reservation_id": reservation.ID,
		"listing_id":     reservation.ListingID,
		"code":           code,
	})
	if notifyErr != nil {
		logrus.WithError(notifyErr).Warn("Не удалось уведомить покупателя об одобрении")
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment, "code": code})
}

// PaymentProof обрабатывает GET /admin/payments/:id/proof: отдаёт изображение
// чека для модерации.
func (h *AdminHandler) PaymentProof(c *gin.Context) {
	paymentID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		fail(c, err)
		return
	}

	file, err := h.proofs.Open(c.Request.Context(), payment.ProofFileID)
	if err != nil {
		fail(c, apperror.Wrap(err, apperror.ErrCodeNotFound, "файл чека не найден"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		fail(c, err)
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}

// RejectPayment обрабатывает POST /admin/payments/:id/reject.
func (h *AdminHandler) RejectPayment(c *gin.Context) {
	adminID, err := currentUserID(c)
	if err != nil {
		fail(c, apperror.ErrUnauthorized)
		return
	}
	paymentID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	payment, err := h.payments.RejectPayment(c.Request.Context(), paymentID, adminID)
	if err != nil {
		fail(c, err)
		return
	}

	reservation, err := h.reservations.GetReservation(c.Request.Context(), payment.ReservationID)
	if err == nil {
		notifyErr := h.hub.NotifyUser(reservation.BuyerID, ws.EventPaymentRejected, gin.H{
			"reservation_id": reservation.ID,
			"listing_id":     reservation.ListingID,
		})
		if notifyErr != nil {
			logrus.WithError(notifyErr).Warn("Не удалось уведомить покупателя об отклонении")
		}
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// RevealListingCode обрабатывает GET /admin/listings/:id/code: выдаёт полный
// код объявления для разбора спора.
func (h *AdminHandler) RevealListingCode(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	code, err := h.listings.RevealCode(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

// OpenDisputes обрабатывает GET /admin/disputes.
func (h *AdminHandler) OpenDisputes(c *gin.Context) {
	disputes, err := h.disputes.OpenDisputes(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// ResolveDispute обрабатывает POST /admin/disputes/:id/status.
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}

	var req struct {
		Status     string  `json:"status" binding:"required"`
		AdminNotes *string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "status обязателен"))
		return
	}

	dispute, err := h.disputes.ResolveDispute(c.Request.Context(), id, req.Status, req.AdminNotes)
	if err != nil {
		fail(c, err)
		return
	}

	payload := gin.H{
		"dispute_id": dispute.ID,
		"status":     dispute.Status,
	}
	if err := h.hub.NotifyUser(dispute.BuyerID, ws.EventDisputeUpdated, payload); err != nil {
		logrus.WithError(err).Warn("Не удалось уведомить покупателя по спору")
	}
	if err := h.hub.NotifyUser(dispute.SellerID, ws.EventDisputeUpdated, payload); err != nil {
		logrus.WithError(err).Warn("Не удалось уведомить продавца по спору")
	}

	c.JSON(http.StatusOK, dispute)
}

// BanUser обрабатывает POST /admin/users/:id/ban.
func (h *AdminHandler) BanUser(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}
	if err := h.users.BanUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "пользователь заблокирован"})
}

// UnbanUser обрабатывает POST /admin/users/:id/unban.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, err.Error()))
		return
	}
	if err := h.users.UnbanUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "пользователь разблокирован"})
}

// GetSettings обрабатывает GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSetting обрабатывает PUT /admin/settings.
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.New(apperror.ErrCodeValidation, "key и value обязательны"))
		return
	}

	if err := h.settings.Set(c.Request.Context(), req.Key, req.Value); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "настройка обновлена"})
}

// DailyReport обрабатывает GET /admin/reports/daily?date=YYYY-MM-DD.
func (h *AdminHandler) DailyReport(c *gin.Context) {
	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fail(c, apperror.New(apperror.ErrCodeValidation, "date должна быть в формате YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	stats, err := h.reports.DailyStats(c.Request.Context(), day)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SellerReport обрабатывает GET /admin/reports/sellers.
func (h *AdminHandler) SellerReport(c *gin.Context) {
	rows, err := h.reports.SellerPerformance(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellers": rows})
}

// RiskReport обрабатывает GET /admin/reports/risky-buyers.
func (h *AdminHandler) RiskReport(c *gin.Context) {
	rows, err := h.reports.HighRiskBuyers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buyers": rows})
}
