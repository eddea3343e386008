package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mealmarket/mealmarket-backend/internal/config"
	"github.com/mealmarket/mealmarket-backend/internal/http/handlers"
	"github.com/mealmarket/mealmarket-backend/internal/http/middleware"
	"github.com/mealmarket/mealmarket-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	listingHandler *handlers.ListingHandler,
	reservationHandler *handlers.ReservationHandler,
	paymentHandler *handlers.PaymentHandler,
	ratingHandler *handlers.RatingHandler,
	disputeHandler *handlers.DisputeHandler,
	flowHandler *handlers.FlowHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
	userService *service.UserService,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	// Выпуск токенов доступен только доверенному шлюзу.
	api.POST("/auth/token", authHandler.IssueToken)

	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты. Статус блокировки проверяется на каждом запросе.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RequireActiveUser(userService))
	{
		protected.GET("/listings", listingHandler.BrowseListings)
		protected.GET("/listings/mine", listingHandler.MyListings)
		protected.GET("/listings/:id", middleware.UUIDValidator("id"), listingHandler.GetListing)
		protected.POST("/listings", listingHandler.CreateListing)
		protected.DELETE("/listings/:id", middleware.UUIDValidator("id"), listingHandler.CancelListing)

		protected.POST("/reservations", reservationHandler.Reserve)
		protected.GET("/reservations/mine", reservationHandler.MyReservations)
		protected.DELETE("/reservations/:id", middleware.UUIDValidator("id"), reservationHandler.CancelReservation)
		protected.GET("/reservations/:id/code", middleware.UUIDValidator("id"), reservationHandler.RevealCode)

		protected.POST("/reservations/:id/payment", middleware.UUIDValidator("id"), paymentHandler.SubmitPayment)
		protected.GET("/reservations/:id/payment", middleware.UUIDValidator("id"), paymentHandler.GetPayment)

		protected.POST("/deals/:id/rating", middleware.UUIDValidator("id"), ratingHandler.RateDeal)
		protected.GET("/deals/:id/rating", middleware.UUIDValidator("id"), ratingHandler.GetDealRating)
		protected.GET("/users/:id/ratings", middleware.UUIDValidator("id"), ratingHandler.ListUserRatings)

		protected.POST("/deals/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.OpenDispute)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)

		// Черновики многошаговых операций для шлюза.
		protected.POST("/flows", flowHandler.BeginFlow)
		protected.GET("/flows", flowHandler.GetFlow)
		protected.PUT("/flows", flowHandler.AdvanceFlow)
		protected.POST("/flows/finish", flowHandler.FinishFlow)
		protected.DELETE("/flows", flowHandler.AbortFlow)
	}

	// Админские маршруты.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/payments", adminHandler.PendingPayments)
		admin.GET("/payments/:id/proof", middleware.UUIDValidator("id"), adminHandler.PaymentProof)
		admin.POST("/payments/:id/approve", middleware.UUIDValidator("id"), adminHandler.ApprovePayment)
		admin.POST("/payments/:id/reject", middleware.UUIDValidator("id"), adminHandler.RejectPayment)

		admin.GET("/listings/:id/code", middleware.UUIDValidator("id"), adminHandler.RevealListingCode)

		admin.GET("/disputes", adminHandler.OpenDisputes)
		admin.POST("/disputes/:id/status", middleware.UUIDValidator("id"), adminHandler.ResolveDispute)

		admin.POST("/users/:id/ban", middleware.UUIDValidator("id"), adminHandler.BanUser)
		admin.POST("/users/:id/unban", middleware.UUIDValidator("id"), adminHandler.UnbanUser)

		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSetting)

		admin.GET("/reports/daily", adminHandler.DailyReport)
		admin.GET("/reports/sellers", adminHandler.SellerReport)
		admin.GET("/reports/risky-buyers", adminHandler.RiskReport)
	}

	return r
}
