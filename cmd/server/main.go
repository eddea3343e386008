package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mealmarket/mealmarket-backend/internal/codevault"
	"github.com/mealmarket/mealmarket-backend/internal/config"
	"github.com/mealmarket/mealmarket-backend/internal/db"
	"github.com/mealmarket/mealmarket-backend/internal/flow"
	httpHandlers "github.com/mealmarket/mealmarket-backend/internal/http/handlers"
	httpRouter "github.com/mealmarket/mealmarket-backend/internal/http/router"
	"github.com/mealmarket/mealmarket-backend/internal/logger"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
	"github.com/mealmarket/mealmarket-backend/internal/service"
	"github.com/mealmarket/mealmarket-backend/internal/storage"
	"github.com/mealmarket/mealmarket-backend/internal/sweeper"
	"github.com/mealmarket/mealmarket-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера.
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init(cfg.LogLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	vault, err := codevault.New(cfg.VaultKey)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище кодов: %v", err)
	}

	proofStorage, err := storage.NewProofStorage(cfg.ProofStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	listingRepo := repository.NewListingRepository(dbConn)
	reservationRepo := repository.NewReservationRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	ratingRepo := repository.NewRatingRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)

	// Сервисы.
	settingsService := service.NewSettingsService(settingsRepo, cfg)
	userService := service.NewUserService(userRepo, settingsService, cfg.AdminTelegramIDs)
	listingService := service.NewListingService(listingRepo, vault, settingsService)
	reservationService := service.NewReservationService(reservationRepo, settingsService)
	paymentService := service.NewPaymentService(paymentRepo, reservationRepo)
	ratingService := service.NewRatingService(ratingRepo, reservationRepo, listingRepo)
	disputeService := service.NewDisputeService(disputeRepo, reservationRepo, listingRepo)
	reportService := service.NewReportService(reportRepo)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Черновики многошаговых операций.
	draftStore := flow.NewStore(flow.DefaultTTL)

	// Фоновые циклы обслуживания.
	sweep := sweeper.New(reservationService, listingService, hub, draftStore)
	sweep.Start(ctx)
	defer sweep.Stop()

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(userService, tokenManager, cfg.GatewaySecret)
	listingHandler := httpHandlers.NewListingHandler(listingService)
	reservationHandler := httpHandlers.NewReservationHandler(reservationService, listingService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService, reservationService, proofStorage)
	ratingHandler := httpHandlers.NewRatingHandler(ratingService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService, proofStorage)
	flowHandler := httpHandlers.NewFlowHandler(draftStore)
	adminHandler := httpHandlers.NewAdminHandler(
		paymentService, reservationService, listingService,
		disputeService, userService, settingsService, reportService, proofStorage, hub,
	)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler, listingHandler, reservationHandler, paymentHandler,
		ratingHandler, disputeHandler, flowHandler, adminHandler, wsHandler, healthHandler,
		tokenManager, userService,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
