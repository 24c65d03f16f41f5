package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stablebook/service-booking/internal/adapter"
	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/internal/cache"
	"github.com/stablebook/service-booking/internal/config"
	bookingEvents "github.com/stablebook/service-booking/internal/events"
	"github.com/stablebook/service-booking/internal/handler"
	"github.com/stablebook/service-booking/internal/repository"
	"github.com/stablebook/service-booking/internal/saga"
	"github.com/stablebook/service-booking/internal/sweeper"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/database"
	"github.com/stablebook/service-booking/pkg/health"
	"github.com/stablebook/service-booking/pkg/kafka"
	"github.com/stablebook/service-booking/pkg/logger"
	"github.com/stablebook/service-booking/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.StableModel{},
			&repository.HorseModel{},
			&repository.BookingModel{},
			&repository.BlockedSlotModel{},
			&repository.PromoModel{},
			&repository.PromoUsageModel{},
			&repository.MembershipModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DB.DatabaseURL(), cfg.MigrationsDir, zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessDuration, cfg.JWT.RefreshDuration)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Connect Redis for the availability cache; degrade to uncached reads if
	// it is unreachable.
	var availCache *cache.AvailabilityCache
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := cache.NewClient(redisCtx, cfg.RedisAddr)
	redisCancel()
	if err != nil {
		zapLogger.Warn("redis unavailable, availability cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		availCache = cache.NewAvailabilityCache(redisClient, 5*time.Minute, zapLogger)
	}

	// Notifier (log-backed; swap for a real channel in production)
	notifier := adapter.NewLogNotifier(zapLogger)

	clk := clock.System{}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	promoRepo := repository.NewGormPromoRepository(db)
	membershipRepo := repository.NewGormMembershipRepository(db)
	stableRepo := repository.NewStableRepository(db)

	// Initialize saga service
	sagaService := saga.NewReservationSagaService(bookingRepo, promoRepo, kafkaProducer, zapLogger)

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		slotRepo,
		promoRepo,
		membershipRepo,
		stableRepo,
		sagaService,
		kafkaProducer,
		notifier,
		availCache,
		clk,
		cfg.CommissionPercent,
		cfg.Sweep.ReminderLookahead,
		zapLogger,
	)
	slotService := application.NewSlotService(slotRepo, stableRepo, availCache, zapLogger)
	promoService := application.NewPromoService(promoRepo, clk, zapLogger)
	membershipService := application.NewMembershipService(membershipRepo, clk, zapLogger)

	// Initialize Kafka consumer for payment events
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		bookingService,
		zapLogger,
	)
	defer paymentConsumer.Close()

	// Start Kafka consumer in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting payment event consumer")
		if err := paymentConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("payment event consumer failed", zap.Error(err))
			}
		}
	}()

	// Start the background sweeps
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweeper.New(bookingService, clk, cfg.Sweep.Interval, zapLogger).Run(sweepCtx)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	handler.NewBookingHandler(bookingService).RegisterRoutes(apiV1, jwtManager)
	handler.NewSlotHandler(slotService).RegisterRoutes(apiV1, jwtManager)
	handler.NewPromoHandler(promoService).RegisterRoutes(apiV1, jwtManager)
	handler.NewMembershipHandler(membershipService).RegisterRoutes(apiV1, jwtManager)
	handler.NewAdminHandler(bookingService, clk).RegisterRoutes(apiV1, jwtManager)
	handler.NewWebhookHandler(bookingService, cfg.WebhookSecret, zapLogger).RegisterRoutes(apiV1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-booking...")

	// Stop background workers
	consumerCancel()
	sweepCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-booking stopped")
}
