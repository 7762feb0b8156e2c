package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/internal/config"
	"github.com/fleetline/service-reservation/internal/domain/pricing"
	reservationEvents "github.com/fleetline/service-reservation/internal/events"
	"github.com/fleetline/service-reservation/internal/handler"
	"github.com/fleetline/service-reservation/internal/repository"
	"github.com/fleetline/service-reservation/internal/repository/memory"
	"github.com/fleetline/service-reservation/internal/scheduler"
	"github.com/fleetline/service-reservation/pkg/auth"
	"github.com/fleetline/service-reservation/pkg/database"
	"github.com/fleetline/service-reservation/pkg/health"
	"github.com/fleetline/service-reservation/pkg/kafka"
	"github.com/fleetline/service-reservation/pkg/logger"
	"github.com/fleetline/service-reservation/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "service-reservation"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
	)

	// Storage
	var (
		db    *gorm.DB
		store application.Store
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db = connectDatabase(cfg, log)
		store = repository.NewGormStore(db, log)
	default:
		log.Warn("using in-memory storage, data is lost on restart")
		store = memory.NewStore()
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.Issuer,
		cfg.JWTConfig.AccessTTL,
	)

	// Initialize Kafka producer
	var publisher application.EventPublisher = application.NopPublisher{}
	if cfg.KafkaEnabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize application services
	authz := auth.ClaimsAuthorizer{}
	clock := application.SystemClock{}
	pricingStrategy := pricing.NewSeasonalStrategy()

	bookingService := application.NewBookingService(store, pricingStrategy, authz, publisher, clock, cfg.Currency, log)
	extensionService := application.NewExtensionService(store, pricingStrategy, authz, publisher, clock, log)
	lateFeeService := application.NewLateFeeService(store, authz, publisher, clock,
		cfg.LateFeeHourlyRateCents, cfg.SweepConcurrency, log)
	paymentService := application.NewPaymentService(store, authz, clock, log)
	vehicleService := application.NewVehicleService(store, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start payment event consumer in a goroutine
	if cfg.KafkaEnabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
		paymentConsumer := reservationEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			paymentService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Late-fee sweep
	sched, err := scheduler.NewScheduler(lateFeeService, cfg.SweepSpec, log)
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	sched.Start()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService, extensionService, lateFeeService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService, extensionService, lateFeeService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewVehicleHandler(vehicleService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Stop background work before the server
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

// connectDatabase opens the database and brings the schema up to date.
func connectDatabase(cfg *config.ServiceConfig, log *zap.Logger) *gorm.DB {
	dbConfig := database.PostgresConfig{
		Host:            cfg.DBConfig.Host,
		Port:            cfg.DBConfig.Port,
		User:            cfg.DBConfig.User,
		Password:        cfg.DBConfig.Password,
		DBName:          cfg.DBConfig.DBName,
		SSLMode:         cfg.DBConfig.SSLMode,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The exclusion constraint on bookings only exists in the SQL migrations.
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	return db
}
