// Package main is the entry point for the API server.
// It loads configuration, connects PostgreSQL, Redis, S3, RabbitMQ and Stripe,
// wires the services and serves the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pronat/internal/config"
	"pronat/internal/events"
	"pronat/internal/handlers"
	"pronat/internal/logger"
	"pronat/internal/middleware"
	"pronat/internal/repositories"
	"pronat/internal/repositories/cache"
	"pronat/internal/routes"
	"pronat/internal/services/ads"
	"pronat/internal/services/auth"
	"pronat/internal/services/compliance"
	"pronat/internal/services/credit"
	"pronat/internal/services/extras"
	"pronat/internal/services/listing"
	"pronat/internal/services/notification"
	"pronat/internal/services/otp"
	"pronat/internal/services/payment"
	"pronat/internal/services/settings"
	"pronat/internal/services/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log, err := logger.New(logger.ConfigFromEnv())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("failed to initialise database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database instance", zap.Error(err))
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn("failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("connected to database with connection pooling")

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			log.Debug("db stats",
				zap.Int("open", stats.OpenConnections),
				zap.Int("idle", stats.Idle),
				zap.Int("in_use", stats.InUse),
				zap.Int64("wait_count", stats.WaitCount),
				zap.Duration("wait_duration", stats.WaitDuration),
			)
		}
	}()

	store := repositories.NewStore(db)

	// Redis is an optimisation only; run without it when unreachable.
	var appCache cache.Cache = cache.Noop{}
	checks := map[string]handlers.Checker{"database": sqlDB.PingContext}
	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cacheService := cache.NewCacheService(redisClient, 5*time.Minute)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := cacheService.HealthCheck(pingCtx); err != nil {
		log.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		appCache = cacheService
		checks["redis"] = cacheService.HealthCheck
		defer func() { _ = cacheService.Close() }()
	}
	cancel()

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
			defer func() { _ = amqpPublisher.Close() }()
		}
	}

	var mailer notification.Mailer = notification.LogMailer{Log: log}
	if cfg.SMTP.Username != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTP, cfg.ExternalTimeout, log)
	} else if config.IsProduction() {
		log.Fatal("SMTP_USERNAME must be set in production")
	}

	var blobs storage.BlobStore
	if cfg.S3.AccessKey != "" || config.IsProduction() {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.S3, cfg.ExternalTimeout, log)
		if err != nil {
			log.Fatal("failed to configure object storage", zap.Error(err))
		}
		blobs = s3Store
	} else {
		log.Warn("S3 credentials missing, uploads are kept in memory")
		blobs = storage.NewMemory()
	}

	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is empty, checkout will fail")
	}
	provider := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.ExternalTimeout)

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		log.Fatal("invalid auth configuration", zap.Error(err))
	}

	settingsService := settings.NewService(store, log)
	complianceService := compliance.NewService(store, appCache, log)
	creditService := credit.NewService(store, publisher, log)
	extrasService := extras.NewService(store, publisher, log)
	adService := ads.NewService(store, blobs, publisher, log)
	authService := auth.NewService(store, tokens, log)
	otpService := otp.NewService(store, mailer, tokens, publisher, log, otp.Options{
		TTL:                cfg.OTP.TTL,
		InvalidatePrevious: cfg.OTP.InvalidatePrevious,
	})
	listingService := listing.NewService(listing.Deps{
		Store:      store,
		Compliance: complianceService,
		Credits:    creditService,
		Settings:   settingsService,
		Blobs:      blobs,
		Mailer:     mailer,
		Publisher:  publisher,
		Log:        log,
		Lifetime:   cfg.ListingLifetime,
	})
	paymentService := payment.NewService(payment.Deps{
		Store:      store,
		Provider:   provider,
		Settings:   settingsService,
		Credits:    creditService,
		Extras:     extrasService,
		Ads:        adService,
		Publisher:  publisher,
		Log:        log,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	})

	app := fiber.New(fiber.Config{
		AppName:      "pronat-api",
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    25 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	routes.SetupRoutes(app, routes.Handlers{
		Health:   handlers.NewHealthHandler(version, checks),
		Auth:     handlers.NewAuthHandler(otpService, authService, cfg.Auth.RefreshTokenTTL),
		User:     handlers.NewUserHandler(authService, store.Transactions()),
		Property: handlers.NewPropertyHandler(listingService),
		Payment:  handlers.NewPaymentHandler(paymentService, store.Catalog(), log),
		Ad:       handlers.NewAdHandler(adService),
		Admin: handlers.NewAdminHandler(
			authService,
			creditService,
			listingService,
			extrasService,
			complianceService,
			settingsService,
			adService,
		),
	}, middleware.NewAuthMiddleware(authService, log), routes.Options{
		AuthRateLimit:  config.GetIntEnv("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: config.GetDurationEnv("AUTH_RATE_WINDOW", time.Minute),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("starting server", zap.String("port", cfg.Port), zap.String("version", version))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
