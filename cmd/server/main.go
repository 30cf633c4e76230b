package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"doorstep/internal/app"
	"doorstep/internal/config"
	"doorstep/internal/handler"
	"doorstep/internal/rabbitmq"
	"doorstep/internal/redis"
	"doorstep/internal/seed"
	"doorstep/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger, err := app.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	var db *sql.DB
	if cfg.Store.Backend == config.StorePostgres {
		var err error
		db, err = app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

		if cfg.Database.MigrateOnStart {
			migrator, err := app.NewMigrator(db, logger)
			if err != nil {
				return err
			}
			if err := migrator.Run(ctx); err != nil {
				return err
			}
		}
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher service.Publisher = service.NewLogPublisher(logger)
	if cfg.RabbitMQ.Enabled {
		amqpPublisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info("publishing lead events to RabbitMQ", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	stores, err := app.NewStores(cfg.Store.Backend, db)
	if err != nil {
		return err
	}

	if cfg.Store.Seed {
		if err := seed.Load(ctx, stores.Catalog, stores.Mechanics, time.Now(), logger); err != nil {
			return err
		}
	}

	// Wire dependencies.
	server, directory := wireServer(cfg, stores, redisClient, publisher, nrApp, logger)

	if redisClient != nil {
		indexed, err := directory.IndexLocations(ctx)
		if err != nil {
			logger.Warn("mechanic geo index not built, search falls back to a full scan", zap.Error(err))
		} else {
			logger.Info("mechanic geo index built", zap.Int("mechanics", indexed))
		}
	}

	// Start server in goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	cfg *config.Config,
	stores *app.Stores,
	redisClient *goredis.Client,
	publisher service.Publisher,
	nrApp *newrelic.Application,
	logger *zap.Logger,
) (*http.Server, *service.DirectoryService) {
	// Redis stores stay untyped nil when Redis is disabled.
	var (
		locationStore    redis.LocationStoreInterface
		lockStore        redis.LockStoreInterface
		cacheStore       redis.CacheStoreInterface
		idempotencyStore redis.IdempotencyStoreInterface
	)
	if redisClient != nil {
		locationStore = redis.NewLocationStore(redisClient)
		lockStore = redis.NewLockStore(redisClient)
		cacheStore = redis.NewCacheStore(redisClient)
		idempotencyStore = redis.NewIdempotencyStore(redisClient)
	}

	// Initialize services.
	directory := service.NewDirectoryService(stores.Mechanics, locationStore, cacheStore, logger)
	searchService := service.NewSearchService(directory, stores.Catalog, cfg.Search.DefaultRadiusKm, logger)
	notificationService := service.NewNotificationService(publisher, logger)
	leadService := service.NewLeadService(
		stores.Leads,
		stores.Catalog,
		directory,
		service.NewServiceArea(cfg.Booking.ServiceAreaCities),
		notificationService,
		lockStore,
		service.LeadPolicy{
			RateLimitMax:     cfg.Booking.RateLimitMax,
			RateLimitWindow:  cfg.Booking.RateLimitWindow,
			TrackingIDPrefix: cfg.Booking.TrackingIDPrefix,
			LockTTL:          cfg.Booking.LockTTL,
		},
		logger,
	)
	trackingService := service.NewTrackingService(leadService, stores.Leads)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CatalogHandler:   handler.NewCatalogHandler(stores.Catalog, logger),
		MechanicHandler:  handler.NewMechanicHandler(searchService, directory, cfg.Search.MaxRadiusKm, logger),
		LeadHandler:      handler.NewLeadHandler(leadService, logger),
		TrackingHandler:  handler.NewTrackingHandler(trackingService, leadService, logger),
		IdempotencyStore: idempotencyStore,
		NewRelicApp:      nrApp,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Logger:           logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, directory
}
