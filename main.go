package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/joy095/travel/badwords"
	"github.com/joy095/travel/config"
	"github.com/joy095/travel/config/db"
	"github.com/joy095/travel/config/redis"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/middlewares/cors"
	logger_middleware "github.com/joy095/travel/middlewares/logger"
	"github.com/joy095/travel/routes"
	"github.com/joy095/travel/services/booking_service"
	"github.com/joy095/travel/storage/memstore"
	"github.com/joy095/travel/storage/postgres"
	"github.com/joy095/travel/utils"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	filter, err := badwords.Load(cfg.Booking.BadWordsFile)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to load bad words: %v", err)
	}
	logger.InfoLogger.Infof("Bad words loaded successfully (%d words)", filter.Len())

	stores, err := buildStores(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to set up %s store: %v", cfg.Booking.StoreDriver, err)
	}
	defer db.Close()

	var rdb *goredis.Client
	if cfg.Redis.URL != "" {
		rdb, err = redis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.WarnLogger.Warnf("Redis unavailable, using in-memory rate limits without idempotency: %v", err)
			rdb = nil
		}
		defer redis.CloseRedis()
	}

	service := booking_service.NewBookingService(stores, booking_service.Options{
		CancellationWindow: cfg.Booking.CancellationWindow,
		MaxGuests:          cfg.Booking.MaxGuests,
		Filter:             filter,
	})

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		secret = utils.GetJWTSecret()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.CorsMiddleware(cfg.HTTP.AllowedOrigins))
	r.Use(logger_middleware.GinLogger())

	routes.RegisterRoutes(r, routes.Dependencies{
		Service:   service,
		JWTSecret: secret,
		Redis:     rdb,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoLogger.Infof("Booking server listening on :%s", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.Fatalf("Server failed to listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down booking server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.InfoLogger.Info("Booking server exited gracefully.")
}

// buildStores wires the configured driver. The memory driver is meant for
// local runs and demos: its catalog holds only what CATALOG_SEED_FILE lists.
func buildStores(ctx context.Context, cfg *config.Config) (booking_service.Stores, error) {
	if cfg.Booking.StoreDriver == "memory" {
		logger.WarnLogger.Warn("Using in-memory store; data is lost on restart")
		mem := memstore.New()
		if cfg.Booking.CatalogSeedFile == "" {
			logger.WarnLogger.Warn("CATALOG_SEED_FILE not set; every booking will fail with not found")
		} else {
			n, err := mem.LoadSeed(cfg.Booking.CatalogSeedFile)
			if err != nil {
				return booking_service.Stores{}, err
			}
			logger.InfoLogger.Infof("Seeded %d catalog rows from %s", n, cfg.Booking.CatalogSeedFile)
		}
		return booking_service.Stores{
			Catalog:  mem.Catalog(),
			Bookings: mem.Bookings(),
			Reviews:  mem.Reviews(),
			Events:   mem.Outbox(),
			Tx:       mem,
		}, nil
	}

	pool, err := db.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return booking_service.Stores{}, err
	}
	return booking_service.Stores{
		Catalog:  postgres.NewCatalogStore(pool),
		Bookings: postgres.NewBookingStore(pool),
		Reviews:  postgres.NewReviewStore(pool),
		Events:   postgres.NewOutboxStore(pool),
		Tx:       postgres.NewTxManager(pool),
	}, nil
}
