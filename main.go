// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tinyblog/pageviews/config"
	"tinyblog/pageviews/database"
	"tinyblog/pageviews/geo"
	"tinyblog/pageviews/handlers"
	"tinyblog/pageviews/logs"
	"tinyblog/pageviews/metrics"
	"tinyblog/pageviews/middleware"
	"tinyblog/pageviews/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, syncLogs, err := logs.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syncLogs()

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	pageViewStore, closeStore, err := openStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize page view store: %v", err)
	}
	defer closeStore()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pageViewStore.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		log.Fatalf("Failed to migrate page view store: %v", err)
	}
	cancelMigrate()

	resolver, err := geo.NewResolver(cfg.Geo.Source)
	if err != nil {
		log.Fatalf("Failed to initialize geo resolver: %v", err)
	}

	pageViewHandlers := handlers.NewPageViewHandlers(pageViewStore, handlers.PageViewOptions{
		IncludeGeo:   cfg.Geo.Enabled,
		StrictStatus: cfg.Server.StrictStatus,
		ReadEnabled:  cfg.Server.ReadEnabled,
		Logger:       logger,
		Geo:          resolver,
		Timeout:      cfg.Server.StoreTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	r, err := newRouter(cfg, logger, pageViewHandlers)
	if err != nil {
		log.Fatalf("Failed to initialize router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("page view server starting", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Page view server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exiting")
}

// newRouter wires middleware and routes. Forwarding headers are only honoured
// from TRUSTED_PROXIES; with none configured the client IP is the connection peer
// or the CLIENT_IP_HEADER set by the hosting platform.
func newRouter(cfg *config.Config, logger logs.Logger, pageViewHandlers *handlers.PageViewHandlers) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	if cfg.Server.ClientIPHeader != "" {
		r.TrustedPlatform = cfg.Server.ClientIPHeader
	}
	r.Use(middleware.Logger(logger), gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigin))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
	pageViewHandlers.RegisterRoutes(r)
	return r, nil
}

// openStore connects the configured backend and wraps it with the Redis cache when REDIS_URL is set.
func openStore(cfg *config.Config, logger logs.Logger) (store.PageViewStore, func(), error) {
	var (
		s       store.PageViewStore
		closers []func()
	)

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dbClient, err := database.NewPostgresDB(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, dbClient.Close)
		s = store.NewPostgresStore(dbClient.DB, logger)
	case config.DriverClickHouse:
		chClient, err := database.NewClickHouseDB(cfg.Store.ClickHouse)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, chClient.Close)
		s = store.NewClickHouseStore(chClient, logger)
	case config.DriverMemory:
		s = store.NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.Store.RedisURL)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		closers = append(closers, redisClient.Close)
		s = store.NewCachedStore(s, redisClient.Client, cfg.Store.CacheTTL, logger)
	}

	return s, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}
