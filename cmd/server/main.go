package main

import (
	"context"   // Redis ping and shutdown deadlines
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"finance_portfolio/internal/api"        // HTTP handlers and router
	"finance_portfolio/internal/config"     // Configuration
	"finance_portfolio/internal/db"         // Database connection and migration
	"finance_portfolio/internal/ledger"     // Transactions and balances
	"finance_portfolio/internal/middleware" // Rate limiting
	"finance_portfolio/internal/portfolio"  // Watchlist
	"finance_portfolio/internal/quotes"     // Price lookups
	"finance_portfolio/internal/realtime"   // Live balance updates

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatal(err)
	}

	// Setup Redis client, caching is skipped when no address is configured
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Warn("REDIS_ADDR not set, caching disabled")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := realtime.NewHub()
	prices := quotes.NewClient(cfg.AlphaVantageKey, redisClient, cfg.QuoteCacheTTL)
	if !prices.Enabled() {
		logrus.Info("ALPHA_VANTAGE_API_KEY not set, price refresh disabled")
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	r, err := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        gdb,
		Redis:     redisClient,
		Ledger:    ledger.NewService(gdb, redisClient, hub),
		Portfolio: portfolio.NewService(gdb, prices),
		Quotes:    prices,
		Hub:       hub,
		Limiter:   limiter,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Server running on %s", cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hub.Close(); err != nil {
		logrus.WithError(err).Warn("closing live sessions")
	}
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("forced shutdown")
	}
	limiter.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
