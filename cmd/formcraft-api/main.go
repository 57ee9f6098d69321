package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formcraft/internal/analytics"
	"formcraft/internal/api"
	"formcraft/internal/auth"
	"formcraft/internal/billing"
	"formcraft/internal/config"
	"formcraft/internal/db"
	"formcraft/internal/mailer"
	"formcraft/internal/pubsub"
	"formcraft/internal/registry"
	"formcraft/internal/service"
	"formcraft/internal/submission"
	"formcraft/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		os.Exit(0)
	}
	if len(os.Args) > 1 && os.Args[1] != "serve" {
		log.Fatalf("Unknown command: %s (use 'serve' or 'migrate')", os.Args[1])
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	dbPool, err := db.NewPool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	store := db.NewStore(dbPool.Queries)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	bus := pubsub.New(rdb, logger)
	hub := ws.NewHub(logger)
	go hub.Run()
	go bus.Listen(hub)

	reg := registry.New()
	agg := analytics.NewAggregator(store)
	validator := submission.NewValidator(reg)
	mail := mailer.NewSMTP(cfg.Mail)
	payments := billing.NewHTTPClient(cfg.Billing.BaseURL, cfg.Billing.SecretKey, cfg.Billing.ProPrice)
	jwtCfg := auth.NewJWTConfig(cfg.JWTSecret)

	formSvc := service.NewFormService(store, reg, agg)
	publicSvc := service.NewPublicService(store, agg, validator, bus, mail, logger)
	userSvc := service.NewUserService(store, auth.BcryptCredentials{}, jwtCfg, mail, payments, cfg.BaseURL, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Timeout middleware, skipped for WebSocket upgrades.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, req)
				return
			}
			middleware.Timeout(60 * time.Second)(next).ServeHTTP(w, req)
		})
	})

	r.Mount("/api", api.Routes(api.Dependencies{
		Forms:      formSvc,
		Public:     publicSvc,
		Users:      userSvc,
		JWT:        jwtCfg,
		Hub:        hub,
		Log:        logger,
		SampleSize: cfg.SampleSize,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	logger.Info("Starting server", zap.String("addr", cfg.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
