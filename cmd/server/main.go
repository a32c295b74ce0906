package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/osamaaslam86004/E-Commrace/internal/cart"
	"github.com/osamaaslam86004/E-Commrace/internal/catalog"
	"github.com/osamaaslam86004/E-Commrace/internal/checkout"
	"github.com/osamaaslam86004/E-Commrace/internal/config"
	h "github.com/osamaaslam86004/E-Commrace/internal/http"
	"github.com/osamaaslam86004/E-Commrace/internal/identity"
	"github.com/osamaaslam86004/E-Commrace/internal/repository"
	"github.com/osamaaslam86004/E-Commrace/internal/session"
	"github.com/osamaaslam86004/E-Commrace/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}
	db, err := repository.Connect(creds)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.RunMigrations(db, creds); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	sessions := session.NewStore(redisClient, cfg.SessionTTL)

	registry := catalog.NewRegistry()
	registry.Register("monitor", catalog.NewMonitorFetcher(db))
	registry.Register("book", catalog.NewBookFetcher(db))
	registry.Register("console", catalog.NewConsoleFetcher(db))

	cartRepo := repository.NewCartRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	refundRepo := repository.NewRefundRepo(db)

	cartSvc := cart.NewService(registry, cartRepo, sessions, cfg.Surcharge)

	processor := checkout.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeTimeout)
	idents := identity.NewPostgresResolver(db)
	checkoutSvc := checkout.NewService(cartRepo, paymentRepo, refundRepo, processor, idents, cfg.StripePublishableKey)
	reconciler := checkout.NewReconciler(paymentRepo, refundRepo)

	cartHandler := h.NewCartHandler(cartSvc, sessions, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutSvc, reconciler, sessions, cfg.RequestTimeout)

	router := h.NewRouter(cartHandler, checkoutHandler, sessions, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}
