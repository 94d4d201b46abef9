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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/consult-booking/internal/api/router"
	"github.com/wolfman30/consult-booking/internal/app/bootstrap"
	"github.com/wolfman30/consult-booking/internal/auth"
	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/internal/booking"
	appconfig "github.com/wolfman30/consult-booking/internal/config"
	"github.com/wolfman30/consult-booking/internal/doctors"
	"github.com/wolfman30/consult-booking/internal/notify"
	"github.com/wolfman30/consult-booking/internal/observability/metrics"
	"github.com/wolfman30/consult-booking/internal/pricing"
	"github.com/wolfman30/consult-booking/internal/session"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting consult-booking web server",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend_url", cfg.BackendURL,
	)

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Outbound clients
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger).WithObserver(bookingMetrics)
	resolver := pricing.NewResolver(cfg.GeolocationURL, logger).WithObserver(bookingMetrics)
	redisClient := bootstrap.BuildRedisClient(rootCtx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Services
	directory := doctors.NewDirectory(backendClient, cfg.DoctorCacheTTL, logger)
	guard := bootstrap.BuildSubmitGuard(redisClient, cfg, logger)
	dispatcher, err := bootstrap.BuildDispatcher(cfg, backendClient, guard, bookingMetrics, logger)
	if err != nil {
		logger.Error("failed to build payment dispatcher", "error", err)
		os.Exit(1)
	}
	authService := auth.NewService(backendClient, logger)

	sessions := session.NewStore(resolver, logger,
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithObserver(bookingMetrics),
		session.WithBoardOptions(notify.WithTTL(cfg.NotificationTTL)),
	)
	defer sessions.Close()
	go sessions.Run(rootCtx, 0)

	if err := bootstrap.WarmUp(rootCtx, directory, redisClient, 10*time.Second, logger); err != nil {
		logger.Warn("warm-up incomplete, continuing", "error", err)
	}

	// Setup router
	var readiness func(ctx context.Context) error
	if redisClient != nil {
		readiness = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	r := router.New(&router.Config{
		Logger:             logger,
		Booking:            booking.NewHandler(authService, directory, dispatcher, logger),
		Sessions:           sessions,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RequestMetrics:     bookingMetrics,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CookieSecure:       cfg.CookieSecure || cfg.IsProduction(),
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		Readiness:          readiness,
	})

	// Create HTTP server. Checkout calls carry no backend timeout by default,
	// so the write timeout is left to the idle/read limits.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopRoot()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
