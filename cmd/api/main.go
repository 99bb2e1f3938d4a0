package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/crisis-companion/cmd/mainconfig"
	"github.com/wolfman30/crisis-companion/internal/api/router"
	"github.com/wolfman30/crisis-companion/internal/app/bootstrap"
	appconfig "github.com/wolfman30/crisis-companion/internal/config"
	"github.com/wolfman30/crisis-companion/internal/events"
	"github.com/wolfman30/crisis-companion/internal/http/handlers"
	"github.com/wolfman30/crisis-companion/internal/incidents"
	"github.com/wolfman30/crisis-companion/internal/observability/metrics"
	"github.com/wolfman30/crisis-companion/internal/session"
	"github.com/wolfman30/crisis-companion/internal/webchat"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting crisis-companion API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry, crisisMetrics, metricsHandler := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	sqlDB := openContactsDB(cfg.DatabaseURL, logger)
	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)

	emailSender, err := bootstrap.BuildEmailSender(cfg, &awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure email", "error", err)
		os.Exit(1)
	}
	contactStore := bootstrap.BuildContactStore(sqlDB, logger)
	notifier := bootstrap.BuildNotifier(cfg, bootstrap.NotifierDeps{
		Email:      emailSender,
		SMS:        bootstrap.BuildSMSSender(cfg, logger),
		Contacts:   contactStore,
		Dispatcher: bootstrap.BuildDispatcher(cfg, &awsCfg),
		Metrics:    crisisMetrics,
	}, logger)

	incidentStore := bootstrap.BuildIncidentStore(pool, logger)
	recorder := incidents.NewRecorder(incidentStore, logger)
	recorderCtx, stopRecorder := context.WithCancel(ctx)
	go recorder.Run(recorderCtx)

	hub := events.NewHub(logger)
	deps := session.Deps{
		Notifier: notifier,
		Listener: session.Listeners{hub, recorder},
		Metrics:  crisisMetrics,
		Logger:   logger,
	}
	var historyHandler *handlers.HistoryHandler
	if mirror := bootstrap.BuildHistoryMirror(redisClient, cfg); mirror != nil {
		deps.Archive = mirror
		historyHandler = handlers.NewHistoryHandler(mirror, logger)
	}
	if exporter := bootstrap.BuildTranscriptExporter(&awsCfg, cfg, logger); exporter != nil {
		deps.Exporter = exporter
	}
	manager := session.NewManager(session.Config{Countdown: cfg.SafetyCountdown}, deps)

	r := router.New(&router.Config{
		Logger:             logger,
		Sessions:           handlers.NewSessionHandler(manager, logger),
		Stream:             webchat.NewHandler(manager, hub, logger),
		Catalog:            handlers.NewCatalogHandler(logger),
		Status:             handlers.NewStatusHandler(registry),
		Incidents:          handlers.NewIncidentsHandler(incidentStore, logger),
		Contacts:           handlers.NewContactsHandler(contactStore, logger),
		History:            historyHandler,
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// No WriteTimeout: session streams are long-lived WebSockets.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Ending sessions cancels countdowns and exports transcripts; pending
	// notifications and incident writes drain afterwards.
	manager.Close(shutdownCtx)
	notifier.Wait()
	stopRecorder()
	select {
	case <-recorder.Done():
	case <-shutdownCtx.Done():
		logger.Warn("incident recorder did not drain before shutdown deadline")
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
	if pool != nil {
		pool.Close()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (*prometheus.Registry, *metrics.CrisisMetrics, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	crisisMetrics := metrics.NewCrisisMetrics(registry)
	return registry, crisisMetrics, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// openContactsDB opens the database/sql handle used by the contact store.
func openContactsDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Error("failed to open postgres", "error", err)
		return nil
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Warn("postgres not reachable; incidents kept in memory", "error", err)
		pool.Close()
		return nil
	}
	return pool
}
