package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/court-dispatch/brackets"
	"github.com/Dosada05/court-dispatch/config"
	"github.com/Dosada05/court-dispatch/db"
	"github.com/Dosada05/court-dispatch/handlers"
	"github.com/Dosada05/court-dispatch/repositories"
	api "github.com/Dosada05/court-dispatch/routes"
	"github.com/Dosada05/court-dispatch/scheduler"
	"github.com/Dosada05/court-dispatch/services"
	"github.com/Dosada05/court-dispatch/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
		slog.Duration("dispatch_interval", cfg.DispatchInterval),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Хранилище
	store, dbConn, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	if dbConn != nil {
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
	}

	// Публикация снапшотов сетки (Cloudflare R2)
	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize snapshot publisher", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация сервисов
	tracker := services.NewDurationTracker(store.Durations, cfg.DurationWindow, cfg.DefaultMatchMinutes)
	pairing := brackets.NewPairingGenerator(nil)

	bracketService := services.NewBracketService(store.Players, store.Matches, pairing, publisher, logger)
	matchService := services.NewMatchService(store.Matches, tracker, logger)
	etaService := services.NewETAService(store.Matches, store.Courts, tracker)
	bottleneckService := services.NewBottleneckService(store, tracker, cfg.BottleneckMultiple, cfg.PriorityBoostTTL, logger)
	adminService := services.NewAdminService(store, logger)
	logger.Info("services initialized")

	// Запуск планировщика вызова матчей на корты
	sched := scheduler.New(store, scheduler.Config{
		Interval: cfg.DispatchInterval,
		BoostTTL: cfg.PriorityBoostTTL,
	}, nil, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start dispatch scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация обработчиков HTTP
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Dispatch: handlers.NewDispatchHandler(sched, etaService, bottleneckService),
		Brackets: handlers.NewBracketHandler(bracketService),
		Matches:  handlers.NewMatchHandler(matchService),
		Admin:    handlers.NewAdminHandler(adminService),
	}, cfg.CORSAllowedOrigins, logger)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// Планировщик останавливаем до закрытия базы
	sched.Stop()
	stop()
	logger.Info("application exited")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories.Store, *sql.DB, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store, state is lost on restart")
		return repositories.NewMemoryStore(), nil, nil
	case config.StoreDriverPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, nil, err
		}
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.EnsureSchema(schemaCtx, dbConn); err != nil {
			_ = dbConn.Close()
			return nil, nil, err
		}
		logger.Info("database connection established")
		return repositories.NewPostgresStore(dbConn), dbConn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.SnapshotPublisher, error) {
	r2 := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Enabled() {
		publisher, err := storage.NewR2Publisher(ctx, r2)
		if err != nil {
			return nil, err
		}
		logger.Info("Cloudflare R2 publisher initialized", slog.String("bucket", r2.BucketName))
		return publisher, nil
	}
	if cfg.StoreDriver == config.StoreDriverMemory {
		return storage.NewMemoryPublisher("http://localhost/snapshots"), nil
	}
	logger.Info("R2 is not configured, bracket snapshots are disabled")
	return nil, nil
}
