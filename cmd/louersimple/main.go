package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/llabyellov/LouerSimple/internal/amqp"
	"github.com/llabyellov/LouerSimple/internal/config"
	apphttp "github.com/llabyellov/LouerSimple/internal/http"
	"github.com/llabyellov/LouerSimple/internal/ledger"
	"github.com/llabyellov/LouerSimple/internal/ledger/memory"
	applog "github.com/llabyellov/LouerSimple/internal/log"
	"github.com/llabyellov/LouerSimple/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting louersimple")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Choose the durable ledger backend
	var store ledger.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		store = memory.New()
		logger.Info("Initialized memory backend")
	}

	// Change notifications are optional: without a broker the ledger still
	// works, other instances just reload on their own schedule.
	var notifier ledger.ChangeNotifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err, "exchange", cfg.AMQPExchange)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqpClient
		logger.Info("Initialized AMQP notifier", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	service := ledger.NewService(store, notifier)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := service.Reload(startupCtx); err != nil {
		startupCancel()
		logger.Error("Initial ledger load failed", "error", err)
		os.Exit(1)
	}
	startupCancel()

	srv := apphttp.NewServer(":"+cfg.Port, service)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting louersimple server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return amqp.ListenChanges(gctx, cfg.AMQPURL, cfg.AMQPExchange, func(msg *amqp.LedgerChangedMessage) error {
				logger.Info("Ledger change notification received", "source", msg.Source)
				return service.Reload(gctx)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
