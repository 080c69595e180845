package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/api"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/config"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/events/nop"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/scheduler"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.Close()

	var publisher interfaces.EventPublisher = nop.Publisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Msg("Publishing ledger events to Kafka")
	}

	ledgerService := ledger.NewLedger(store, publisher, log)

	// the scheduler's first run is the startup catch-up
	sched := scheduler.New(ledgerService, cfg.CheckInterval, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start recurrence scheduler")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewServer(ledgerService, log).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Dur("check_interval", cfg.CheckInterval).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping recurrence scheduler")
	}

	log.Info().Msg("Server exited")
}

// openStore returns the Postgres store when DATABASE_URL is set and the memory store otherwise.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (interfaces.LedgerStore, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using the in-memory store; data is lost on exit")
		return memory.NewMemoryLedgerStore(), nil
	}

	db, err := config.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("Database connected successfully")
	return postgres.NewPostgresLedgerStore(db), nil
}
