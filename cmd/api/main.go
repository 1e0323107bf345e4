package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	ballotservice "tabroom/contexts/tab-core/ballot-service"
	"tabroom/contexts/tab-core/ballot-service/adapters/memory"
	postgresadapter "tabroom/contexts/tab-core/ballot-service/adapters/postgres"
	"tabroom/contexts/tab-core/ballot-service/ports"
	"tabroom/internal/platform/config"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type uuidGenerator struct{}

func (uuidGenerator) NewID(_ context.Context) (string, error) { return uuid.NewString(), nil }

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build the ballot module (ports + adapters + use cases).
// 3) Hand the module's Handler to the transport collaborator.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)

	var repository ports.Repository
	if cfg.PostgresDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("postgres open failed: %v", err)
		}
		repository = postgresadapter.NewRepository(db, logger)
	} else {
		repository = memory.NewStore(memory.Seed{})
		logger.Warn("no POSTGRES_DSN set, using in-memory store",
			"event", "memory_store_fallback",
			"module", "tab-core/ballot-service",
		)
	}

	module := ballotservice.NewModule(ballotservice.Dependencies{
		Repository: repository,
		Clock:      systemClock{},
		IDGen:      uuidGenerator{},
		Logger:     logger,

		AllowSelfConfirm:   cfg.AllowSelfConfirm,
		HistogramIntervals: cfg.HistogramIntervals,
		RecentResultsLimit: cfg.RecentResultsLimit,
	})
	_ = module.Handler

	logger.Info("ballot service ready",
		"event", "service_ready",
		"module", "tab-core/ballot-service",
	)
}
