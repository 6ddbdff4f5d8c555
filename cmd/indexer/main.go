package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/database"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/events"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/search"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	"github.com/zatekoja/propertymarket/backend/pkg/config"
)

func main() {
	var reset, watch bool
	var batchSize int
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the Typesense listings collection before reindexing")
	flag.BoolVar(&watch, "watch", false, "after reindexing, keep the index in sync from listing events")
	flag.IntVar(&batchSize, "batch", 200, "listings fetched per batch")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for full reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Environment, cfg.LogLevel)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}
	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			log.Fatal().Str("interval", intervalValue).Msg("Interval must be a positive duration")
		}
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatal().Str("driver", cfg.Storage.Driver).Msg("The indexer needs the postgres storage driver")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Typesense client")
	}
	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Resetting listings collection")
		err = tsClient.ResetSchema(ctx)
	} else {
		err = tsClient.InitSchema(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Typesense schema")
	}

	listings := database.NewListingAdapter(pgClient)
	index := search.NewTypesenseAdapter(tsClient.Client())

	// Watching needs a bus shared with the API process
	var syncer *services.IndexSyncService
	if watch {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Watch mode needs Redis")
		}
		defer redisClient.Close()
		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()
		syncer = services.NewIndexSyncService(listings, index, bus)
		if err := syncer.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start index sync")
		}
		defer syncer.Stop()
	} else {
		syncer = services.NewIndexSyncService(listings, index, nil)
	}

	for {
		start := time.Now()
		n, err := syncer.Reindex(ctx, batchSize)
		if err != nil {
			log.Error().Err(err).Int("indexed", n).Msg("Reindex failed")
		} else {
			log.Info().Int("indexed", n).Dur("took", time.Since(start)).Msg("Reindex complete")
		}

		if interval <= 0 && !watch {
			return
		}

		var next <-chan time.Time
		if interval > 0 {
			next = time.After(interval)
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("Indexer shutting down")
			return
		case <-next:
		}
	}
}
