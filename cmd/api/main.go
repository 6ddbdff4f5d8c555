package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/cache"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/database"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/events"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/memory"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/search"
	"github.com/zatekoja/propertymarket/backend/internal/api/handlers"
	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/api/routes"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/graphql/resolvers"
	"github.com/zatekoja/propertymarket/backend/internal/graphql/schema"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	"github.com/zatekoja/propertymarket/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pingers := map[string]handlers.Pinger{}

	// Storage
	var (
		listings repositories.ListingRepository
		ratings  repositories.RatingRepository
		users    repositories.UserRepository
	)
	switch cfg.Storage.Driver {
	case "memory":
		listings, ratings, users = memory.NewListingStore(), memory.NewRatingStore(), memory.NewUserStore()
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
	default:
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		if cfg.Database.AutoMigrate {
			if err := pgClient.Migrate(); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply database migrations")
			}
		}
		pingers["postgres"] = pgClient

		listings = database.NewListingAdapter(pgClient)
		ratings = database.NewRatingAdapter(pgClient)
		users = database.NewUserAdapter(pgClient)
	}
	subjects := map[entities.SubjectType]repositories.RatingSubjectRepository{
		entities.SubjectListing: listings,
		entities.SubjectAgent:   users,
	}

	// Redis backs the rate limiter and cross-process events when available
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-process event bus and rate counters")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			pingers["redis"] = redisClient
		}
	}
	if eventBus == nil {
		eventBus = events.NewLocalEventBus()
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// Search index
	var index repositories.ListingSearchIndex
	var indexSync *services.IndexSyncService
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, text search uses the database")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Typesense schema, text search uses the database")
		} else {
			index = search.NewTypesenseAdapter(tsClient.Client())
			indexSync = services.NewIndexSyncService(listings, index, eventBus)
			if err := indexSync.Start(); err != nil {
				log.Error().Err(err).Msg("Failed to start index sync")
				indexSync = nil
			}
		}
	}

	normalizer := listingsearch.NewNormalizer(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	compiler := listingsearch.NewCompiler(cfg.Search.PriceTolerance)

	listingService := services.NewListingService(listings, users, ratings, index, eventBus, metrics, normalizer, compiler)
	ratingService := services.NewRatingService(ratings, subjects, eventBus, metrics, normalizer)

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; authenticated routes will reject every token")
	}

	var graphqlHandler http.Handler
	if cfg.Server.GraphQLEnabled {
		graphqlHandler = schema.NewHandler(resolvers.NewResolver(listingService, ratingService))
		log.Info().Msg("GraphQL endpoint enabled at /graphql")
	}

	router := routes.NewRouter(
		handlers.NewListingHandler(listingService),
		handlers.NewRatingHandler(ratingService),
		handlers.NewHealthHandler(pingers),
		routes.Options{
			Auth:           middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
			RatingLimiter:  middleware.NewRateLimiter(cacheProvider, "ratings", cfg.Ratings.SubmissionsPerHour, time.Hour, metrics),
			UserRepo:       users,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        metrics,
			GraphQL:        graphqlHandler,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.Storage.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if indexSync != nil {
		indexSync.Stop()
	}

	log.Info().Msg("Server stopped")
}
