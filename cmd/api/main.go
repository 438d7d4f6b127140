package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/adapters/cache"
	"github.com/mealmap/restaurantweek/internal/adapters/database"
	"github.com/mealmap/restaurantweek/internal/adapters/events"
	"github.com/mealmap/restaurantweek/internal/adapters/geoindex"
	"github.com/mealmap/restaurantweek/internal/adapters/providers/billing"
	"github.com/mealmap/restaurantweek/internal/api/handlers"
	"github.com/mealmap/restaurantweek/internal/api/routes"
	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/postgres"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/redis"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/typesense"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
	"github.com/mealmap/restaurantweek/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry, when enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// PostgreSQL is required
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis is optional; without it there is no caching and no event bus
	var redisClient *redis.Client
	if redisClient, err = redis.NewClient(&cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Typesense is optional; the in-memory index covers its absence
	var typesenseClient *typesense.Client
	if typesenseClient, err = typesense.NewClient(&cfg.Typesense); err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, falling back to in-memory spatial index")
		typesenseClient = nil
	}

	// Repositories
	baseRestaurantAdapter := database.NewRestaurantAdapter(pgClient)
	restaurantRepo := baseRestaurantAdapter

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		restaurantRepo = database.NewCachedRestaurantAdapter(baseRestaurantAdapter, cacheProvider, metrics)
		log.Info().Msg("restaurant repository wrapped with caching layer")
	}

	eventRepo := database.NewEventAdapter(pgClient)
	menuRepo := database.NewMenuAdapter(pgClient)

	// Spatial index
	var spatialIndex repositories.SpatialIndex
	if typesenseClient != nil {
		tsIndex := geoindex.NewTypesenseIndex(typesenseClient)
		if err := tsIndex.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Typesense schema")
		}
		spatialIndex = tsIndex
	} else {
		spatialIndex = geoindex.NewMemoryIndex()
	}

	// Billing provider: the gate fails closed when unset
	var billingProvider providers.BillingProvider
	switch cfg.Billing.Provider {
	case "http":
		billingProvider = billing.NewHTTPAdapter(cfg.Billing.URL, cfg.Billing.SecretKey)
		log.Info().Msg("HTTP billing provider configured")
	case "mock":
		billingProvider = billing.NewMockAdapter(true)
		log.Info().Msg("mock billing provider configured, all checks allowed")
	default:
		log.Warn().Str("provider", cfg.Billing.Provider).Msg("unknown billing provider, gated queries will be refused")
	}

	// Services
	syncService := services.NewIndexSyncService(restaurantRepo, spatialIndex)
	gate := services.NewEntitlementGate(billingProvider)
	geoQueryService := services.NewGeoQueryService(restaurantRepo, spatialIndex, gate, cacheProvider, metrics)
	restaurantService := services.NewRestaurantService(restaurantRepo, syncService, eventBus)
	eventService := services.NewEventService(eventRepo, menuRepo, restaurantRepo)
	ingestionService := services.NewIngestionService(restaurantRepo, eventRepo, menuRepo, syncService)

	var invalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
		} else {
			defer invalidation.Stop()
		}
	}

	// Warm the memory index from the database on startup
	if typesenseClient == nil {
		if synced, err := syncService.SyncAll(ctx); err != nil {
			log.Warn().Err(err).Msg("initial index sync failed")
		} else {
			log.Info().Int("synced", synced).Msg("in-memory spatial index warmed")
		}
	}

	// HTTP surface
	router := routes.NewRouter(
		handlers.NewRestaurantHandler(restaurantService),
		handlers.NewGeoQueryHandler(geoQueryService, cfg.Geo.DefaultPageLimit),
		handlers.NewEventHandler(eventService, ingestionService),
		handlers.NewAdminHandler(syncService, invalidation),
		metrics,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("event bus shutdown error")
		}
	}
}
