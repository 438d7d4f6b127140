package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/adapters/database"
	"github.com/mealmap/restaurantweek/internal/adapters/geoindex"
	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/postgres"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/typesense"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
	"github.com/mealmap/restaurantweek/pkg/config"
)

// Bulk resync utility: rebuilds the Typesense spatial index from the
// restaurant records. Safe to run while the API serves traffic.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("restaurant-week-indexer", cfg.Server.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Typesense client")
	}

	index := geoindex.NewTypesenseIndex(typesenseClient)
	if err := index.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Typesense schema")
	}

	restaurantRepo := database.NewRestaurantAdapter(pgClient)
	syncService := services.NewIndexSyncService(restaurantRepo, index)

	start := time.Now()
	synced, err := syncService.SyncAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("resync failed")
	}

	log.Info().Int("synced", synced).Dur("took", time.Since(start)).Msg("resync finished")
}
