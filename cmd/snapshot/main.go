package main

import (
	"context"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/adapters/localdb"
	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/adapters/places"
	"restaurant_finder/internal/app"
	"restaurant_finder/internal/shared"
	"restaurant_finder/internal/storage/memory"
)

// snapshot runs one load cycle for SNAPSHOT_BOUNDS, waits for enrichment and
// prints the directory as JSON.
func main() {
	ctx := context.Background()
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "snapshot").Logger()

	bounds, err := shared.ParseBounds(cfg.SnapshotBounds)
	if err != nil {
		log.Fatal().Err(err).Msg("SNAPSHOT_BOUNDS is required")
	}
	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}

	repo := memory.New(nil)
	cycles := app.NewReconcileService(repo, localdb.New(cfg.LocalDBPath), client, nil, app.ReconcileConfig{
		Radius:        cfg.SearchRadius,
		Keyword:       cfg.SearchKeyword,
		Workers:       int64(cfg.EnrichWorkers),
		EnrichTimeout: cfg.EnrichTimeout,
	})
	rep := cycles.Load(ctx, bounds, nil)
	cycles.Wait()
	cycles.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"report": rep, "restaurants": repo.All()}); err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
}
