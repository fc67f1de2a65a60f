package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restaurant_finder/internal/adapters/localdb"
	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/shared"
	mysqlrepo "restaurant_finder/internal/storage/mysql"
)

// ingestor copies the JSON restaurant database into the MySQL seed tables.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("from", cfg.LocalDBPath).
		Int("workers", cfg.SeedWorkers).
		Int("batch", cfg.SeedBatch).
		Msg("ingestor starting")

	payloads, err := localdb.New(cfg.LocalDBPath).FetchRestaurants(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("read local database failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	src := mysqlrepo.New(db)
	batch := max(cfg.SeedBatch, 1)
	sem := semaphore.NewWeighted(int64(max(cfg.SeedWorkers, 1)))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for start := 0; start < len(payloads); start += batch {
		chunk := payloads[start:min(start+batch, len(payloads))]

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			defer sem.Release(1)

			if err := src.Seed(ctx, chunk); err != nil {
				log.Warn().Int("offset", offset).Int("size", len(chunk)).Err(err).Msg("seed batch failed")
				mu.Lock()
				failed += len(chunk)
				mu.Unlock()
				return
			}
			log.Info().Int("offset", offset).Int("size", len(chunk)).Msg("seed batch ok")
		}(start)
	}

	wg.Wait()
	log.Info().Int("total", len(payloads)).Int("failed", failed).Msg("ingestion completed")
}
