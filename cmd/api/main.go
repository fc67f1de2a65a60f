package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "restaurant_finder/internal/adapters/http_server"
	"restaurant_finder/internal/adapters/localdb"
	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/adapters/places"
	"restaurant_finder/internal/adapters/realtime"
	redisad "restaurant_finder/internal/adapters/redis"
	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/shared"
	"restaurant_finder/internal/storage/memory"
	mysqlrepo "restaurant_finder/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr)

	// deps
	local, closeLocal := localSource(cfg)
	defer closeLocal()

	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	var provider domain.PlacesProvider = client
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cache.Close()
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := cache.Ping(pctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, places cache disabled")
		} else {
			provider = app.NewCachedPlaces(client, cache, cfg.CacheTTL)
			log.Info().Str("addr", cfg.RedisAddr).Msg("places cache enabled")
		}
		cancel()
	}

	hub := realtime.NewHub(log.Logger, allowOrigin(cfg.AllowedOrigins))
	go hub.Run(ctx)

	repo := memory.New(nil)
	cycles := app.NewReconcileService(repo, local, provider, hub, app.ReconcileConfig{
		Radius:        cfg.SearchRadius,
		Keyword:       cfg.SearchKeyword,
		Workers:       int64(cfg.EnrichWorkers),
		EnrichTimeout: cfg.EnrichTimeout,
	})
	dir := app.NewDirectoryService(repo, provider, hub, cfg.SearchRadius, cfg.DefaultImage)

	// http
	srv := server.New(server.Options{AllowedOrigins: cfg.AllowedOrigins, SubmitPerMin: cfg.SubmitPerMin})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Dir: dir, Cycles: cycles, Hub: hub})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	cycles.Close()
	repo.Reset()
}

// localSource picks the seed store named by LOCAL_SOURCE.
func localSource(cfg shared.Config) (domain.LocalSource, func()) {
	if cfg.LocalSource != "mysql" {
		log.Info().Str("location", cfg.LocalDBPath).Msg("local source: json")
		return localdb.New(cfg.LocalDBPath), func() {}
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("local source: mysql")
	return mysqlrepo.New(db), func() { _ = db.Close() }
}

func allowOrigin(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		if o == "" {
			return true
		}
		for _, a := range origins {
			if a == "*" || a == o {
				return true
			}
		}
		return false
	}
}
