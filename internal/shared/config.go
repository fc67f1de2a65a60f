package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	LocalSource string // file|mysql
	LocalDBPath string // file path or http(s) URL
	MySQLDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	PlacesBase string
	PlacesKey  string
	PlacesRPS  int

	SearchRadius   int
	SearchKeyword  string
	EnrichWorkers  int
	EnrichTimeout  time.Duration
	DefaultImage   string
	AllowedOrigins []string
	SubmitPerMin   int

	SeedWorkers    int
	SeedBatch      int
	SnapshotBounds string // "swLat,swLng,neLat,neLng"
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		LocalSource: env("LOCAL_SOURCE", "file"),
		LocalDBPath: env("LOCAL_DB_PATH", "data/restaurants.json"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/restaurants?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		PlacesBase: env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
		PlacesKey:  env("PLACES_API_KEY", ""),
		PlacesRPS:  atoi("PLACES_RPS", 10),

		SearchRadius:   atoi("SEARCH_RADIUS_METERS", 500),
		SearchKeyword:  env("SEARCH_KEYWORD", "restaurant"),
		EnrichWorkers:  atoi("ENRICH_WORKERS", 8),
		EnrichTimeout:  time.Duration(atoi("ENRICH_TIMEOUT_SECONDS", 20)) * time.Second,
		DefaultImage:   env("DEFAULT_IMAGE", "/assets/img/default/default_geocode-1x.png"),
		AllowedOrigins: splitList(env("ALLOWED_ORIGINS", "*")),
		SubmitPerMin:   atoi("SUBMIT_PER_MINUTE", 30),

		SeedWorkers:    atoi("SEED_WORKERS", 4),
		SeedBatch:      atoi("SEED_BATCH", 100),
		SnapshotBounds: env("SNAPSHOT_BOUNDS", ""),
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBounds reads "swLat,swLng,neLat,neLng".
func ParseBounds(v string) (domain.Bounds, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return domain.Bounds{}, fmt.Errorf("bounds %q: want swLat,swLng,neLat,neLng", v)
	}
	var f [4]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("bounds %q: %w", v, err)
		}
		f[i] = x
	}
	return domain.Bounds{
		SW: domain.Coords{Lat: f[0], Lng: f[1]},
		NE: domain.Coords{Lat: f[2], Lng: f[3]},
	}, nil
}
