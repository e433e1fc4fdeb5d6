package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	CatalogBase string
	CatalogKey  string
	PlacesBase  string
	PlacesKey   string
	UpstreamRPS int

	Workers            int
	CacheTTL           time.Duration
	SnapshotTTL        time.Duration
	SessionIdle        time.Duration
	GeolocationTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/staymap?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		CatalogBase: env("CATALOG_BASE_URL", "http://localhost:9000/v1"),
		CatalogKey:  env("CATALOG_API_KEY", ""),
		PlacesBase:  env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
		PlacesKey:   env("PLACES_API_KEY", ""),
		UpstreamRPS: atoi("UPSTREAM_RPS", 5),

		Workers:            atoi("INGEST_WORKERS", 8),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SnapshotTTL:        time.Duration(atoi("SNAPSHOT_TTL_SECONDS", 60)) * time.Second,
		SessionIdle:        time.Duration(atoi("SESSION_IDLE_MINUTES", 30)) * time.Minute,
		GeolocationTimeout: time.Duration(atoi("GEOLOCATION_TIMEOUT_MS", 3000)) * time.Millisecond,
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	return c
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric config value")
	}
	return def
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
