package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration so main stays lean. Values come
// from environment variables with development defaults in code.
type Config struct {
	Addr string

	// Registry (document downloads, parcel pages).
	RegistryBaseURL string
	RegistryTimeout time.Duration

	// Spatial backends.
	PrimaryWFSBaseURL  string
	FallbackWFSBaseURL string
	SpatialTimeout     time.Duration
	MaxFeatures        int
	RegionConcurrency  int

	// Reauthentication involves an external multi-step login and can
	// legitimately take minutes.
	ReauthTimeout time.Duration

	// Batch downloads.
	BatchConcurrency int

	// Stores. Empty DSN/URL means the backing store is not configured and the
	// in-memory implementation is used.
	PostgresDSN string
	Redis       RedisConfig

	// Geocoding.
	GeocodeBaseURL string
	GeocodeTTL     time.Duration
}

// RedisConfig holds connection settings for the shared redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr: envString("SIGEFGATE_ADDR", ":9090"),

		RegistryBaseURL: envString("SIGEFGATE_REGISTRY_URL", "https://sigef.incra.gov.br"),
		RegistryTimeout: envDuration("SIGEFGATE_REGISTRY_TIMEOUT", 60*time.Second),

		PrimaryWFSBaseURL:  envString("SIGEFGATE_PRIMARY_WFS_URL", "https://acervofundiario.incra.gov.br/i3geo/ogc.php"),
		FallbackWFSBaseURL: envString("SIGEFGATE_FALLBACK_WFS_URL", "https://geoonecloud.com/geoserver/GeoINCRA/wfs"),
		SpatialTimeout:     envDuration("SIGEFGATE_SPATIAL_TIMEOUT", 30*time.Second),
		MaxFeatures:        envInt("SIGEFGATE_MAX_FEATURES", 10000),
		RegionConcurrency:  envInt("SIGEFGATE_REGION_CONCURRENCY", 4),

		ReauthTimeout: envDuration("SIGEFGATE_REAUTH_TIMEOUT", 3*time.Minute),

		BatchConcurrency: envInt("SIGEFGATE_BATCH_CONCURRENCY", 3),

		PostgresDSN: os.Getenv("SIGEFGATE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("SIGEFGATE_REDIS_URL"),
			PoolSize:     envInt("SIGEFGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SIGEFGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("SIGEFGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SIGEFGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SIGEFGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},

		GeocodeBaseURL: envString("SIGEFGATE_GEOCODE_URL", "https://servicodados.ibge.gov.br/api/v1/localidades"),
		GeocodeTTL:     envDuration("SIGEFGATE_GEOCODE_TTL", 24*time.Hour),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
