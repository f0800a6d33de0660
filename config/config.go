package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	DriverPostgres   = "postgres"
	DriverClickHouse = "clickhouse"
	DriverMemory     = "memory"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Geo     GeoConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	ClientIPHeader string
	TrustedProxies []string
	AllowedOrigin  string
	StrictStatus   bool
	ReadEnabled    bool
	MaxBodyBytes   int64
	StoreTimeout   time.Duration
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	ClickHouse  ClickHouseConfig
	RedisURL    string
	CacheTTL    time.Duration
}

type ClickHouseConfig struct {
	Host       string
	NativePort int
	Database   string
	Username   string
	Password   string
}

type GeoConfig struct {
	Enabled bool
	Source  string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           cast.ToString(coalesce("PORT", "8080")),
			GinMode:        cast.ToString(coalesce("GIN_MODE", "")),
			ClientIPHeader: cast.ToString(coalesce("CLIENT_IP_HEADER", "")),
			TrustedProxies: list("TRUSTED_PROXIES"),
			AllowedOrigin:  cast.ToString(coalesce("FE_ORIGIN", "http://localhost:4321")),
			StrictStatus:   boolean("STRICT_STATUS_CODES", false),
			ReadEnabled:    boolean("READ_ENABLED", true),
			MaxBodyBytes:   integer64("MAX_BODY_BYTES", 16<<10),
			StoreTimeout:   duration("STORE_TIMEOUT", 0),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(cast.ToString(coalesce("STORE_DRIVER", DriverPostgres))),
			DatabaseURL: cast.ToString(coalesce("DATABASE_URL", "")),
			ClickHouse: ClickHouseConfig{
				Host:       cast.ToString(coalesce("CLICKHOUSE_HOST", "")),
				NativePort: int(integer64("CLICKHOUSE_NATIVE_PORT", 9000)),
				Database:   cast.ToString(coalesce("CLICKHOUSE_DB_NAME", "default")),
				Username:   cast.ToString(coalesce("CLICKHOUSE_USERNAME", "default")),
				Password:   cast.ToString(coalesce("CLICKHOUSE_PASSWORD", "")),
			},
			RedisURL: cast.ToString(coalesce("REDIS_URL", "")),
			CacheTTL: duration("CACHE_TTL", 30*time.Second),
		},
		Geo: GeoConfig{
			Enabled: boolean("GEO_ENABLED", true),
			Source:  strings.ToLower(cast.ToString(coalesce("GEO_SOURCE", "netlify"))),
		},
		Logging: LoggingConfig{
			Level:  cast.ToString(coalesce("LOG_LEVEL", "info")),
			Format: cast.ToString(coalesce("LOG_FORMAT", "json")),
		},
		Metrics: MetricsConfig{
			Enabled: boolean("METRICS_ENABLED", true),
			Path:    cast.ToString(coalesce("METRICS_PATH", "/metrics")),
		},
	}
}

// Validate reports configuration the service must not start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
	case DriverClickHouse:
		ch := c.Store.ClickHouse
		if ch.Host == "" || ch.Database == "" {
			return errors.New("CLICKHOUSE_HOST or CLICKHOUSE_DB_NAME environment variables are not set")
		}
		if ch.Username == "" || ch.Password == "" {
			return errors.New("CLICKHOUSE_USERNAME or CLICKHOUSE_PASSWORD environment variables are not set")
		}
		if ch.NativePort <= 0 {
			return fmt.Errorf("invalid CLICKHOUSE_NATIVE_PORT: %d", ch.NativePort)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid MAX_BODY_BYTES: %d", c.Server.MaxBodyBytes)
	}
	return nil
}

func duration(key string, def time.Duration) time.Duration {
	raw := cast.ToString(coalesce(key, ""))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s, using default %s: %v", key, def, err)
		return def
	}
	return d
}

func boolean(key string, def bool) bool {
	raw := strings.TrimSpace(cast.ToString(coalesce(key, "")))
	if raw == "" {
		return def
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		log.Printf("invalid %s, using default %t: %v", key, def, err)
		return def
	}
	return v
}

func integer64(key string, def int64) int64 {
	raw := strings.TrimSpace(cast.ToString(coalesce(key, "")))
	if raw == "" {
		return def
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		log.Printf("invalid %s, using default %d: %v", key, def, err)
		return def
	}
	return v
}

// list splits a comma separated value. Unset or blank yields nil.
func list(key string) []string {
	var out []string
	for _, part := range strings.Split(cast.ToString(coalesce(key, "")), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func coalesce(key string, value interface{}) interface{} {
	val, exist := os.LookupEnv(key)
	if exist {
		return val
	}
	return value
}
