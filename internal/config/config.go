package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreDriver string

const (
	DriverMemory   StoreDriver = "memory"
	DriverSQLite   StoreDriver = "sqlite"
	DriverPostgres StoreDriver = "postgres"
	DriverRedis    StoreDriver = "redis"
)

type Config struct {
	Env string

	StoreDriver    StoreDriver
	StoreKeyPrefix string
	SQLitePath     string
	DBURL          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	JWTSecret  string
	SessionTTL time.Duration

	ChatReplyDelay time.Duration
	ChatReplyText  string

	OTLPEndpoint string
	SeedDefaults bool
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	return Config{
		Env: getEnv("APP_ENV", "dev"),

		StoreDriver:    StoreDriver(strings.ToLower(getEnv("STORE_DRIVER", string(DriverSQLite)))),
		StoreKeyPrefix: getEnv("STORE_KEY_PREFIX", "hh:"),
		SQLitePath:     getEnv("SQLITE_PATH", "file:homehub.db"),
		DBURL:          buildDBURL(),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),

		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 720)) * time.Minute,

		ChatReplyDelay: time.Duration(getEnvInt("CHAT_REPLY_DELAY_MS", 900)) * time.Millisecond,
		ChatReplyText:  getEnv("CHAT_REPLY_TEXT", "¡Entendido! Nos vemos el día del servicio."),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SeedDefaults: getEnvBool("SEED_DEFAULTS", true),
	}
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.Env == "prod" && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("JWT_SECRET must be set in prod")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}

	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "homehub")
	pass := getEnv("DB_PASSWORD", "homehub")
	name := getEnv("DB_NAME", "homehub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using fallback", "key", key, "value", v, "fallback", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid bool env var, using fallback", "key", key, "value", v, "fallback", fallback)
			return fallback
		}

		return b
	}
	return fallback
}
