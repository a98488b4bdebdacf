package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Store selects the resource store backend: "postgres" or "memory".
	Store       string
	DBURL       string
	DBMaxConns  int32
	AutoMigrate bool

	JWTSecret           string
	JWTAlgorithm        string
	JWTAccessTTLMinutes int

	OTELEndpoint    string
	OTELSampleRatio float64
	ServiceName     string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside dev and test")

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:      getEnv("APP_ENV", "dev"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Store:       strings.ToLower(getEnv("STORE", "postgres")),
		DBURL:       buildDBURL(),
		DBMaxConns:  int32(getEnvInt("DB_MAX_CONNS", 10)),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTAlgorithm:        strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),

		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_RATIO", 1),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "postboard-api"),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsLocal() {
			return Config{}, ErrMissingJWTSecret
		}
		cfg.JWTSecret = "dev-insecure-secret"
	}

	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return Config{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}

	if cfg.JWTAccessTTLMinutes <= 0 {
		return Config{}, fmt.Errorf("JWT_ACCESS_TTL_MINUTES must be positive, got %d", cfg.JWTAccessTTLMinutes)
	}

	return cfg, nil
}

func (c Config) IsLocal() bool {
	return c.Env == "dev" || c.Env == "test"
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postboard")
	pass := getEnv("DB_PASSWORD", "postboard")
	name := getEnv("DB_NAME", "postboard")
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
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return num
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return b
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
