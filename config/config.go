package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	StoreDriver string
	DatabaseURL string
	ServerPort  int
	LogLevel    slog.Level

	DispatchInterval    time.Duration
	PriorityBoostTTL    time.Duration
	DefaultMatchMinutes float64
	DurationWindow      int
	BottleneckMultiple  float64

	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: .env может отсутствовать
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function, so tests do not
// have to touch the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		StoreDriver:       strings.ToLower(get("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:       get("DATABASE_URL", ""),
		R2AccountID:       get("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: get("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      get("R2_BUCKET_NAME", ""),
		R2PublicBaseURL:   get("R2_PUBLIC_BASE_URL", ""),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}

	port, err := strconv.Atoi(get("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	if cfg.DispatchInterval, err = positiveDuration(get("DISPATCH_INTERVAL", "5s"), "DISPATCH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.PriorityBoostTTL, err = positiveDuration(get("PRIORITY_BOOST_TTL", "30m"), "PRIORITY_BOOST_TTL"); err != nil {
		return nil, err
	}
	if cfg.DefaultMatchMinutes, err = positiveFloat(get("DEFAULT_MATCH_MINUTES", "15"), "DEFAULT_MATCH_MINUTES"); err != nil {
		return nil, err
	}
	if cfg.BottleneckMultiple, err = positiveFloat(get("BOTTLENECK_MULTIPLE", "1.5"), "BOTTLENECK_MULTIPLE"); err != nil {
		return nil, err
	}
	if cfg.BottleneckMultiple <= 1 {
		return nil, fmt.Errorf("BOTTLENECK_MULTIPLE must be greater than 1, got %v", cfg.BottleneckMultiple)
	}

	window, err := strconv.Atoi(get("DURATION_WINDOW", "20"))
	if err != nil || window <= 0 {
		return nil, fmt.Errorf("DURATION_WINDOW must be a positive integer, got %q", getenv("DURATION_WINDOW"))
	}
	cfg.DurationWindow = window

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func positiveDuration(raw, name string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return d, nil
}

func positiveFloat(raw, name string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", name, f)
	}
	return f, nil
}
