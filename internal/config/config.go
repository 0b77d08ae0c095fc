package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBPort            string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	AppPort    string
	AppEnv     string
	JWTSecret  string
	CORSOrigin string
	// Shared secret for trusted internal callers (X-Service-Auth).
	InternalKey string

	RabbitMQURL    string
	EventsExchange string

	// Duplicate-submission guard
	DuplicateWindow    time.Duration
	DuplicateCacheSize int
}

var ErrMissingDBHost = errors.New("DB_HOST is not set")

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      os.Getenv("DB_PORT"),
		AppPort:     getEnv("APP_PORT", "8080"),
		AppEnv:      os.Getenv("APP_ENV"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "http://localhost:3000"),
		InternalKey: os.Getenv("INTERNAL_SECRET_KEY"),

		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "restaurant.events"),
	}

	if cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}

	var err error
	if cfg.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DuplicateWindow, err = getDuration("DUPLICATE_WINDOW", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.DuplicateCacheSize, err = getInt("DUPLICATE_CACHE_SIZE", 10000); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfig is Load for process entrypoints: any error is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
