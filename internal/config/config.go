package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	LogLevel    string
	LogFormat   string

	// PresenceTickInterval is how often each session re-pushes its presence
	// snapshot as self-healing against missed broadcasts.
	PresenceTickInterval time.Duration

	// PresenceSendToAll switches the ticker from self-push (default) to group
	// broadcast, trading traffic for faster convergence.
	PresenceSendToAll bool

	// AllowAnonymous enables the name-based identity path on the websocket
	// endpoint alongside JWT authentication.
	AllowAnonymous bool

	// Websocket admission caps. MaxWSConnections of zero disables limiting.
	MaxWSConnections int64
	MaxWSPerIP       int
	WSDialRate       float64
	WSDialBurst      int
}

func Load() (*Config, error) {
	// Best-effort: a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		PresenceSendToAll: getEnvBool("PRESENCE_SEND_TO_ALL", false),
		AllowAnonymous:    getEnvBool("ALLOW_ANONYMOUS", true),
		MaxWSConnections:  int64(getEnvInt("MAX_WS_CONNECTIONS", 10000)),
		MaxWSPerIP:        getEnvInt("MAX_WS_PER_IP", 100),
		WSDialRate:        getEnvFloat("WS_DIAL_RATE", 10),
		WSDialBurst:       getEnvInt("WS_DIAL_BURST", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	tick, err := time.ParseDuration(getEnv("PRESENCE_TICK_INTERVAL", "2s"))
	if err != nil {
		return nil, fmt.Errorf("PRESENCE_TICK_INTERVAL must be a valid duration: %w", err)
	}
	if tick < 100*time.Millisecond {
		return nil, fmt.Errorf("PRESENCE_TICK_INTERVAL must be at least 100ms, got %s", tick)
	}
	cfg.PresenceTickInterval = tick

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
