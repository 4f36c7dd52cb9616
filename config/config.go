package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	AMQPURL        string
	HTTPPort       string
	LogLevel       string
	LogFormat      string
	GameConfigPath string
	AllowedOrigins string

	SessionIdleTimeout time.Duration
	ReapInterval       time.Duration
	ShutdownTimeout    time.Duration
}

// Load reads the environment, after merging an optional .env file
func Load() *Config {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	return &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "neuralflux"),
		RedisAddr:      strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
		AMQPURL:        getEnv("AMQP_URL", ""),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		GameConfigPath: getEnv("GAME_CONFIG_PATH", ""),
		AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 10*time.Minute),
		ReapInterval:       getEnvAsDuration("SESSION_REAP_INTERVAL", time.Minute),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultVal
}
