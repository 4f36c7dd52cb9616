package config

import (
	"os"
	"strconv"
	"time"
)

// AIConfig holds all oracle-related configuration
type AIConfig struct {
	APIKey  string        `json:"-"` // Never serialize
	BaseURL string        `json:"baseUrl"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("ORACLE_API_KEY"),
		BaseURL: getEnvOrDefault("ORACLE_BASE_URL", "https://ai.hackclub.com/proxy/v1/chat/completions"),
		Model:   getEnvOrDefault("ORACLE_MODEL", "qwen/qwen3-32b"),
		// Hard cap on a single completion call
		Timeout: time.Duration(getEnvIntOrDefault("ORACLE_TIMEOUT_MS", 20000)) * time.Millisecond,
	}
}

// IsEnabled returns true if the oracle is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
