package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	ChatProviderAnthropic = "anthropic"
	ChatProviderOpenAI    = "openai"
	ChatProviderGemini    = "gemini"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	RapidAPI RapidAPIConfig
	Chat     ChatConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port          string
	AllowedOrigin string
}

type StoreConfig struct {
	Backend  string
	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RapidAPIConfig struct {
	APIKey  string
	Host    string
	BaseURL string
}

type ChatConfig struct {
	Provider         string
	Model            string
	MaxTokens        int
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	GeminiAPIKey     string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	rapidAPIHost := getEnv("RAPIDAPI_HOST", "linkedin-data-api.p.rapidapi.com")

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8787"),
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("CACHE_BACKEND", StoreBackendRedis)),
			Redis: RedisConfig{
				Host:      getEnv("REDIS_HOST", "localhost"),
				Port:      getEnvInt("REDIS_PORT", 6379),
				Password:  getEnv("REDIS_PASSWORD", ""),
				DB:        getEnvInt("REDIS_DB", 0),
				KeyPrefix: getEnv("REDIS_KEY_PREFIX", "linkedin:profile:"),
			},
			Postgres: PostgresConfig{
				Host:     getEnv("POSTGRES_HOST", "localhost"),
				Port:     getEnvInt("POSTGRES_PORT", 5432),
				User:     getEnv("POSTGRES_USER", "postgres"),
				Password: getEnv("POSTGRES_PASSWORD", ""),
				Database: getEnv("POSTGRES_DB", "linkedin"),
			},
		},
		RapidAPI: RapidAPIConfig{
			APIKey:  getEnv("RAPIDAPI_KEY", ""),
			Host:    rapidAPIHost,
			BaseURL: getEnv("RAPIDAPI_BASE_URL", "https://"+rapidAPIHost),
		},
		Chat: ChatConfig{
			Provider:         strings.ToLower(getEnv("CHAT_PROVIDER", ChatProviderAnthropic)),
			Model:            getEnv("CHAT_MODEL", ""),
			MaxTokens:        getEnvInt("CHAT_MAX_TOKENS", 4000),
			AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks structural settings only. Credentials are resolved per request so a
// missing key surfaces as a server-misconfiguration response instead of a boot failure.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	switch c.Store.Backend {
	case StoreBackendRedis, StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.Store.Backend)
	}
	switch c.Chat.Provider {
	case ChatProviderAnthropic, ChatProviderOpenAI, ChatProviderGemini:
	default:
		return fmt.Errorf("unsupported CHAT_PROVIDER %q", c.Chat.Provider)
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("CHAT_MAX_TOKENS must be positive")
	}
	if c.Chat.MaxTokens > math.MaxInt32 {
		return fmt.Errorf("CHAT_MAX_TOKENS must not exceed %d", math.MaxInt32)
	}
	if c.RapidAPI.BaseURL == "" {
		return fmt.Errorf("RAPIDAPI_BASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
