package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	// OpenAI-compatible model API
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAITextModel   string
	OpenAIVisionModel string
	OpenAIChatModel   string
	Temperature       float32
	MaxTokens         int

	UpstreamTimeout time.Duration
	ChatTimeout     time.Duration

	// S3 archive of uploaded originals, disabled when S3Endpoint is empty
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Upload and prompt limits
	MaxFileSize    int64
	MaxPromptChars int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3001"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", getEnv("OPENAI_KEY", "")),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITextModel:   getEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
		OpenAIChatModel:   getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		Temperature:       getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
		MaxTokens:         getEnvAsInt("OPENAI_MAX_TOKENS", 4096),
		UpstreamTimeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", 90*time.Second),
		ChatTimeout:       getEnvAsDuration("CHAT_TIMEOUT", 3*time.Minute),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		MaxFileSize:       getEnvAsInt64("MAX_FILE_SIZE", 20<<20),
		MaxPromptChars:    getEnvAsInt("MAX_PROMPT_CHARS", 12000),
	}

	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return nil, fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}

	return cfg, nil
}

// ArchiveEnabled reports whether uploaded originals should be kept in S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Endpoint != ""
}

// HasCredentials reports whether model calls can be made at all.
func (c *Config) HasCredentials() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
