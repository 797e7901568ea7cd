package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string

	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration
	GeminiAPIKey  string
	GeminiModel   string

	DocExtractURL     string
	DocExtractTimeout time.Duration
	NormalizeMode     string

	UploadDir         string
	UploadS3Bucket    string
	UploadS3Region    string
	UploadS3Endpoint  string
	UploadS3AccessKey string
	UploadS3SecretKey string

	DatabaseURL string
	NatsURL     string
	NatsToken   string
}

// Load reads the environment once. Values from a .env file in the working
// directory fill in anything not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	return Config{
		Port:     envInt("CALLIFY_PORT", 8000),
		LogLevel: envStr("LOG_LEVEL", "info"),

		LLMProvider:   envStr("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIModel:   envStr("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITimeout: envDuration("OPENAI_TIMEOUT", 120*time.Second),
		GeminiAPIKey:  envStr("GEMINI_API_KEY", ""),
		GeminiModel:   envStr("GEMINI_MODEL", "gemini-2.0-flash"),

		DocExtractURL:     envStr("DOC_EXTRACT_API_URL", ""),
		DocExtractTimeout: envDuration("DOC_EXTRACT_TIMEOUT", 30*time.Second),
		NormalizeMode:     envStr("NORMALIZE_MODE", "legacy"),

		UploadDir:         envStr("UPLOAD_DIR", "uploads"),
		UploadS3Bucket:    envStr("UPLOAD_S3_BUCKET", ""),
		UploadS3Region:    envStr("UPLOAD_S3_REGION", "auto"),
		UploadS3Endpoint:  envStr("UPLOAD_S3_ENDPOINT", ""),
		UploadS3AccessKey: envStr("UPLOAD_S3_ACCESS_KEY", ""),
		UploadS3SecretKey: envStr("UPLOAD_S3_SECRET_KEY", ""),

		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go durations ("45s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
