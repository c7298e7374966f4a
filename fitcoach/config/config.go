package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string

	// OpenAI-compatible chat completion endpoint.
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	ReasoningModel string
	TitleModel     string

	// Wall-clock ceiling for one model invocation, including tool steps.
	StreamTimeout time.Duration

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string

	EntitlementsFile string
}

func LoadConfig() Config {
	// Missing .env is fine, system environment still applies.
	_ = godotenv.Load()

	return Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8000"),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", ""),
		DBName:     getEnv("DB_NAME", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		ReasoningModel: getEnv("REASONING_MODEL", "gpt-3.5-turbo"),
		TitleModel:     getEnv("TITLE_MODEL", "gpt-3.5-turbo"),

		StreamTimeout: getEnvDuration("STREAM_TIMEOUT_SECONDS", 60*time.Second),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "fitcoach-uploads"),

		EntitlementsFile: getEnv("ENTITLEMENTS_FILE", ""),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
