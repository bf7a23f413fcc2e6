package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	GeminiAPIKey string
	DatabaseURL  string
	HTTPPort     string
	LogLevel     string
	LogFormat    string
	JWTSecret    string

	DefaultLLMModel    string
	AllowedLLMModels   []string
	LLMTimeout         time.Duration
	TranslationTimeout time.Duration
	ResponseTimeout    time.Duration
	HistoryLimit       int
	UploadDir          string

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	TranslationCacheTTL time.Duration
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:  getEnv("DATABASE_URL", "portal.db"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		DefaultLLMModel:    getEnv("DEFAULT_LLM_MODEL", "gemini-1.5-flash-latest"),
		AllowedLLMModels:   getEnvAsList("ALLOWED_LLM_MODELS", []string{"gemini-1.5-flash-latest", "gemini-1.5-pro-latest", "gemini-2.0-flash"}),
		LLMTimeout:         time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		TranslationTimeout: time.Duration(getEnvAsInt("TRANSLATION_TIMEOUT_SECONDS", 20)) * time.Second,
		ResponseTimeout:    time.Duration(getEnvAsInt("RESPONSE_TIMEOUT_SECONDS", 80)) * time.Second,
		HistoryLimit:       getEnvAsInt("HISTORY_LIMIT", 10),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),

		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		TranslationCacheTTL: time.Duration(getEnvAsInt("TRANSLATION_CACHE_TTL_SECONDS", 86400)) * time.Second,
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
