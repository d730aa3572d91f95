package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel string

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string

	// Quiz
	QuestionCount          int
	GenerateRequestsPerMin int

	// Redis (optional event fan-out)
	RedisURL string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		QuestionCount:          getEnvAsPositiveIntOrDefault("QUIZ_QUESTION_COUNT", 5),
		GenerateRequestsPerMin: getEnvAsPositiveIntOrDefault("GENERATE_REQUESTS_PER_MINUTE", 10),
		RedisURL:               os.Getenv("REDIS_URL"),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:8081"),
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsPositiveIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
