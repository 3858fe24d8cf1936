package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string // sqlite, postgres, mysql
	DatabasePath    string // for sqlite
	DatabaseURL     string // for postgres/mysql
	SessionDuration time.Duration
	SessionSecret   string
	CSRFSecret      string
	AppBaseURL      string

	// Email (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	EmailDebug   bool

	// OAuth (parent sign-in)
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./hanghub.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionDuration: 2 * time.Hour,
		SessionSecret:   getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		CSRFSecret:      getEnv("CSRF_SECRET", "dev-csrf-secret-change-me"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "HangHub"),
		EmailDebug:   getEnv("EMAIL_DEBUG", "") == "true",

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
