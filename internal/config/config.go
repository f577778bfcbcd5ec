package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Port        string
	Environment string

	AdminAPIToken string

	// SiteBaseURL is the public club site; deep links back to the
	// authoritative record are built from it.
	SiteBaseURL string

	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	DLQMaxRetries   int
	DLQBatchSize    int
	DLQPollInterval time.Duration
	DLQBaseBackoff  time.Duration
	DLQMaxBackoff   time.Duration

	ResyncDelay      time.Duration
	ResyncBatchLimit int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppName:     getenv("APP_SERVICE", "ttg-clca-bridge"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Port:        getenv("PORT", "8082"),
		Environment: getenv("ENVIRONMENT", "development"),

		AdminAPIToken: strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),

		SiteBaseURL: strings.TrimRight(getenv("SITE_BASE_URL", "https://ttg.example.org"), "/"),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "ttg"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 3600),

		DLQMaxRetries:   getenvInt("DLQ_MAX_RETRIES", 5),
		DLQBatchSize:    getenvInt("DLQ_BATCH_SIZE", 10),
		DLQPollInterval: time.Second * time.Duration(getenvInt("DLQ_POLL_INTERVAL_SECONDS", 60)),
		DLQBaseBackoff:  time.Second * time.Duration(getenvInt("DLQ_BASE_BACKOFF_SECONDS", 60)),
		DLQMaxBackoff:   time.Second * time.Duration(getenvInt("DLQ_MAX_BACKOFF_SECONDS", 960)),

		ResyncDelay:      time.Millisecond * time.Duration(getenvInt("RESYNC_DELAY_MS", 250)),
		ResyncBatchLimit: getenvInt("RESYNC_BATCH_LIMIT", 500),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
