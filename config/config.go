package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Enrichment sources selectable with ENRICH_SOURCE.
const (
	EnrichRemote  = "remote"
	EnrichBrowser = "browser"
)

// Config holds all process configuration loaded from environment variables.
// Business rules live in models.Settings, not here.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SettingsDBPath string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ExistingCacheTTL time.Duration

	KafkaBroker  string
	OutcomeTopic string

	RemoteBaseURL string
	RemoteAPIKey  string
	RemoteTimeout time.Duration
	MaxRetries    int

	EnrichSource   string
	MaxConcurrency int
	RateLimitMs    int
	ChromeBin      string
	ProductBaseURL string

	HTTPAddr      string
	ReportCSVPath string
	LogLevel      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "lister"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "lister123"),
		PostgresDB:       getEnv("POSTGRES_DB", "lister_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SettingsDBPath: getEnv("SETTINGS_DB_PATH", "./data/settings.db"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		ExistingCacheTTL: getEnvDuration("EXISTING_CACHE_TTL", 6*time.Hour),

		KafkaBroker:  getEnv("KAFKA_BROKER", ""),
		OutcomeTopic: getEnv("OUTCOME_TOPIC", "listing.outcomes"),

		RemoteBaseURL: getEnv("REMOTE_BASE_URL", "http://localhost:8090"),
		RemoteAPIKey:  getEnv("REMOTE_API_KEY", ""),
		RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", 30*time.Second),
		MaxRetries:    getEnvInt("MAX_RETRIES", 3),

		EnrichSource:   strings.ToLower(getEnv("ENRICH_SOURCE", EnrichRemote)),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		ProductBaseURL: getEnv("PRODUCT_BASE_URL", "https://www.amazon.co.jp/dp/"),

		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		ReportCSVPath: getEnv("REPORT_CSV_PATH", "./output/outcomes.csv"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
