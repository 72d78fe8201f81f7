package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	StorageLocal = "local"
	StorageR2    = "r2"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Twitter struct {
	APIKey      string
	APISecret   string
	CallbackURL string
	APIURL      string
	UploadURL   string
	// requests per second allowed towards the remote API
	RateLimit float64
}

type OpenAI struct {
	APIKey          string
	Model           string
	BaseURL         string
	AzureEndpoint   string
	AzureDeployment string
}

type Sentry struct {
	DSN         string
	Environment string
}

type Config struct {
	Twitter           Twitter
	DatabaseDriver    string
	DatabaseURL       string
	RedisURI          string
	StorageBackend    string
	MediaDir          string
	R2                R2
	SecretKey         string
	CookieName        string
	OperatorPassword  string
	FrontendURL       string
	ListenAddr        string
	DeliveryInterval  time.Duration
	ClaimTimeout      time.Duration
	VerifyCredentials bool
	ScheduleTimezone  string
	OpenAI            OpenAI
	LogLevel          string
	Sentry            Sentry
}

func LoadConfig() *Config {
	return &Config{
		Twitter: Twitter{
			APIKey:      getEnv("TWITTER_API_KEY", ""),
			APISecret:   getEnv("TWITTER_API_SECRET", ""),
			CallbackURL: getEnv("TWITTER_CALLBACK_URL", "http://localhost:3000/auth/twitter/callback"),
			APIURL:      getEnv("TWITTER_API_URL", "https://api.twitter.com"),
			UploadURL:   getEnv("TWITTER_UPLOAD_URL", "https://upload.twitter.com"),
			RateLimit:   getEnvFloat("TWITTER_RATE_LIMIT", 1),
		},
		DatabaseDriver: getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseURL:    getEnv("DATABASE_URL", "sqlite.db"),
		RedisURI:       getEnv("REDIS_URI", ""),
		StorageBackend: getEnv("STORAGE_BACKEND", StorageLocal),
		MediaDir:       getEnv("MEDIA_DIR", "public"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", "scheduler_session"),
		OperatorPassword:  getEnv("OPERATOR_PASSWORD", ""),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		ListenAddr:        getEnv("LISTEN_ADDR", ":3000"),
		DeliveryInterval:  getEnvDuration("DELIVERY_INTERVAL", 5*time.Minute),
		ClaimTimeout:      getEnvDuration("CLAIM_TIMEOUT", 15*time.Minute),
		VerifyCredentials: getEnvBool("VERIFY_CREDENTIALS", true),
		ScheduleTimezone:  getEnv("SCHEDULE_TIMEZONE", "UTC"),
		OpenAI: OpenAI{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			Model:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:         getEnv("OPENAI_BASE_URL", ""),
			AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Sentry: Sentry{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", "production"),
		},
	}
}

// Validate reports the first setting that keeps the process from starting.
func (c *Config) Validate() error {
	if c.Twitter.APIKey == "" || c.Twitter.APISecret == "" {
		return errors.New("TWITTER_API_KEY and TWITTER_API_SECRET are required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.StorageBackend {
	case StorageLocal:
	case StorageR2:
		if c.R2.AccountID == "" || c.R2.BucketName == "" {
			return errors.New("R2_ACCOUNT_ID and R2_BUCKET_NAME are required for the r2 storage backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.DeliveryInterval <= 0 {
		return errors.New("DELIVERY_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.ScheduleTimezone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the zone used to lay out batch schedules.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}
