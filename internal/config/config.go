package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PresignExpiry time.Duration
}

// RedisConfig holds the availability cache connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// WizzConfig holds the settings for the AYCF availability endpoint.
// SessionUUID, XSRFToken and LaravelSession come from a logged-in browser session.
type WizzConfig struct {
	BaseURL        string
	Language       string
	SessionUUID    string
	XSRFToken      string
	LaravelSession string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RatePerMinute  int
	Burst          int
}

// WorkerConfig controls the background search runner.
type WorkerConfig struct {
	Enabled         bool
	PollInterval    time.Duration
	Concurrency     int
	RefreshInterval time.Duration
	// LeaseTimeout is how long a running job survives without a heartbeat
	// before another worker reclaims it.
	LeaseTimeout time.Duration
}

// RoutesConfig points at the route network inputs.
type RoutesConfig struct {
	SnapshotPath    string
	CatalogPath     string
	AliasesPath     string
	KnownRoutesPath string
}

// SMTPConfig holds outgoing mail settings. An empty Host disables mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds the whole SMTP exchange.
	Timeout time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	LogLevel string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	Wizz     WizzConfig
	Worker   WorkerConfig
	Routes   RoutesConfig
	SMTP     SMTPConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", "aycf-reports"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PresignExpiry: getEnvDuration("MINIO_PRESIGN_EXPIRY", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 30*time.Minute),
		},
		Wizz: WizzConfig{
			BaseURL:        getEnv("WIZZ_BASE_URL", "https://multipass.wizzair.com"),
			Language:       getEnv("WIZZ_LANGUAGE", "de"),
			SessionUUID:    getEnv("WIZZ_SESSION_UUID", ""),
			XSRFToken:      getEnv("WIZZ_XSRF_TOKEN", ""),
			LaravelSession: getEnv("WIZZ_LARAVEL_SESSION", ""),
			UserAgent:      getEnv("WIZZ_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"),
			Timeout:        getEnvDuration("WIZZ_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvInt("WIZZ_MAX_RETRIES", 3),
			RatePerMinute:  getEnvInt("WIZZ_RATE_PER_MINUTE", 80),
			Burst:          getEnvInt("WIZZ_BURST", 40),
		},
		Worker: WorkerConfig{
			Enabled:         getEnvBool("WORKER_ENABLED", true),
			PollInterval:    getEnvDuration("WORKER_POLL_INTERVAL", 10*time.Second),
			Concurrency:     getEnvInt("WORKER_CONCURRENCY", 4),
			RefreshInterval: getEnvDuration("ROUTES_REFRESH_INTERVAL", time.Hour),
			LeaseTimeout:    getEnvDuration("WORKER_LEASE_TIMEOUT", 10*time.Minute),
		},
		Routes: RoutesConfig{
			SnapshotPath:    getEnv("ROUTES_SNAPSHOT_PATH", "data/flight_data.yaml"),
			CatalogPath:     getEnv("ROUTES_CATALOG_PATH", "data/iata-icao.csv"),
			AliasesPath:     getEnv("ROUTES_ALIASES_PATH", "data/airport_name_special_cases.yaml"),
			KnownRoutesPath: getEnv("ROUTES_KNOWN_ROUTES_PATH", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			Timeout:  getEnvDuration("SMTP_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
