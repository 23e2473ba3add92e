package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers understood by NewDB
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port            string
		Env             string
		ShutdownTimeout time.Duration
		GRPCPort        string
	}

	// Database configuration
	Database struct {
		Driver   string
		URL      string
		MaxConns int
		Retries  int
		Timeout  time.Duration
	}

	// LLM provider configuration
	LLM struct {
		APIKey         string
		BaseURL        string
		Model          string
		Timeout        time.Duration
		CircuitBreaker bool
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
		RedisURL    string
	}

	// Observability settings
	Observability struct {
		MetricsEnabled bool
		TracingEnabled bool
		ServiceName    string
	}

	// OpenAPI request validation
	OpenAPI struct {
		Validation bool
	}

	// Vault settings
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		SecretsPath string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New returns the process-wide Config, loading it from the environment on first use
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		_ = godotenv.Load()
		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	return New()
}

// Load reads a fresh Config from the process environment
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.Server.GRPCPort = getEnvString("GRPC_PORT", "")

	// Database config
	cfg.Database.Driver = strings.ToLower(getEnvString("DB_DRIVER", DriverPostgres))
	cfg.Database.URL = getEnvString("DATABASE_URL",
		"host=localhost port=5432 user=postgres password=postgres dbname=characterai sslmode=disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Retries = getEnvInt("DB_RETRIES", 5)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	// LLM config
	cfg.LLM.APIKey = getEnvString("LLM_API_KEY", os.Getenv("OPENAI_API_KEY"))
	cfg.LLM.BaseURL = getEnvString("LLM_BASE_URL", "https://api.openai.com/v1")
	cfg.LLM.Model = getEnvString("LLM_MODEL", "gpt-4o-mini")
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", 0)
	cfg.LLM.CircuitBreaker = getEnvBool("LLM_CIRCUIT_BREAKER", false)

	// Security config
	cfg.Security.RateLimit = getEnvFloat("RATE_LIMIT", 0)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", false)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	cfg.Cache.RedisURL = getEnvString("REDIS_URL", "")

	// Observability
	cfg.Observability.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "characterai-backend")

	cfg.OpenAPI.Validation = getEnvBool("OPENAPI_VALIDATION", false)

	// Vault
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "characterai")

	return cfg
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
