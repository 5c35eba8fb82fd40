package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	ServiceName        string
	Port               string
	DatabaseURL        string
	JWTSecret          string
	DBMaxConns         int
	DBMinConns         int
	StoragePath        string
	GeoIPDBPath        string
	CORSAllowedOrigins []string

	LLMProvider   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIOrg     string
	LLMTimeout    time.Duration

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64
	RetryJitter         float64

	MaxProducts          int
	ImagesPerProduct     int
	RenderSizeLimitBytes int

	RedisURL        string
	CatalogCacheTTL time.Duration

	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Prefix   string

	OTLPEndpoint string
	OTLPInsecure bool

	StaleJobAfter   time.Duration
	SweepSchedule   string
	ShutdownTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		ServiceName:        getEnv("SERVICE_NAME", "campaign-api"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 1),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4-turbo"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),
		LLMTimeout:    getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		RetryMaxAttempts:    getEnvInt("LLM_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoff: getEnvDuration("LLM_RETRY_INITIAL_BACKOFF", 500*time.Millisecond),
		RetryMaxBackoff:     getEnvDuration("LLM_RETRY_MAX_BACKOFF", 8*time.Second),
		RetryMultiplier:     getEnvFloat("LLM_RETRY_MULTIPLIER", 2),
		RetryJitter:         getEnvFloat("LLM_RETRY_JITTER", 0.1),

		MaxProducts:          getEnvInt("CAMPAIGN_MAX_PRODUCTS", 6),
		ImagesPerProduct:     getEnvInt("CAMPAIGN_IMAGES_PER_PRODUCT", 2),
		RenderSizeLimitBytes: getEnvInt("RENDER_SIZE_LIMIT_BYTES", 102000),

		RedisURL:        os.Getenv("REDIS_URL"),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3Region:   getEnv("S3_REGION", "us-east-1"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		S3Prefix:   getEnv("S3_PREFIX", "campaigns"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),

		StaleJobAfter:   getEnvDuration("STALE_JOB_AFTER", 15*time.Minute),
		SweepSchedule:   getEnv("STALE_JOB_SWEEP_SCHEDULE", "@every 1m"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.LLMProvider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be openai or gemini, got %q", cfg.LLMProvider)
	}

	if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS out of range: %d/%d", cfg.DBMinConns, cfg.DBMaxConns)
	}

	if cfg.S3Endpoint != "" {
		if u, err := url.Parse(cfg.S3Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("S3_ENDPOINT must be an absolute URL, got %q", cfg.S3Endpoint)
		}
	}

	return cfg, nil
}

// HasLLMKey reports whether any provider key came from the environment.
func (c *Config) HasLLMKey() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != "" || strings.TrimSpace(c.GeminiAPIKey) != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings and bare seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
