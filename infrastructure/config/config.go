package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/adsops/adsops/domain/safety"
)

// Token store backends
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

type Config struct {
	ServerPort  string
	ServerHost  string
	Environment string

	DatabaseURL string
	RedisURL    string

	JWTSecret      string
	JWTAlgorithm   string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// Confirmation gate
	ConfirmationTTL       time.Duration
	ConfirmationRetention time.Duration
	JanitorInterval       time.Duration
	TokenStore            string
	TokenHashSalt         string

	// Safety ceilings
	MaxBudgetIncreasePercent float64
	BudgetWarnPercent        float64
	BidModifierMinPercent    float64
	BidModifierMaxPercent    float64
	KeywordBatchLimit        int
	NegativeKeywordLimit     int
	LabelBatchLimit          int
	DefaultBatchLimit        int

	VendorMockLatency time.Duration

	RateLimitEnabled         bool
	RateLimitConfirmAttempts int
	RateLimitConfirmWindow   time.Duration
	RateLimitBlockDuration   time.Duration

	LogLevel               string
	LogFormat              string
	LogCorrelationIDHeader string
	LogEnableRequestLog    bool

	MetricsEnabled bool

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

var (
	ErrMissingJWTSecret    = errors.New("JWT_SECRET is required")
	ErrMissingTokenSalt    = errors.New("TOKEN_HASH_SALT is required when TOKEN_STORE=redis")
	ErrMissingRedisURL     = errors.New("REDIS_URL is required when TOKEN_STORE=redis or rate limiting is enabled")
	ErrInvalidTokenStore   = errors.New("TOKEN_STORE must be memory or redis")
	ErrInvalidTTL          = errors.New("invalid duration format")
	ErrInvalidJWTAlgorithm = errors.New("invalid JWT algorithm")
	ErrInvalidSafetyLimits = errors.New("invalid safety limits")
)

// Load reads configuration from the environment, after loading .env if present
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:  getEnvOrDefault("SERVER_HOST", "localhost"),
		Environment: getEnvOrDefault("ENV", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTAlgorithm: getEnvOrDefault("JWT_ALG", "HS256"),
		JWTIssuer:    getEnvOrDefault("JWT_ISSUER", "adsops"),

		TokenStore:    strings.ToLower(getEnvOrDefault("TOKEN_STORE", TokenStoreMemory)),
		TokenHashSalt: os.Getenv("TOKEN_HASH_SALT"),

		MaxBudgetIncreasePercent: getEnvOrDefaultFloat("SAFETY_MAX_BUDGET_INCREASE_PERCENT", 500),
		BudgetWarnPercent:        getEnvOrDefaultFloat("SAFETY_BUDGET_WARN_PERCENT", 20),
		BidModifierMinPercent:    getEnvOrDefaultFloat("SAFETY_BID_MODIFIER_MIN_PERCENT", -90),
		BidModifierMaxPercent:    getEnvOrDefaultFloat("SAFETY_BID_MODIFIER_MAX_PERCENT", 900),
		KeywordBatchLimit:        getEnvOrDefaultInt("SAFETY_KEYWORD_BATCH_LIMIT", 50),
		NegativeKeywordLimit:     getEnvOrDefaultInt("SAFETY_NEGATIVE_KEYWORD_BATCH_LIMIT", 50),
		LabelBatchLimit:          getEnvOrDefaultInt("SAFETY_LABEL_BATCH_LIMIT", 20),
		DefaultBatchLimit:        getEnvOrDefaultInt("SAFETY_DEFAULT_BATCH_LIMIT", 20),

		RateLimitEnabled:         getEnvOrDefaultBool("RATE_LIMIT_ENABLED", false),
		RateLimitConfirmAttempts: getEnvOrDefaultInt("RATE_LIMIT_CONFIRM_ATTEMPTS", 30),

		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "json"),
		LogCorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),
		LogEnableRequestLog:    getEnvOrDefaultBool("LOG_ENABLE_REQUEST_LOG", true),

		MetricsEnabled: getEnvOrDefaultBool("METRICS_ENABLED", true),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", false),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", false),
		CORSAllowedOrigins:   parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
	}

	durations := []struct {
		key   string
		def   time.Duration
		field *time.Duration
	}{
		{"JWT_ACCESS_TOKEN_TTL", time.Hour, &cfg.AccessTokenTTL},
		{"CONFIRMATION_TTL", 60 * time.Second, &cfg.ConfirmationTTL},
		{"CONFIRMATION_RETENTION", 10 * time.Minute, &cfg.ConfirmationRetention},
		{"CONFIRMATION_JANITOR_INTERVAL", time.Minute, &cfg.JanitorInterval},
		{"VENDOR_MOCK_LATENCY", 0, &cfg.VendorMockLatency},
		{"RATE_LIMIT_CONFIRM_WINDOW", time.Minute, &cfg.RateLimitConfirmWindow},
		{"RATE_LIMIT_BLOCK_DURATION", 15 * time.Minute, &cfg.RateLimitBlockDuration},
	}
	for _, d := range durations {
		v, err := getEnvOrDefaultDuration(d.key, d.def)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, ErrInvalidTTL)
		}
		*d.field = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	if c.JWTAlgorithm != "HS256" {
		return ErrInvalidJWTAlgorithm
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	switch c.TokenStore {
	case TokenStoreMemory:
	case TokenStoreRedis:
		if c.TokenHashSalt == "" {
			return ErrMissingTokenSalt
		}
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
	default:
		return ErrInvalidTokenStore
	}
	if c.RateLimitEnabled && c.RedisURL == "" {
		return ErrMissingRedisURL
	}

	if c.ConfirmationTTL <= 0 {
		return fmt.Errorf("CONFIRMATION_TTL must be positive: %w", ErrInvalidTTL)
	}
	if c.MaxBudgetIncreasePercent <= 0 || c.BudgetWarnPercent <= 0 {
		return fmt.Errorf("budget percentages must be positive: %w", ErrInvalidSafetyLimits)
	}
	if c.BidModifierMinPercent >= c.BidModifierMaxPercent || c.BidModifierMinPercent <= -100 {
		return fmt.Errorf("bid modifier range %.0f..%.0f: %w", c.BidModifierMinPercent, c.BidModifierMaxPercent, ErrInvalidSafetyLimits)
	}
	if c.KeywordBatchLimit <= 0 || c.NegativeKeywordLimit <= 0 || c.LabelBatchLimit <= 0 || c.DefaultBatchLimit <= 0 {
		return fmt.Errorf("batch limits must be positive: %w", ErrInvalidSafetyLimits)
	}
	return nil
}

// SafetyConfig converts the safety ceilings for the validator
func (c *Config) SafetyConfig() safety.Config {
	return safety.Config{
		MaxBudgetIncreasePercent: c.MaxBudgetIncreasePercent,
		BudgetWarnPercent:        c.BudgetWarnPercent,
		BidModifierMinPercent:    c.BidModifierMinPercent,
		BidModifierMaxPercent:    c.BidModifierMaxPercent,
		BatchLimits: map[safety.BatchKind]int{
			safety.BatchKeywords:         c.KeywordBatchLimit,
			safety.BatchNegativeKeywords: c.NegativeKeywordLimit,
			safety.BatchLabels:           c.LabelBatchLimit,
		},
		DefaultBatchLimit: c.DefaultBatchLimit,
	}
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvOrDefaultDuration interprets bare numbers as seconds, otherwise
// parses a Go duration string.
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
