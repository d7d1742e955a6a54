package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port" validate:"required,numeric"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
	HTTPTimeout     time.Duration `json:"http_timeout" validate:"gt=0"`

	// Polling
	PollInterval           time.Duration `json:"poll_interval" validate:"gte=1s"`
	MaxConcurrency         int           `json:"max_concurrency" validate:"gte=1,lte=64"`
	DisplayTZ              string        `json:"display_tz" validate:"required"`
	DedupeAcrossCategories bool          `json:"dedupe_across_categories"`
	CategoriesFile         string        `json:"categories_file"`

	// Redis configuration. An empty URL selects the in-memory cache.
	RedisURL    string        `json:"redis_url"`
	RedisPrefix string        `json:"redis_prefix"`
	CacheTTL    time.Duration `json:"cache_ttl" validate:"gt=0"`

	// Sources
	SearchBaseURL string `json:"search_base_url" validate:"omitempty,url"`
	MarketAPIURL  string `json:"market_api_url" validate:"omitempty,url"`
	MarketAPIKey  string `json:"-"`

	// AI Configuration
	AIChatURL        string        `json:"ai_chat_url" validate:"omitempty,url"`
	AIPromptLanguage string        `json:"ai_prompt_language"`
	AIApiKey         string        `json:"-"`
	AIModel          string        `json:"ai_model"`
	AITimeout        time.Duration `json:"ai_timeout" validate:"gt=0"`

	// Archive
	ArchiveBackend string `json:"archive_backend" validate:"oneof=none fs s3"`
	ArchivePath    string `json:"archive_path" validate:"required_if=ArchiveBackend fs"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"-"`
	R2SecretKey string `json:"-"`
	R2Bucket    string `json:"r2_bucket" validate:"required_if=ArchiveBackend s3"`
	R2AccountID string `json:"r2_account_id"`

	// Logging
	LogLevel  string `json:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`

	// Security
	AccessToken string `json:"-"`
	AdminAPIKey string `json:"-"`
}

var validate = validator.New()

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),

		// Polling
		PollInterval:           getEnvAsDuration("POLL_INTERVAL", 60*time.Second),
		MaxConcurrency:         getEnvAsInt("MAX_CONCURRENCY", 4),
		DisplayTZ:              getEnv("DISPLAY_TZ", "Asia/Seoul"),
		DedupeAcrossCategories: getEnvAsBool("DEDUPE_ACROSS_CATEGORIES", false),
		CategoriesFile:         getEnv("CATEGORIES_FILE", ""),

		// Redis configuration
		RedisURL:    getEnv("REDIS_URL", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "newshub:"),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", 24*time.Hour),

		// Sources
		SearchBaseURL: getEnv("SEARCH_BASE_URL", ""),
		MarketAPIURL:  getEnv("MARKET_API_URL", ""),
		MarketAPIKey:  getEnv("MARKET_API_KEY", ""),

		// AI Configuration
		AIChatURL:        getEnv("AI_CHAT_URL", ""),
		AIPromptLanguage: getEnv("AI_PROMPT_LANGUAGE", "Korean"),
		AIApiKey:         getEnv("AI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", "gemini-2.0-flash"),
		AITimeout:        getEnvAsDuration("AI_TIMEOUT", 60*time.Second),

		// Archive
		ArchiveBackend: strings.ToLower(getEnv("ARCHIVE_BACKEND", "none")),
		ArchivePath:    getEnv("ARCHIVE_PATH", "./data"),

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),

		// Logging
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", env != "production"),

		// Security
		AccessToken: getEnv("ACCESS_TOKEN", ""),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the display time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TZ %q: %w", c.DisplayTZ, err)
	}
	return loc, nil
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Int("default", defaultVal).Msg("Invalid integer value, using default")
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Bool("default", defaultVal).Msg("Invalid boolean value, using default")
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Dur("default", defaultVal).Msg("Invalid duration value, using default")
		return defaultVal
	}
	return value
}
