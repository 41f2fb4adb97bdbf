package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string        `json:"redis_uri"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	RedisTTL      time.Duration `json:"redis_ttl"`

	// Collection names
	UserCollection             string `json:"mongo_user_collection"`
	StoryCollection            string `json:"mongo_story_collection"`
	ReviewCollection           string `json:"mongo_review_collection"`
	PlaySessionCollection      string `json:"mongo_play_session_collection"`
	CreditLedgerCollection     string `json:"mongo_credit_ledger_collection"`
	VerificationCodeCollection string `json:"mongo_verification_code_collection"`
	SessionCollection          string `json:"mongo_session_collection"`
	SecurityEventCollection    string `json:"mongo_security_event_collection"`

	// Verification code configuration
	VerificationCodeTTL        time.Duration `json:"verification_code_ttl"`
	VerificationRateWindow     time.Duration `json:"verification_rate_window"`
	VerificationRateMaxRequest int           `json:"verification_rate_max_request"`

	// Session configuration
	SessionExtensionWindow time.Duration `json:"session_extension_window"`

	// SMTP configuration
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`

	// Admin configuration
	AdminRole string `json:"admin_role"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisTTL, err := time.ParseDuration(getEnvOrDefault("REDIS_TTL", "60m"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	verificationCodeTTL, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_CODE_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_CODE_TTL: %w", err)
	}

	verificationRateWindow, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_RATE_WINDOW", "60m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_RATE_WINDOW: %w", err)
	}

	verificationRateMaxRequest, err := strconv.Atoi(getEnvOrDefault("VERIFICATION_RATE_MAX_REQUESTS", "5"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_RATE_MAX_REQUESTS: %w", err)
	}

	sessionExtensionWindow, err := time.ParseDuration(getEnvOrDefault("SESSION_EXTENSION_WINDOW", "168h"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_EXTENSION_WINDOW: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "talepick"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisTTL:      redisTTL,

		// Collection names
		UserCollection:             getEnvOrDefault("MONGODB_USER_COLLECTION", "users"),
		StoryCollection:            getEnvOrDefault("MONGODB_STORY_COLLECTION", "stories"),
		ReviewCollection:           getEnvOrDefault("MONGODB_REVIEW_COLLECTION", "reviews"),
		PlaySessionCollection:      getEnvOrDefault("MONGODB_PLAY_SESSION_COLLECTION", "play_sessions"),
		CreditLedgerCollection:     getEnvOrDefault("MONGODB_CREDIT_LEDGER_COLLECTION", "credit_ledger"),
		VerificationCodeCollection: getEnvOrDefault("MONGODB_VERIFICATION_CODE_COLLECTION", "verification_codes"),
		SessionCollection:          getEnvOrDefault("MONGODB_SESSION_COLLECTION", "sessions"),
		SecurityEventCollection:    getEnvOrDefault("MONGODB_SECURITY_EVENT_COLLECTION", "security_events"),

		// Verification code configuration
		VerificationCodeTTL:        verificationCodeTTL,
		VerificationRateWindow:     verificationRateWindow,
		VerificationRateMaxRequest: verificationRateMaxRequest,

		// Session configuration
		SessionExtensionWindow: sessionExtensionWindow,

		// SMTP configuration
		SMTPHost:     getEnvOrDefault("SMTP_HOST", "localhost"),
		SMTPPort:     smtpPort,
		SMTPUser:     getEnvOrDefault("SMTP_USER", ""),
		SMTPPassword: getEnvOrDefault("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@talepick.app"),

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),

		// Admin configuration
		AdminRole: getEnvOrDefault("ADMIN_ROLE", "admin"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
