package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Primary store (PostgreSQL)
	PostgresDSN string

	// Secondary store (DynamoDB)
	AWSRegion     string
	DynamoDBTable string

	// Failover / retry policy
	WriteRetries   int           // retries after the initial primary attempt
	RetryBaseDelay time.Duration // backoff unit; attempt n waits base * 2^n

	// Upload links (S3)
	UploadBucket  string
	UploadLinkTTL time.Duration

	// Notifications
	EventBusName string

	// Lambda configuration
	IsLambda bool

	// Logging and features
	LogLevel      string
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "omnichannel-clients")),

		WriteRetries:   getEnvInt("WRITE_RETRIES", 1),
		RetryBaseDelay: getEnvDuration("RETRY_BASE_DELAY", time.Second),

		UploadBucket:  getEnv("UPLOAD_BUCKET", "omnichannel-activity-uploads"),
		UploadLinkTTL: getEnvDuration("UPLOAD_LINK_TTL", 15*time.Minute),

		EventBusName: getEnv("EVENT_BUS_NAME", ""),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.WriteRetries < 0 {
		return fmt.Errorf("WRITE_RETRIES must not be negative")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be positive")
	}
	if c.Environment == "production" {
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.UploadBucket == "" {
			return fmt.Errorf("UPLOAD_BUCKET is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
