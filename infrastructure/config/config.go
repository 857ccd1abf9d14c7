package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Environment string

	// AWS configuration
	AWSRegion    string
	Bucket       string
	EventBusName string

	// Source tables
	UserTable              string
	WalletTable            string
	WalletTransactionTable string
	TierReferralTable      string
	TierDetailsTable       string
	LeadTable              string
	WithdrawnTable         string
	AdminAggregatesTable   string

	// Warehouse
	Schema          string
	RedshiftIAMRole string

	// Pipeline behavior
	ArchiveRaw bool

	// Logging and features
	LogLevel      string
	EnableMetrics bool
	EnableTracing bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		AWSRegion:   getEnv("AWS_REGION", "ap-south-1"),

		Bucket:       getEnv("DATA_BUCKET", ""),
		EventBusName: getEnv("EVENT_BUS_NAME", ""),

		UserTable:              getEnv("USER_TABLE", "UserTable"),
		WalletTable:            getEnv("WALLET_TABLE", "WalletTable"),
		WalletTransactionTable: getEnv("WALLET_TRANSACTION_TABLE", "WalletTransactionTable"),
		TierReferralTable:      getEnv("TIER_REFERRAL_TABLE", "TierReferralTable"),
		TierDetailsTable:       getEnv("TIER_DETAILS_TABLE", "TierDetailsTable"),
		LeadTable:              getEnv("LEAD_TABLE", "LeadTable"),
		WithdrawnTable:         getEnv("WITHDRAWN_TABLE", "WithdrawnTable"),
		AdminAggregatesTable:   getEnv("ADMIN_AGGREGATES_TABLE", "AdminAggregatesTable"),

		Schema:          getEnv("WAREHOUSE_SCHEMA", "loyalty"),
		RedshiftIAMRole: getEnv("REDSHIFT_IAM_ROLE", ""),

		ArchiveRaw: getEnvBool("ARCHIVE_RAW", true),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("DATA_BUCKET is required")
	}
	if c.IsProduction() {
		if c.RedshiftIAMRole == "" {
			return fmt.Errorf("REDSHIFT_IAM_ROLE is required in production")
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
