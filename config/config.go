package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL              string
	Port                     string
	GoEnv                    string
	LogLevel                 string
	JWTSecret                string
	JWTIssuer                string
	JWTAudience              string
	Auth0Domain              string
	Auth0Audience            string
	IdentityUserInfoURL      string
	AWSRegion                string
	AWSS3Bucket              string
	AWSAccessKeyID           string
	AWSSecretAccessKey       string
	AWSS3Endpoint            string
	SignedURLTTL             time.Duration
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	NotificationPollInterval time.Duration
	CORSAllowedOrigins       []string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// In production, environment variables are set directly
		// so it's okay if .env files don't exist
		if err := godotenv.Load(); err != nil {
			logger.L().Info("No .env file found, using system environment variables")
		}
	} else {
		logger.L().Info("Loaded configuration", zap.String("file", envFile))
	}

	config := &Config{
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		Port:                     getEnv("PORT", "8080"),
		GoEnv:                    getEnv("GO_ENV", "development"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		JWTIssuer:                getEnv("JWT_ISSUER", "edu-brokerage"),
		JWTAudience:              getEnv("JWT_AUDIENCE", "edu-brokerage-api"),
		Auth0Domain:              getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:            getEnv("AUTH0_AUDIENCE", ""),
		IdentityUserInfoURL:      getEnv("IDENTITY_USERINFO_URL", ""),
		AWSRegion:                getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:              getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:           getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:       getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSS3Endpoint:            getEnv("AWS_S3_ENDPOINT", ""),
		SignedURLTTL:             getDuration("SIGNED_URL_TTL", time.Hour),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		RedisDB:                  getInt("REDIS_DB", 0),
		NotificationPollInterval: getDuration("NOTIFICATION_POLL_INTERVAL", 30*time.Second),
		CORSAllowedOrigins:       getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && c.Auth0Domain == "" {
		return fmt.Errorf("either JWT_SECRET or AUTH0_DOMAIN is required")
	}
	if c.SignedURLTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the loaded configuration, or defaults when Load has not run
func GetConfig() *Config {
	if appConfig == nil {
		return &Config{
			GoEnv:                    getEnv("GO_ENV", "development"),
			SignedURLTTL:             time.Hour,
			NotificationPollInterval: 30 * time.Second,
		}
	}
	return appConfig
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.L().Warn("Invalid integer in environment, using default",
			zap.String("key", key), zap.String("value", value), zap.Int("default", defaultValue))
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.L().Warn("Invalid duration in environment, using default",
			zap.String("key", key), zap.String("value", value), zap.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
