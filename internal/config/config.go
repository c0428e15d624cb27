package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int
	MaxWorkers   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Logging configuration
	LogFormat string
	LogLevel  string

	// Remote recognition configuration
	AzureEndpoint string
	AzureAPIKey   string

	// Local recognition configuration
	TesseractLanguage string

	// Catalog database configuration; empty disables reconciliation
	DatabaseURL string

	// Archival storage configuration; empty endpoint disables archival
	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file. Using environment variables.")
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	// Create and populate config
	config := &Config{
		// Server configuration
		Port:         getEnvInt("PORT", 8080),
		MaxWorkers:   getEnvInt("MAX_WORKERS", 5),
		ReadTimeout:  time.Duration(getEnvInt("READ_TIMEOUT", 120)) * time.Second,
		WriteTimeout: time.Duration(getEnvInt("WRITE_TIMEOUT", 120)) * time.Second,

		// Logging configuration
		LogFormat: getEnvString("LOG_FORMAT", "json"),
		LogLevel:  getEnvString("LOG_LEVEL", "info"),

		// Remote recognition configuration
		AzureEndpoint: os.Getenv("AZURE_CV_ENDPOINT"),
		AzureAPIKey:   os.Getenv("AZURE_CV_API_KEY"),

		// Local recognition configuration
		TesseractLanguage: getEnvString("TESSERACT_LANGUAGE", "eng"),

		// Catalog database configuration
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Archival storage configuration
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          getEnvString("S3_BUCKET", "documents"),
		S3Region:          getEnvString("S3_REGION", "us-east-1"),
	}

	// Validate critical configuration
	validateConfig(config)

	return config, nil
}

// validateConfig checks if critical configuration values are set and logs warnings if they're missing
func validateConfig(config *Config) {
	if config.AzureEndpoint == "" || config.AzureAPIKey == "" {
		log.Println("Warning: Azure Computer Vision is not configured. All recognition will run locally.")
	}

	if config.DatabaseURL == "" {
		log.Println("Warning: No database URL provided. Catalog reconciliation is disabled.")
	}

	if config.S3Endpoint == "" {
		log.Println("Warning: No S3 endpoint provided. Document archival is disabled.")
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
