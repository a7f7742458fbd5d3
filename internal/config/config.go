package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage driver names.
const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Storage     StorageConfig
	RabbitMQ    RabbitMQConfig
	Classifier  ClassifierConfig
	Capture     CaptureConfig
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	Driver      string // "file" or "postgres"
	FilePath    string
	DatabaseURL string
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL              string
	IngestExchange   string
	IngestQueue      string
	IngestRoutingKey string
	WorkerExchange   string
	WorkerRoutingKey string
	DLQQueue         string
	PrefetchCount    int
}

// ClassifierConfig holds inference service settings.
type ClassifierConfig struct {
	BaseURL        string
	TimeoutSeconds int
	MinConfidence  float64
}

// CaptureConfig holds capture message handling settings.
type CaptureConfig struct {
	TimestampToleranceMinutes int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "appliance-identifier"),
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", StorageDriverFile),
			FilePath:    getEnv("STORAGE_FILE_PATH", "appliances.json"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			IngestExchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "appliance-identifier.ingest.exchange"),
			IngestQueue:      getEnv("RABBITMQ_INGEST_QUEUE", "appliance-identifier.ingest.queue"),
			IngestRoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "appliance.capture.raw"),
			WorkerExchange:   getEnv("RABBITMQ_WORKER_EXCHANGE", "appliance-identifier.events.exchange"),
			WorkerRoutingKey: getEnv("RABBITMQ_WORKER_ROUTING_KEY", "appliance.identified"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "appliance-identifier.ingest.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Classifier: ClassifierConfig{
			BaseURL:        getEnv("CLASSIFIER_URL", ""),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 30),
			MinConfidence:  getEnvAsFloat("CLASSIFIER_MIN_CONFIDENCE", 0.5),
		},
		Capture: CaptureConfig{
			TimestampToleranceMinutes: getEnvAsInt("CAPTURE_TIMESTAMP_TOLERANCE_MINUTES", 10080),
		},
	}

	// Validate required fields
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}
	if cfg.Classifier.BaseURL == "" {
		return nil, fmt.Errorf("CLASSIFIER_URL is required but not set in environment variables")
	}
	switch cfg.Storage.Driver {
	case StorageDriverFile:
		// FilePath always has a default.
	case StorageDriverPostgres:
		if cfg.Storage.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (expected %q or %q)",
			cfg.Storage.Driver, StorageDriverFile, StorageDriverPostgres)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
