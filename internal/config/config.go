package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	MailEndpoint     string
	MailAPIKey       string
	JWKSURL          string
	JWTIssuer        string
	JWTAudience      string
	StorageRoot      string
	StorageBaseURL   string
	RateLimit        string
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// fileConfig is the optional YAML overlay, pointed at by CONFIG_FILE.
// Environment variables always win over file values.
type fileConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	ServerPort       string `yaml:"server_port"`
	BaseURL          string `yaml:"base_url"`
	FrontendURL      string `yaml:"frontend_url"`
	RedisURL         string `yaml:"redis_url"`
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int    `yaml:"rabbitmq_prefetch"`
	MailEndpoint     string `yaml:"mail_endpoint"`
	MailAPIKey       string `yaml:"mail_api_key"`
	JWKSURL          string `yaml:"jwks_url"`
	JWTIssuer        string `yaml:"jwt_issuer"`
	JWTAudience      string `yaml:"jwt_audience"`
	StorageRoot      string `yaml:"storage_root"`
	StorageBaseURL   string `yaml:"storage_base_url"`
	RateLimit        string `yaml:"rate_limit"`
	OTELEndpoint     string `yaml:"otel_endpoint"`
}

// Load loads configuration from environment variables, overlaid on the
// optional YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", file.DatabaseURL),
		ServerPort:       getEnv("SERVER_PORT", fallback(file.ServerPort, "8080")),
		BaseURL:          getEnv("BASE_URL", fallback(file.BaseURL, "http://localhost:8080")),
		FrontendURL:      getEnv("FRONTEND_URL", fallback(file.FrontendURL, "http://localhost:5173")),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", fallback(file.RedisURL, "redis://localhost:6379/0")),
		RabbitMQURL:      getEnv("RABBITMQ_URL", file.RabbitMQURL),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", fallbackInt(file.RabbitMQPrefetch, 1)),
		MailEndpoint:     getEnv("MAIL_ENDPOINT", file.MailEndpoint),
		MailAPIKey:       getEnv("MAIL_API_KEY", file.MailAPIKey),
		JWKSURL:          getEnv("JWKS_URL", file.JWKSURL),
		JWTIssuer:        getEnv("JWT_ISSUER", file.JWTIssuer),
		JWTAudience:      getEnv("JWT_AUDIENCE", file.JWTAudience),
		StorageRoot:      getEnv("STORAGE_ROOT", fallback(file.StorageRoot, "./data/objects")),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", fallback(file.StorageBaseURL, "http://localhost:8080/objects")),
		RateLimit:        getEnv("RATE_LIMIT", fallback(file.RateLimit, "120-M")),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", file.OTELEndpoint),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for completion email jobs")
	}

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	file := &fileConfig{}
	if path == "" {
		return file, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return file, nil
}

func fallback(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func fallbackInt(value, defaultValue int) int {
	if value != 0 {
		return value
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
