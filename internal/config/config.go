package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the API server.
type Config struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	AutoMigrate       bool

	Port string

	JWTSecret string
	JWTIssuer string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	// MultiTenant filters order lists and stats by the calling user.
	MultiTenant bool

	CORSAllowedOrigins []string

	ServiceName  string
	OTelExporter string // none | stdout | otlp
	OTelEndpoint string
}

// Load reads configuration from the environment, after loading a .env file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded (%v), using process environment", err)
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:        getEnvAsBool("AUTO_MIGRATE", true),
		Port:               getEnv("APP_PORT", "8080"),
		JWTSecret:          os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:          os.Getenv("AUTH_JWT_ISSUER"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		MultiTenant:        getEnvAsBool("MULTI_TENANT", true),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		ServiceName:        getEnv("SERVICE_NAME", "shelfwise"),
		OTelExporter:       strings.ToLower(getEnv("OTEL_EXPORTER", "none")),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	switch c.OTelExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("invalid OTEL_EXPORTER %q (allowed: none, stdout, otlp)", c.OTelExporter)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
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
