package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string

	// Analytics
	ReferenceRangesPath string
	ForecastHorizonDays int
	ForecastCacheTTL    time.Duration
	SnapshotTTL         time.Duration

	// Records
	ReprocessInterval  time.Duration
	ReprocessWorkers   int
	ShareSweepInterval time.Duration

	// Identity
	OTPSessionTTL   time.Duration
	SessionTokenTTL time.Duration
	SessionSecret   string
	TokenIssuer     string
	TokenAudience   string
	AadhaarPepper   string

	// Gateway
	RecordsBaseURL        string
	AnalyticsBaseURL      string
	IdentityBaseURL       string
	InsuranceBaseURL      string
	NotificationBaseURL   string
	GatewayRequestTimeout time.Duration
	GatewayRateLimitRPS   int
	GatewayRateLimitBurst int
	GatewayRequireAuth    bool
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 4*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "reform"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "reform123"),
		PostgresDB:       getEnv("POSTGRES_DB", "reform"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "reform-platform"),

		ReferenceRangesPath: getEnv("REFERENCE_RANGES_PATH", ""),
		ForecastHorizonDays: getIntEnv("FORECAST_HORIZON_DAYS", 90),
		ForecastCacheTTL:    getDuration("FORECAST_CACHE_TTL", 10*time.Minute),
		SnapshotTTL:         getDuration("SNAPSHOT_TTL", 24*time.Hour),

		ReprocessInterval:  getDuration("REPROCESS_INTERVAL", 5*time.Minute),
		ReprocessWorkers:   getIntEnv("REPROCESS_WORKERS", 4),
		ShareSweepInterval: getDuration("SHARE_SWEEP_INTERVAL", 15*time.Minute),

		OTPSessionTTL:   getDuration("OTP_SESSION_TTL", 300*time.Second),
		SessionTokenTTL: getDuration("SESSION_TOKEN_TTL", 24*time.Hour),
		SessionSecret:   getEnv("SESSION_SECRET", "reform-dev-session-secret"),
		TokenIssuer:     getEnv("TOKEN_ISSUER", "reform-identity"),
		TokenAudience:   getEnv("TOKEN_AUDIENCE", "reform-platform"),
		AadhaarPepper:   getEnv("AADHAAR_PEPPER", "reform-dev-aadhaar-pepper"),

		RecordsBaseURL:        getEnv("RECORDS_BASE_URL", "http://localhost:8081"),
		AnalyticsBaseURL:      getEnv("ANALYTICS_BASE_URL", "http://localhost:8082"),
		IdentityBaseURL:       getEnv("IDENTITY_BASE_URL", "http://localhost:8083"),
		InsuranceBaseURL:      getEnv("INSURANCE_BASE_URL", "http://localhost:8084"),
		NotificationBaseURL:   getEnv("NOTIFICATION_BASE_URL", "http://localhost:8085"),
		GatewayRequestTimeout: getDuration("GATEWAY_REQUEST_TIMEOUT", 10*time.Second),
		GatewayRateLimitRPS:   getIntEnv("GATEWAY_RATE_LIMIT_RPS", 50),
		GatewayRateLimitBurst: getIntEnv("GATEWAY_RATE_LIMIT_BURST", 100),
		GatewayRequireAuth:    getBoolEnv("GATEWAY_REQUIRE_AUTH", false),
	}
}

// PostgresDSN renders the GORM connection string from the discrete settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDB,
		c.PostgresPort,
		c.PostgresSSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
