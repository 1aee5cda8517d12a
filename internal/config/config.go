package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	ServerPort    string
	AdminPort     string
	LogLevel      string
	StorageDriver string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	// Pool limits for Postgres and Redis.
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnLifetime time.Duration
	DBMaxConnIdleTime time.Duration
	RedisPoolSize     int
	RedisDialTimeout  time.Duration
	// JWTExpiry of zero issues session tokens without an expiry.
	JWTExpiry            time.Duration
	BaseURL              string
	SMTPHost             string
	SMTPPort             string
	SMTPUser             string
	SMTPPassword         string
	MailFrom             string
	ShoppingChannel      string
	RequireVerifiedEmail bool
	PhoneRegion          string
}

func LoadConfig() (*Config, error) {
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "0s"))
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	requireVerified, err := strconv.ParseBool(getEnv("REQUIRE_VERIFIED_EMAIL", "false"))
	if err != nil {
		return nil, errors.New("invalid REQUIRE_VERIFIED_EMAIL value")
	}

	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	dbMinConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	dbMaxConnLifetime, err := getEnvDuration("DB_MAX_CONN_LIFETIME", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	dbMaxConnIdleTime, err := getEnvDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	redisPoolSize, err := getEnvInt("REDIS_POOL_SIZE", 0)
	if err != nil {
		return nil, err
	}
	redisDialTimeout, err := getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "8001"),
		AdminPort:            getEnv("ADMIN_PORT", "9090"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		StorageDriver:        getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		DBMaxConns:           int32(dbMaxConns),
		DBMinConns:           int32(dbMinConns),
		DBMaxConnLifetime:    dbMaxConnLifetime,
		DBMaxConnIdleTime:    dbMaxConnIdleTime,
		RedisPoolSize:        redisPoolSize,
		RedisDialTimeout:     redisDialTimeout,
		JWTExpiry:            expiry,
		BaseURL:              getEnv("BASE_URL", "http://localhost:3000"),
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             getEnv("SMTP_PORT", "587"),
		SMTPUser:             os.Getenv("SMTP_USER"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		MailFrom:             os.Getenv("MAIL_FROM"),
		ShoppingChannel:      getEnv("SHOPPING_SERVICE", "SHOPPING_SERVICE"),
		RequireVerifiedEmail: requireVerified,
		PhoneRegion:          getEnv("PHONE_REGION", "US"),
	}

	// Validate required fields
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
	case StorageDriverMemory:
	default:
		return nil, errors.New("STORAGE_DRIVER must be postgres or memory")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return nil, errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if cfg.JWTExpiry < 0 {
		return nil, errors.New("JWT_EXPIRY must not be negative")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value", key)
	}
	return int(n), nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s format", key)
	}
	return d, nil
}
