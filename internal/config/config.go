package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	DBAutoMigrate     bool
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	LogPath  string
	LogDebug bool

	// Bookings are accepted only when both ends fall inside [start, end] hours.
	BusinessHoursStart int
	BusinessHoursEnd   int

	SweepTimeout  time.Duration
	ReminderHours int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogPath = getEnv("LOG_PATH", "logs/")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.DBAutoMigrate, err = getEnvAsBool("DB_AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	if cfg.LogDebug, err = getEnvAsBool("LOG_DEBUG", false); err != nil {
		return nil, err
	}

	if cfg.BusinessHoursStart, err = getEnvAsInt("BUSINESS_HOURS_START", 8); err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOURS_START: %w", err)
	}
	if cfg.BusinessHoursEnd, err = getEnvAsInt("BUSINESS_HOURS_END", 20); err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOURS_END: %w", err)
	}
	if cfg.BusinessHoursStart < 0 || cfg.BusinessHoursEnd > 24 || cfg.BusinessHoursStart >= cfg.BusinessHoursEnd {
		return nil, fmt.Errorf("invalid business hours window %d-%d", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}

	if cfg.SweepTimeout, err = getEnvAsDuration("SWEEP_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderHours, err = getEnvAsInt("REMINDER_HOURS", 24); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_HOURS: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsDuration parses values such as "15m" or "1h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}
