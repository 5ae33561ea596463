package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode    string
	Port       string
	Database   DatabaseConfig
	JWT        JWTConfig
	OTP        OTPConfig
	Attendance AttendanceConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret           string
	AccessTokenHours int
}

// OTPConfig holds one-time-passcode configuration
type OTPConfig struct {
	Length      int
	TTLMinutes  int
	MaxAttempts int
}

// AttendanceConfig holds attendance configuration. The day boundary is
// computed in a fixed offset from UTC rather than a hidden constant so
// deployments (and tests) can shift it; the default is +5:30.
type AttendanceConfig struct {
	DayOffsetMinutes int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:    appMode,
		Port:       getEnv("PORT", "8000"),
		Database:   loadDatabaseConfig(),
		JWT:        loadJWTConfig(),
		OTP:        loadOTPConfig(),
		Attendance: loadAttendanceConfig(),
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		User:     getEnv("DB_USER", "root"),
		Password: getEnv("DB_PASS", ""),
		DBName:   getEnv("DB_NAME", "geostaff"),
	}
}

func loadJWTConfig() JWTConfig {
	accessHours := getEnvInt("ACCESS_TOKEN_HOURS", 24)

	return JWTConfig{
		Secret:           getEnv("JWT_SECRET", "change-me-in-production"),
		AccessTokenHours: accessHours,
	}
}

func loadOTPConfig() OTPConfig {
	return OTPConfig{
		Length:      getEnvInt("OTP_LENGTH", 6),
		TTLMinutes:  getEnvInt("OTP_TTL_MINUTES", 5),
		MaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 3),
	}
}

func loadAttendanceConfig() AttendanceConfig {
	// 330 minutes = UTC+5:30 (IST)
	return AttendanceConfig{
		DayOffsetMinutes: getEnvInt("DAY_OFFSET_MINUTES", 330),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:5173,http://localhost:3000"
	}
	return origins
}
