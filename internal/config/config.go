package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Meta (WhatsApp Cloud API) credentials
	MetaBaseURL           string
	MetaAccessToken       string
	MetaPhoneNumberID     string
	MetaBusinessAccountID string
	MetaVerifyToken       string

	// Google Calendar service account
	GoogleCalendarID          string
	GoogleServiceAccountJSON  string

	// Optional override for the embedded clinic document
	ClinicInfoPath string

	BusinessHourStart int
	BusinessHourEnd   int
	ReminderWindow    time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		MetaBaseURL:           getEnv("META_BASE_URL", "https://graph.facebook.com/v18.0"),
		MetaAccessToken:       getEnv("META_ACCESS_TOKEN", ""),
		MetaPhoneNumberID:     getEnv("META_PHONE_NUMBER_ID", ""),
		MetaBusinessAccountID: getEnv("META_BUSINESS_ACCOUNT_ID", ""),
		MetaVerifyToken:       getEnv("META_VERIFY_TOKEN", ""),

		GoogleCalendarID:         getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		ClinicInfoPath: getEnv("CLINIC_INFO_PATH", ""),

		BusinessHourStart: getEnvAsInt("BUSINESS_HOUR_START", 9),
		BusinessHourEnd:   getEnvAsInt("BUSINESS_HOUR_END", 17),
		ReminderWindow:    getEnvAsDuration("REMINDER_WINDOW", 24*time.Hour),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
