package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Consultation backend
	BackendURL     string
	BackendTimeout time.Duration

	// Locale resolution
	GeolocationURL string

	// Payments
	RazorpayKeyID     string
	PaymentThemeColor string
	SubmitGuardWindow time.Duration

	// Session state
	NotificationTTL time.Duration
	SessionIdleTTL  time.Duration
	DoctorCacheTTL  time.Duration
	CookieSecure    bool

	// Redis (optional, backs the duplicate-submit guard)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:4000"), "/"),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 0),

		GeolocationURL: getEnv("GEOLOCATION_URL", "https://ipapi.co/{ip}/json/"),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		PaymentThemeColor: getEnv("PAYMENT_THEME_COLOR", "#3498db"),
		SubmitGuardWindow: getEnvAsDuration("SUBMIT_GUARD_WINDOW", 10*time.Second),

		NotificationTTL: getEnvAsDuration("NOTIFICATION_TTL", 3*time.Second),
		SessionIdleTTL:  getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		DoctorCacheTTL:  getEnvAsDuration("DOCTOR_CACHE_TTL", 5*time.Minute),
		CookieSecure:    getEnvAsBool("COOKIE_SECURE", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	return env == "production" || env == "prod"
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
