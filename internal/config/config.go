package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	// Scheduling API
	APIBaseURL string
	APITimeout time.Duration

	// Credential persistence: "file" or "redis"
	CredentialStore string
	CredentialDir   string
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	RedisKeyPrefix  string
	// TokenSecret enables HMAC verification of persisted tokens when set.
	TokenSecret string

	// Geolocation
	GeolocationEnabled bool
	GeolocationTimeout time.Duration
	GeolocationLat     *float64
	GeolocationLng     *float64
	GeoIPURL           string

	// Booking form
	ProvinceGrouping bool
	RequireProvider  bool
	RequireRoom      bool
	FallbackSlots    bool

	// serve
	Port               string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		APIBaseURL: strings.TrimRight(getEnv("SCHEDULER_API_URL", "http://localhost:8000"), "/"),
		APITimeout: getEnvAsDuration("SCHEDULER_API_TIMEOUT", 15*time.Second),

		CredentialStore: strings.ToLower(strings.TrimSpace(getEnv("CREDENTIAL_STORE", "file"))),
		CredentialDir:   getEnv("CREDENTIAL_DIR", defaultCredentialDir()),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix:  getEnv("REDIS_KEY_PREFIX", "clinic-booking:credentials"),
		TokenSecret:     getEnv("TOKEN_SECRET", ""),

		GeolocationEnabled: getEnvAsBool("GEOLOCATION_ENABLED", true),
		GeolocationTimeout: getEnvAsDuration("GEOLOCATION_TIMEOUT", 8*time.Second),
		GeolocationLat:     getEnvAsFloat("GEOLOCATION_LAT"),
		GeolocationLng:     getEnvAsFloat("GEOLOCATION_LNG"),
		GeoIPURL:           getEnv("GEOIP_URL", "https://ipapi.co/json/"),

		ProvinceGrouping: getEnvAsBool("PROVINCE_GROUPING", true),
		RequireProvider:  getEnvAsBool("REQUIRE_PROVIDER", false),
		RequireRoom:      getEnvAsBool("REQUIRE_ROOM", false),
		FallbackSlots:    getEnvAsBool("FALLBACK_SLOTS", true),

		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// HasStaticPosition reports whether fixed device coordinates are configured.
func (c *Config) HasStaticPosition() bool {
	return c.GeolocationLat != nil && c.GeolocationLng != nil
}

func defaultCredentialDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".clinic-booking"
	}
	return filepath.Join(home, ".clinic-booking")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

// getEnvAsFloat returns nil when the variable is unset or not a number.
func getEnvAsFloat(key string) *float64 {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return nil
	}
	return &value
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
