package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI            string
	PostgresURI         string
	RedisURI            string
	JWTSecret           string
	AdminEmail          string
	AdminPassword       string
	Port                string
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	GeocoderURL         string
	AllowedHost         string // production Host header check; empty disables
	TrustProxy          bool   // honor X-Forwarded-For for client IPs
	Environment         string // ENV: production, development, etc.

	UserSessionTTL  time.Duration
	AdminSessionTTL time.Duration
	// How often expired subscriptions are flipped to inactive.
	SubscriptionSweep time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		// Seller, collector and admin portals each run on their own origin
		for _, u := range []string{
			getEnv("FRONTEND_URL", "http://localhost:3000"),
			getEnv("COLLECTOR_FRONTEND_URL", ""),
			getEnv("ADMIN_FRONTEND_URL", ""),
		} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	return &Config{
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/ridit")),
		PostgresURI:         getEnv("POSTGRES_URI", "postgres://localhost:5432/ridit?sslmode=disable"),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		AdminEmail:          getEnv("ADMIN_EMAIL", "admin@ridit.local"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		Environment:         env,
		Port:                getEnv("PORT", "8000"),
		AllowedOrigins:      allowedOrigins,
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		GeocoderURL:         getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		AllowedHost:         getEnv("ALLOWED_HOST", ""),
		TrustProxy:          getBool("TRUST_PROXY", false),
		UserSessionTTL:      getHours("USER_JWT_EXPIRES_HOURS", 24),
		AdminSessionTTL:     getHours("ADMIN_JWT_EXPIRES_HOURS", 8),
		SubscriptionSweep:   getDuration("SUBSCRIPTION_SWEEP_INTERVAL", time.Hour),
	}
}

// PortalConfig configures the portal client used by cmd/portal.
type PortalConfig struct {
	APIBaseURL         string
	SessionFile        string
	GeocoderURL        string
	GeolocationTimeout time.Duration
	PrefetchTTL        time.Duration
	RequestTimeout     time.Duration
	// LoginPrefetch warms the dashboard cache on login. It only pays off
	// when the same process renders the dashboard afterwards.
	LoginPrefetch bool
}

func LoadPortal() *PortalConfig {
	sessionFile := getEnv("RIDIT_SESSION_FILE", "")
	if sessionFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			sessionFile = dir + string(os.PathSeparator) + "ridit" + string(os.PathSeparator) + "session.json"
		} else {
			sessionFile = ".ridit-session.json"
		}
	}
	return &PortalConfig{
		APIBaseURL:         strings.TrimRight(getEnv("RIDIT_API_URL", "http://localhost:8000"), "/"),
		SessionFile:        sessionFile,
		GeocoderURL:        getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeolocationTimeout: getDuration("RIDIT_GEO_TIMEOUT", 10*time.Second),
		PrefetchTTL:        getDuration("RIDIT_PREFETCH_TTL", time.Minute),
		RequestTimeout:     getDuration("RIDIT_REQUEST_TIMEOUT", 15*time.Second),
		LoginPrefetch:      getBool("RIDIT_LOGIN_PREFETCH", true),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getHours(key string, defaultHours int) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		n = defaultHours
	}
	return time.Duration(n) * time.Hour
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
