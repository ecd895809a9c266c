package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime toggle the service reads from the
// environment. It is loaded once in main and injected into constructors so
// business logic never touches os.Getenv and tests can exercise both flag
// states deterministically.
type Config struct {
	Env  string
	Port string

	// GLOW_PG_DSN wins; DATABASE_URL kept for platform-provisioned deploys.
	DatabaseURL string
	RedisAddr   string

	// Cookie scope. CookieDomain applies verbatim to the session cookie;
	// the CSRF cookie may fall back to host-only on a host mismatch.
	CookieDomain string
	CookieSecure bool

	CSRFEnforce bool
	CSRFMaxAge  time.Duration

	LoginRateLimitEnabled bool
	LoginMaxFails         int
	LoginWindow           time.Duration
}

// Load reads the environment once and applies production defaults.
func Load() Config {
	dsn := getEnv("GLOW_PG_DSN", "")
	if dsn == "" {
		dsn = getEnv("DATABASE_URL", "")
	}
	return Config{
		Env:                   getEnv("ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           dsn,
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		CookieDomain:          getEnv("SESSION_COOKIE_DOMAIN", ".glowme.io"),
		CookieSecure:          getEnvBool("SESSION_SECURE", true),
		CSRFEnforce:           getEnvBool("CSRF_ENFORCE", true),
		CSRFMaxAge:            time.Duration(getEnvInt("CSRF_MAX_AGE_SEC", 1800)) * time.Second,
		LoginRateLimitEnabled: getEnvBool("LOGIN_RATELIMIT_ENABLED", true),
		LoginMaxFails:         getEnvInt("LOGIN_RATELIMIT_MAX_FAILS", 5),
		LoginWindow:           time.Duration(getEnvInt("LOGIN_RATELIMIT_WINDOW_SEC", 60)) * time.Second,
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

func getEnvBool(key string, defaultVal bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		return defaultVal
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
