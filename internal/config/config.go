package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env                   string
	HTTPPort              string
	GiftAPIURL            string
	CORSOrigins           []string
	RateLimitPerMin       int
	SessionIdleTTL        time.Duration
	DisplayTimeLayout     string
	DisplayTimezone       string
	ReportTransportErrors bool
}

// Load returns application config populated from environment variables with sensible defaults.
// A .env file in the working directory is read first; variables already set in the
// environment take precedence over it.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}

	return App{
		Env:                   getEnv("APP_ENV", "dev"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		GiftAPIURL:            strings.TrimRight(getEnv("GIFT_API_URL", "http://localhost:3000"), "/"),
		CORSOrigins:           csvEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitPerMin:       intEnv("RATE_LIMIT_PER_MIN", 120),
		SessionIdleTTL:        durationEnv("SESSION_IDLE_TTL", 30*time.Minute),
		DisplayTimeLayout:     getEnv("DISPLAY_TIME_LAYOUT", "1/2/2006, 3:04:05 PM"),
		DisplayTimezone:       getEnv("DISPLAY_TIMEZONE", "Local"),
		ReportTransportErrors: boolEnv("REPORT_TRANSPORT_ERRORS", false),
	}
}

// Production reports whether the service runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Location resolves DisplayTimezone, falling back to the local zone.
func (a App) Location() *time.Location {
	if a.DisplayTimezone == "" || a.DisplayTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.DisplayTimezone)
	if err != nil {
		log.Printf("invalid DISPLAY_TIMEZONE %q: %v, using local time", a.DisplayTimezone, err)
		return time.Local
	}
	return loc
}

// lookupEnv returns the trimmed value of key, or "" with ok false when unset or blank.
func lookupEnv(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

func getEnv(key, fallback string) string {
	if val, ok := lookupEnv(key); ok {
		return val
	}
	return fallback
}

// parsedEnv parses key with parse. Unset keys and values parse rejects give
// fallback; rejected values are logged so a typo does not go unnoticed.
func parsedEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	val, ok := lookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := parse(val)
	if err != nil {
		log.Printf("config: %s=%q rejected (%v), using %v", key, val, err, fallback)
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	return parsedEnv(key, fallback, time.ParseDuration)
}

func boolEnv(key string, fallback bool) bool {
	return parsedEnv(key, fallback, strconv.ParseBool)
}

func intEnv(key string, fallback int) int {
	return parsedEnv(key, fallback, strconv.Atoi)
}

func csvEnv(key string, fallback []string) []string {
	val, ok := lookupEnv(key)
	if !ok {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
