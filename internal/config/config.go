package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Settings struct {
	Port               string
	DatabaseDSN        string
	Location           *time.Location
	JWTTTL             time.Duration
	CORSAllowedOrigins []string
	GeminiAPIKey       string
	GeminiModel        string
	ReminderMaxCount   int
	MissedAfterDays    int
}

var App Settings

// Init loads the optional .env file, configures the global logger and reads
// the application settings. It must run before anything else touches App.
func Init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	initLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	App = Load()
}

func Load() Settings {
	s := Settings{
		Port:               getEnv("PORT", "8080"),
		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		Location:           time.UTC,
		JWTTTL:             24 * time.Hour,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ReminderMaxCount:   getInt("REMINDER_MAX_COUNT", 2),
		MissedAfterDays:    getInt("MISSED_AFTER_DAYS", 7),
	}

	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			logrus.WithError(err).Warnf("Invalid APP_TIMEZONE %q, using UTC", tz)
		} else {
			s.Location = loc
		}
	}

	if raw := os.Getenv("JWT_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			logrus.Warnf("Invalid JWT_TTL %q, using %s", raw, s.JWTTTL)
		} else {
			s.JWTTTL = d
		}
	}

	return s
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logrus.Warnf("Invalid %s %q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
