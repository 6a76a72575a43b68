package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultGeminiModels = []string{
	"gemini-2.5-flash-lite",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
}

type Config struct {
	AppEnv           string
	AppName          string
	AppPort          string
	CORSAllowOrigins []string
	LogLevel         string
	LogFormat        string
	MetricsPath      string
	GoogleAPIKey     string
	GeminiBaseURL    string
	GeminiModels     []string
	AITimeoutSeconds int
	AIRetryDelayMS   int
	// Empty keyword settings keep the planner defaults.
	PlanningNouns []string
	PlanningVerbs []string
	CarMarker     string

	OTelEnabled    bool
	OTelEndpoint   string
	OTelSampleRate float64
}

func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		AppEnv:  getEnv("APP_ENV", "local"),
		AppName: getEnv("APP_NAME", "WonderfulGo API"),
		AppPort: getEnv("APP_PORT", "5000"),
		CORSAllowOrigins: getEnvCSV(
			"CORS_ALLOW_ORIGINS",
			[]string{"http://localhost:5000", "http://127.0.0.1:5000", "http://localhost:3000"},
		),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		MetricsPath:      getEnv("METRICS_PATH", "/metrics"),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModels:     getEnvCSV("GEMINI_MODELS", defaultGeminiModels),
		AITimeoutSeconds: getEnvInt("AI_TIMEOUT_SECONDS", 90),
		AIRetryDelayMS:   getEnvInt("AI_RETRY_DELAY_MS", 1000),
		PlanningNouns:    getEnvCSV("PLANNING_NOUNS", nil),
		PlanningVerbs:    getEnvCSV("PLANNING_VERBS", nil),
		CarMarker:        getEnv("CAR_MARKER", ""),
		OTelEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRate:   getEnvFloat("OTEL_SAMPLE_RATE", 1.0),
	}
}

// Validate only checks settings the process cannot run without. A missing
// GOOGLE_API_KEY is reported per request instead.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppPort) == "" {
		return errors.New("APP_PORT is required")
	}
	if len(c.GeminiModels) == 0 {
		return errors.New("GEMINI_MODELS must list at least one model")
	}
	if strings.TrimSpace(c.GeminiBaseURL) == "" {
		return errors.New("GEMINI_BASE_URL is required")
	}
	if c.AITimeoutSeconds <= 0 {
		return errors.New("AI_TIMEOUT_SECONDS must be positive")
	}
	if c.AIRetryDelayMS < 0 {
		return errors.New("AI_RETRY_DELAY_MS must not be negative")
	}
	if c.OTelEnabled && strings.TrimSpace(c.OTelEndpoint) == "" {
		return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

func (c Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c Config) AIRetryDelay() time.Duration {
	return time.Duration(c.AIRetryDelayMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvCSV(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, item := range parts {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}
