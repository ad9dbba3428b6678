package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ChatBackendGemini     = "gemini"
	ChatBackendVertex     = "vertex"
	ChatBackendSimulation = "simulation"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Chat relay
	ChatBackend          string
	ChatTimeout          time.Duration
	ChatHistoryWindow    int
	ChatRequestsPerMin   int
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Vertex AI
	GoogleCloudProject  string
	GoogleCloudLocation string

	// Storage
	StoragePath    string
	MaxUploadBytes int64

	// Background work
	WorkerCount        int
	MarketTickInterval time.Duration

	// SMTP
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SupportEmail string

	// Frontend
	FrontendURL string
}

// FileConfig holds the non-secret tuning that may live in config.yaml.
// Environment variables always take precedence over these values.
type FileConfig struct {
	LogLevel string `yaml:"log_level"`
	Chat     struct {
		Backend           string `yaml:"backend"`
		Timeout           string `yaml:"timeout"`
		HistoryWindow     int    `yaml:"history_window"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"chat"`
	Gemini struct {
		Model              string `yaml:"model"`
		ConcurrentRequests int    `yaml:"concurrent_requests"`
	} `yaml:"gemini"`
	Workers struct {
		Count              int    `yaml:"count"`
		MarketTickInterval string `yaml:"market_tick_interval"`
	} `yaml:"workers"`
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	fc, err := LoadFile(getEnvOrDefault("CONFIG_FILE", "config.yaml"))
	if err != nil {
		panic(err)
	}

	cfg := &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		Env:      getEnvOrDefault("ENV", "development"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", orString(fc.LogLevel, "info")),

		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		ChatBackend:          getEnvOrDefault("CHAT_BACKEND", orString(fc.Chat.Backend, ChatBackendGemini)),
		ChatTimeout:          getEnvAsDurationOrDefault("CHAT_TIMEOUT", orDuration(fc.Chat.Timeout, 30*time.Second)),
		ChatHistoryWindow:    getEnvAsIntOrDefault("CHAT_HISTORY_WINDOW", orInt(fc.Chat.HistoryWindow, 5)),
		ChatRequestsPerMin:   getEnvAsIntOrDefault("CHAT_REQUESTS_PER_MINUTE", orInt(fc.Chat.RequestsPerMinute, 20)),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", orString(fc.Gemini.Model, "gemini-1.5-flash")),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", orInt(fc.Gemini.ConcurrentRequests, 5)),

		GoogleCloudProject:  getEnvOrDefault("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation: getEnvOrDefault("GOOGLE_CLOUD_LOCATION", "asia-south1"),

		StoragePath:    getEnvOrDefault("STORAGE_PATH", "./uploads"),
		MaxUploadBytes: int64(getEnvAsIntOrDefault("MAX_UPLOAD_BYTES", 10<<20)),

		WorkerCount:        getEnvAsIntOrDefault("WORKER_COUNT", orInt(fc.Workers.Count, 3)),
		MarketTickInterval: getEnvAsDurationOrDefault("MARKET_TICK_INTERVAL", orDuration(fc.Workers.MarketTickInterval, time.Minute)),

		SMTPHost:     getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:     getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:     getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:     getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "noreply@agriadvisor.in"),
		SupportEmail: getEnvOrDefault("SUPPORT_EMAIL", "support@agriadvisor.in"),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

// LoadFile reads the optional YAML config. A missing file is not an error.
func LoadFile(path string) (*FileConfig, error) {
	fc := &FileConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func orString(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}

func orInt(val, fallback int) int {
	if val <= 0 {
		return fallback
	}
	return val
}

func orDuration(val string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
