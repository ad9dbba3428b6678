package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{"parses duration", "45s", 45 * time.Second},
		{"uses default for garbage", "soon", 30 * time.Second},
		{"uses default for negative", "-5s", 30 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tc.envValue)

			result := getEnvAsDurationOrDefault("TEST_DURATION", 30*time.Second)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestLoadFile_MissingFileIsEmpty(t *testing.T) {
	fc, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if fc.Chat.Backend != "" || fc.Gemini.Model != "" {
		t.Fatalf("expected zero config, got %+v", fc)
	}
}

func TestLoad_FileValuesAreOverriddenByEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
log_level: debug
chat:
  backend: simulation
  timeout: 12s
  history_window: 3
gemini:
  model: gemini-1.5-pro
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://localhost/agri")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")

	cfg := Load()

	if cfg.ChatBackend != "simulation" {
		t.Errorf("expected backend from file, got %q", cfg.ChatBackend)
	}
	if cfg.ChatTimeout != 12*time.Second {
		t.Errorf("expected timeout from file, got %s", cfg.ChatTimeout)
	}
	if cfg.ChatHistoryWindow != 3 {
		t.Errorf("expected history window 3, got %d", cfg.ChatHistoryWindow)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("expected env to win for model, got %q", cfg.GeminiModel)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level from file, got %q", cfg.LogLevel)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DATABASE_URL", "postgres://localhost/agri")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")

	cfg := Load()

	if cfg.ChatTimeout != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %s", cfg.ChatTimeout)
	}
	if cfg.ChatHistoryWindow != 5 {
		t.Errorf("expected history window 5, got %d", cfg.ChatHistoryWindow)
	}
	if cfg.ChatBackend != "gemini" {
		t.Errorf("expected gemini backend, got %q", cfg.ChatBackend)
	}
}
