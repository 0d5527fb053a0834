package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("GeminiModel = %q, want default", cfg.GeminiModel)
	}
	if cfg.GeminiClientMode != "auto" {
		t.Fatalf("GeminiClientMode = %q, want %q", cfg.GeminiClientMode, "auto")
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty default", cfg.GeminiAPIKey)
	}
	if cfg.GeminiTimeout != 60*time.Second {
		t.Fatalf("GeminiTimeout = %v, want 60s", cfg.GeminiTimeout)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("GEMINI_API_KEY", "  secret  ")
	t.Setenv("GEMINI_TIMEOUT", "5s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.GeminiAPIKey != "secret" {
		t.Fatalf("GeminiAPIKey = %q, want trimmed %q", cfg.GeminiAPIKey, "secret")
	}
	if cfg.GeminiTimeout != 5*time.Second {
		t.Fatalf("GeminiTimeout = %v, want 5s", cfg.GeminiTimeout)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_TIMEOUT", "100ms")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for sub-second GEMINI_TIMEOUT")
	}

	setCoreEnvEmpty(t)
	t.Setenv("APP_MAX_UPLOAD_BYTES", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative APP_MAX_UPLOAD_BYTES")
	}

	setCoreEnvEmpty(t)
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "maybe")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for bad bool")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_MAX_UPLOAD_BYTES",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"GEMINI_BASE_URL",
		"GEMINI_TIMEOUT",
		"GEMINI_CLIENT_MODE",
		"DATABASE_URL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
