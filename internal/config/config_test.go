package config

import (
	"os"
	"testing"
	"time"
)

var knownKeys = []string{
	"PORT", "LOG_LEVEL", "HTTP_CLIENT_TIMEOUT", "OLLAMA_HOST", "OLLAMA_MODEL",
	"RAPIDAPI_URL", "RAPIDAPI_KEY", "RAPIDAPI_HOST", "RAPIDAPI_MODEL",
	"DOMAIN_POLICY", "SESSION_MAX_TURNS", "REPLY_CACHE_SIZE", "CORS_ALLOW_ORIGIN", "CHAT_RATE_LIMIT",
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Fatalf("expected port 3000, got %q", cfg.Port)
	}
	if cfg.Addr() != ":3000" {
		t.Fatalf("expected addr :3000, got %q", cfg.Addr())
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.Local.BaseURL != "http://localhost:11434" || cfg.Local.Model != "tinyllama" {
		t.Fatalf("unexpected local config: %+v", cfg.Local)
	}
	if cfg.Hosted.APIKey != "" {
		t.Fatalf("expected empty API key by default")
	}
	if cfg.Hosted.Host != "chatgpt-42.p.rapidapi.com" {
		t.Fatalf("unexpected hosted host: %q", cfg.Hosted.Host)
	}
	if cfg.Session.MaxTurns != 20 || cfg.Session.CacheSize != 50 {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.DomainPolicy != "keyword" {
		t.Fatalf("expected keyword policy, got %q", cfg.DomainPolicy)
	}
	if cfg.ChatRateLimit != 30 {
		t.Fatalf("expected default rate limit 30, got %d", cfg.ChatRateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{
		"PORT":              "8081",
		"OLLAMA_HOST":       "http://ollama:11434/",
		"OLLAMA_MODEL":      "llama3",
		"RAPIDAPI_KEY":      "secret",
		"SESSION_MAX_TURNS": "10",
		"DOMAIN_POLICY":     "SmallTalk",
		"CHAT_RATE_LIMIT":   "0",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Local.BaseURL != "http://ollama:11434" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Local.BaseURL)
	}
	if cfg.Local.Model != "llama3" || cfg.Hosted.APIKey != "secret" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Session.MaxTurns != 10 {
		t.Fatalf("expected 10 turns, got %d", cfg.Session.MaxTurns)
	}
	if cfg.DomainPolicy != "smalltalk" {
		t.Fatalf("expected lowercased policy, got %q", cfg.DomainPolicy)
	}
	if cfg.ChatRateLimit != 0 {
		t.Fatalf("expected rate limit disabled, got %d", cfg.ChatRateLimit)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "abc"}},
		{"bad timeout", map[string]string{"HTTP_CLIENT_TIMEOUT": "soon"}},
		{"empty timeout", map[string]string{"HTTP_CLIENT_TIMEOUT": ""}},
		{"zero timeout", map[string]string{"HTTP_CLIENT_TIMEOUT": "0s"}},
		{"negative timeout", map[string]string{"HTTP_CLIENT_TIMEOUT": "-5s"}},
		{"bad cache size", map[string]string{"REPLY_CACHE_SIZE": "many"}},
		{"zero cache size", map[string]string{"REPLY_CACHE_SIZE": "0"}},
		{"tiny session", map[string]string{"SESSION_MAX_TURNS": "1"}},
		{"bad rate limit", map[string]string{"CHAT_RATE_LIMIT": "fast"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadWith(t, tc.env); err == nil {
				t.Fatalf("expected error for %v", tc.env)
			}
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	if v, err := parseIntDefault("", 7); err != nil || v != 7 {
		t.Fatalf("expected default 7, got %d (%v)", v, err)
	}
	if v, err := parseIntDefault(" 42 ", 7); err != nil || v != 42 {
		t.Fatalf("expected 42, got %d (%v)", v, err)
	}
	if _, err := parseIntDefault("x", 7); err == nil {
		t.Fatalf("expected parse error")
	}
}

// loadWith выставляет только переданные переменные, остальные снимает на время теста.
func loadWith(t *testing.T, env map[string]string) (Config, error) {
	t.Helper()
	for _, key := range knownKeys {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
	for key, val := range env {
		os.Setenv(key, val)
	}
	return Load()
}
