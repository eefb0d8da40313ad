package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	LogLevel       string
	RequestTimeout time.Duration
	DomainPolicy   string
	CORSOrigin     string
	ChatRateLimit  int
	Session        SessionConfig
	Hosted         HostedConfig
	Local          LocalConfig
}

// SessionConfig задаёт границы in-memory состояния.
type SessionConfig struct {
	MaxTurns  int
	CacheSize int
}

// HostedConfig описывает удалённый chat-completion API (RapidAPI).
type HostedConfig struct {
	URL    string
	APIKey string
	Host   string
	Model  string
}

// LocalConfig описывает локальный сервер моделей (Ollama).
type LocalConfig struct {
	BaseURL string
	Model   string
}

// Addr возвращает адрес для http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func Load() (Config, error) {
	// .env необязателен: реальные переменные окружения имеют приоритет.
	_ = godotenv.Load()

	var cfg Config

	cfg.Port = getEnv("PORT", "3000")
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("parse PORT: %w", err)
	}
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.DomainPolicy = strings.ToLower(getEnv("DOMAIN_POLICY", "keyword"))
	cfg.CORSOrigin = getEnv("CORS_ALLOW_ORIGIN", "*")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	if reqTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_CLIENT_TIMEOUT must be positive, got %s", reqTimeout)
	}
	cfg.RequestTimeout = reqTimeout

	if cfg.ChatRateLimit, err = parseIntDefault(getEnv("CHAT_RATE_LIMIT", ""), 30); err != nil {
		return Config{}, fmt.Errorf("parse CHAT_RATE_LIMIT: %w", err)
	}

	maxTurns, err := parseIntDefault(getEnv("SESSION_MAX_TURNS", ""), 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse SESSION_MAX_TURNS: %w", err)
	}
	cacheSize, err := parseIntDefault(getEnv("REPLY_CACHE_SIZE", ""), 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse REPLY_CACHE_SIZE: %w", err)
	}
	if maxTurns < 2 {
		return Config{}, fmt.Errorf("SESSION_MAX_TURNS must be at least 2, got %d", maxTurns)
	}
	if cacheSize < 1 {
		return Config{}, fmt.Errorf("REPLY_CACHE_SIZE must be positive, got %d", cacheSize)
	}
	cfg.Session = SessionConfig{MaxTurns: maxTurns, CacheSize: cacheSize}

	cfg.Hosted = HostedConfig{
		URL:    getEnv("RAPIDAPI_URL", "https://chatgpt-42.p.rapidapi.com/chat"),
		APIKey: getEnv("RAPIDAPI_KEY", ""),
		Host:   getEnv("RAPIDAPI_HOST", "chatgpt-42.p.rapidapi.com"),
		Model:  getEnv("RAPIDAPI_MODEL", ""),
	}

	cfg.Local = LocalConfig{
		BaseURL: strings.TrimRight(getEnv("OLLAMA_HOST", "http://localhost:11434"), "/"),
		Model:   getEnv("OLLAMA_MODEL", "tinyllama"),
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

// parseIntDefault разбирает необязательное целое значение.
func parseIntDefault(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(value))
}
