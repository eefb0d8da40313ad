package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chefbot/internal/config"
)

// HostedClient клиент chat-completion API на RapidAPI.
type HostedClient struct {
	url        string
	apiKey     string
	host       string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHostedClient создаёт клиент облачного API (RapidAPI) поверх общего httpClient.
func NewHostedClient(cfg config.HostedConfig, httpClient *http.Client, logger *slog.Logger) *HostedClient {
	return &HostedClient{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		host:       cfg.Host,
		model:      cfg.Model,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *HostedClient) ID() BackendID {
	return BackendHosted
}

func (c *HostedClient) configured() bool {
	return c.apiKey != "" && c.host != ""
}

// Generate отправляет {messages, model?} и извлекает текст из ответа.
// Без ключа или хоста сеть не трогается.
func (c *HostedClient) Generate(ctx context.Context, messages []Message) (string, error) {
	if !c.configured() {
		return "", applicationError(BackendHosted, c.model, fmt.Errorf("RAPIDAPI_KEY and RAPIDAPI_HOST must be set: %w", ErrNotConfigured))
	}

	buf, err := json.Marshal(hostedRequest{Messages: messages, Model: c.model})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(buf))
	if err != nil {
		return "", applicationError(BackendHosted, c.model, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logFailure(err)
		return "", connectionError(BackendHosted, c.model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logFailure(err)
		return "", connectionError(BackendHosted, c.model, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(BackendHosted, c.model, resp.StatusCode, body)
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", applicationError(BackendHosted, c.model, fmt.Errorf("decode response: %w", err))
	}
	return extractHostedReply(parsed), nil
}

// Probe для hosted проверяет только конфигурацию: у API нет дешёвого health-эндпоинта.
func (c *HostedClient) Probe(_ context.Context) Readiness {
	r := Readiness{Backend: BackendHosted, Model: c.model}
	if !c.configured() {
		err := applicationError(BackendHosted, c.model, ErrNotConfigured)
		r.Err = err
		r.Hint = err.Hint()
		return r
	}
	r.Ready = true
	return r
}

func (c *HostedClient) logFailure(err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("hosted backend request failed",
		slog.String("reason", transportReason(err)),
		slog.String("error", err.Error()))
}

type hostedRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model,omitempty"`
}

// extractHostedReply возвращает первое непустое поле из известных форматов ответа:
// result, choices[0].message.content, message.content, response, content.
func extractHostedReply(data any) string {
	if s, ok := data.(string); ok {
		return strings.TrimSpace(s)
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return ""
	}

	candidates := []any{
		obj["result"],
		lookup(obj, "choices", 0, "message", "content"),
		lookup(obj, "message", "content"),
		obj["response"],
		obj["content"],
	}
	for _, v := range candidates {
		if text := strings.TrimSpace(coerceText(v)); text != "" {
			return text
		}
	}
	return ""
}

// lookup идёт по пути из ключей объектов и индексов массивов.
func lookup(v any, path ...any) any {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = m[key]
		case int:
			arr, ok := cur.([]any)
			if !ok || key >= len(arr) {
				return nil
			}
			cur = arr[key]
		}
	}
	return cur
}

// coerceText приводит значение к тексту: массивы склеиваются,
// у объектов берётся поле text, остальное сериализуется в компактный JSON.
func coerceText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		var b strings.Builder
		for _, part := range val {
			switch p := part.(type) {
			case string:
				b.WriteString(p)
			case map[string]any:
				if text, ok := p["text"].(string); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	case map[string]any:
		if text, ok := val["text"].(string); ok {
			return text
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
