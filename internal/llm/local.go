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

// LocalClient клиент локального сервера Ollama.
type LocalClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLocalClient создаёт клиент локального Ollama поверх общего httpClient.
func NewLocalClient(cfg config.LocalConfig, httpClient *http.Client, logger *slog.Logger) *LocalClient {
	return &LocalClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *LocalClient) ID() BackendID {
	return BackendLocal
}

// Generate вызывает POST {base}/api/chat без стриминга.
func (c *LocalClient) Generate(ctx context.Context, messages []Message) (string, error) {
	buf, err := json.Marshal(localChatRequest{Model: c.model, Messages: messages, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/chat", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}

	var parsed localChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", applicationError(BackendLocal, c.model, fmt.Errorf("decode response: %w", err))
	}
	return parsed.Message.Content, nil
}

// Probe запрашивает список моделей и проверяет, скачана ли настроенная.
func (c *LocalClient) Probe(ctx context.Context) Readiness {
	r := Readiness{Backend: BackendLocal, Model: c.model}

	body, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err == nil {
		var tags localTagsResponse
		if decodeErr := json.Unmarshal(body, &tags); decodeErr != nil {
			err = applicationError(BackendLocal, c.model, fmt.Errorf("decode tags: %w", decodeErr))
		} else {
			r.Models = tags.names()
		}
	}
	if err != nil {
		r.Err = err
		if be, ok := err.(*BackendError); ok {
			r.Hint = be.Hint()
		}
		return r
	}

	pulled := hasModel(r.Models, c.model)
	r.Ready = true
	r.ModelPulled = &pulled
	if !pulled {
		r.Hint = "Pull the model: docker compose exec ollama ollama pull " + c.model
	}
	return r
}

func (c *LocalClient) do(ctx context.Context, method, path string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, applicationError(BackendLocal, c.model, fmt.Errorf("build request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logFailure(path, err)
		return nil, connectionError(BackendLocal, c.model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logFailure(path, err)
		return nil, connectionError(BackendLocal, c.model, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(BackendLocal, c.model, resp.StatusCode, body)
	}
	return body, nil
}

func (c *LocalClient) logFailure(path string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("local backend request failed",
		slog.String("path", path),
		slog.String("reason", transportReason(err)),
		slog.String("error", err.Error()))
}

// hasModel сравнивает без учёта регистра и по вхождению: "tinyllama" находит "tinyllama:latest".
func hasModel(models []string, model string) bool {
	want := strings.ToLower(model)
	for _, m := range models {
		if strings.Contains(strings.ToLower(m), want) {
			return true
		}
	}
	return false
}

type localChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type localChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type localTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

func (t localTagsResponse) names() []string {
	names := make([]string, 0, len(t.Models))
	for _, m := range t.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		} else {
			names = append(names, m.Model)
		}
	}
	return names
}
