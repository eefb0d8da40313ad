package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"unicode/utf8"
)

var (
	// ErrNotConfigured бэкенд не может быть вызван без ключа или хоста.
	ErrNotConfigured = errors.New("backend is not configured")
	// ErrUnknownBackend селектор не соответствует ни одному бэкенду.
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrEmptyReply модель вернула пустой ответ.
	ErrEmptyReply = errors.New("empty response from model")
)

// Kind класс ошибки бэкенда.
type Kind string

const (
	// KindConnection сервер недоступен: отказ в соединении, сброс, таймаут.
	KindConnection Kind = "connection"
	// KindApplication сервер ответил, но ответ непригоден: не-2xx, мусор, нет конфигурации.
	KindApplication Kind = "application"
)

const snippetLimit = 200

// BackendError типизированная ошибка вызова бэкенда.
type BackendError struct {
	Backend    BackendID
	Kind       Kind
	StatusCode int
	Body       string // первые 200 байт тела ответа
	Model      string
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Body != "":
		return fmt.Sprintf("%s backend: status %d: %s", e.Backend, e.StatusCode, e.Body)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s backend: status %d", e.Backend, e.StatusCode)
	case e.Kind == KindConnection:
		return fmt.Sprintf("%s backend: connection failed: %v", e.Backend, e.Err)
	default:
		return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Hint подсказка оператору, как вернуть бэкенд в строй.
func (e *BackendError) Hint() string {
	if e.Backend == BackendHosted {
		return "Check RAPIDAPI_KEY and RAPIDAPI_HOST. Ensure the RapidAPI subscription is active."
	}
	model := e.Model
	if model == "" {
		model = "tinyllama"
	}
	switch {
	case e.Kind == KindConnection:
		return "Ollama is not running or not reachable. Start it with: docker compose up -d"
	case e.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(e.Body), "not found"):
		return "Model not found. Pull it with: docker compose exec ollama ollama pull " + model
	default:
		return "Ensure Ollama is running and the model is pulled (docker compose exec ollama ollama pull " + model + ")."
	}
}

// IsConnection сообщает, что err это ошибка соединения с бэкендом.
func IsConnection(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Kind == KindConnection
}

func connectionError(id BackendID, model string, err error) *BackendError {
	return &BackendError{Backend: id, Kind: KindConnection, Model: model, Err: err}
}

func applicationError(id BackendID, model string, err error) *BackendError {
	return &BackendError{Backend: id, Kind: KindApplication, Model: model, Err: err}
}

func statusError(id BackendID, model string, status int, body []byte) *BackendError {
	return &BackendError{
		Backend:    id,
		Kind:       KindApplication,
		StatusCode: status,
		Body:       bodySnippet(body, snippetLimit),
		Model:      model,
		Err:        fmt.Errorf("unexpected status %d", status),
	}
}

// transportReason короткое описание сетевой ошибки для логов.
func transportReason(err error) string {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "eof"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused"
	}
	if errors.Is(err, syscall.ECONNRESET) || strings.Contains(strings.ToLower(err.Error()), "connection reset") {
		return "connection reset"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network error"
}

func bodySnippet(body []byte, limit int) string {
	if len(body) == 0 || limit <= 0 {
		return ""
	}
	if len(body) <= limit {
		return string(body)
	}
	// Режем по границе руны, чтобы не отдать клиенту битый UTF-8.
	for limit > 0 && !utf8.RuneStart(body[limit]) {
		limit--
	}
	return string(body[:limit])
}
