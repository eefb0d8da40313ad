package llm

import "context"

// Роли сообщений в запросе к модели.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message одно сообщение в запросе к бэкенду.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BackendID каноническое имя бэкенда генерации текста.
type BackendID string

const (
	BackendHosted BackendID = "hosted"
	BackendLocal  BackendID = "local"
)

// Backend минимальный интерфейс бэкенда генерации.
type Backend interface {
	ID() BackendID
	// Generate отправляет сообщения модели и возвращает текст ответа.
	// Пустая строка означает, что модель ничего не вернула.
	Generate(ctx context.Context, messages []Message) (string, error)
	// Probe проверяет готовность бэкенда, не генерируя текст.
	Probe(ctx context.Context) Readiness
}

// Readiness результат проверки готовности бэкенда.
type Readiness struct {
	Backend     BackendID
	Ready       bool
	Model       string
	ModelPulled *bool    // только для local
	Models      []string // модели, найденные на локальном сервере
	Err         error
	Hint        string
}
