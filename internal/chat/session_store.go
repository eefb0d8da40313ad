package chat

import (
	"context"
	"sync"
)

// Turn одна реплика в истории сессии.
type Turn struct {
	Role    string `json:"role"` // "user" или "assistant"
	Content string `json:"content"`
}

// DefaultSessionID используется, когда клиент не передал идентификатор сессии.
const DefaultSessionID = "default"

// SessionStore интерфейс хранилища истории сессий.
type SessionStore interface {
	// Context возвращает копию истории. Сессия создаётся при первом обращении.
	Context(ctx context.Context, sessionID string) ([]Turn, error)

	// Append добавляет реплики в конец истории, отбрасывая самые старые сверх лимита.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Clear очищает историю сессии.
	Clear(ctx context.Context, sessionID string) error

	// MaxTurns возвращает лимит длины истории. Сервис берёт из него окно контекста.
	MaxTurns() int
}

// MemorySessionStore потокобезопасное in-memory хранилище с ограничением длины истории.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewMemorySessionStore создаёт хранилище; maxTurns < 2 приводится к 2,
// чтобы пара user+assistant всегда помещалась.
func NewMemorySessionStore(maxTurns int) *MemorySessionStore {
	if maxTurns < 2 {
		maxTurns = 2
	}
	return &MemorySessionStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

// MaxTurns возвращает лимит длины истории.
func (s *MemorySessionStore) MaxTurns() int {
	return s.maxTurns
}

func (s *MemorySessionStore) Context(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	turns, ok := s.sessions[sessionID]
	if ok {
		// Возвращаем копию, чтобы избежать изменений снаружи
		out := make([]Turn, len(turns))
		copy(out, turns)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = []Turn{}
	}
	out := make([]Turn, len(s.sessions[sessionID]))
	copy(out, s.sessions[sessionID])
	return out, nil
}

func (s *MemorySessionStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], turns...)
	if over := len(history) - s.maxTurns; over > 0 {
		trimmed := make([]Turn, s.maxTurns)
		copy(trimmed, history[over:])
		history = trimmed
	}
	s.sessions[sessionID] = history
	return nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = []Turn{}
	return nil
}
