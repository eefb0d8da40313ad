package llm

import (
	"fmt"
	"strings"
)

// backendAliases сопоставляет селекторы из запросов каноническим бэкендам.
var backendAliases = map[string]BackendID{
	"hosted": BackendHosted,
	"api":    BackendHosted,
	"local":  BackendLocal,
	"docker": BackendLocal,
	"ollama": BackendLocal,
}

// ParseBackendID разбирает селектор без учёта регистра.
// Пустой селектор означает hosted.
func ParseBackendID(selector string) (BackendID, bool) {
	s := strings.ToLower(strings.TrimSpace(selector))
	if s == "" {
		return BackendHosted, true
	}
	id, ok := backendAliases[s]
	return id, ok
}

// Registry набор доступных бэкендов.
type Registry struct {
	backends map[BackendID]Backend
	order    []BackendID
}

// NewRegistry регистрирует бэкенды по их ID; порядок сохраняется для All.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[BackendID]Backend, len(backends))}
	for _, b := range backends {
		if _, dup := r.backends[b.ID()]; !dup {
			r.order = append(r.order, b.ID())
		}
		r.backends[b.ID()] = b
	}
	return r
}

// Resolve возвращает бэкенд по селектору или ErrUnknownBackend.
func (r *Registry) Resolve(selector string) (Backend, error) {
	id, ok := ParseBackendID(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, selector)
	}
	b, ok := r.backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, selector)
	}
	return b, nil
}

// All возвращает бэкенды в порядке регистрации.
func (r *Registry) All() []Backend {
	out := make([]Backend, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.backends[id])
	}
	return out
}
