package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chefbot/internal/domaingate"
	"chefbot/internal/langcheck"
	"chefbot/internal/llm"
	"chefbot/internal/prompt"
)

var (
	// ErrEmptyMessage сообщение пустое или состоит из пробелов.
	ErrEmptyMessage = errors.New("missing or empty message")
	// ErrUnknownBackend селектор бэкенда не распознан.
	ErrUnknownBackend = llm.ErrUnknownBackend
)

// MaxBackendCallsPerTurn верхняя граница вызовов бэкенда за один ход:
// основной запрос и не больше одного исправления языка.
const MaxBackendCallsPerTurn = 2

// Стадии обработки одного хода диалога, пишутся в debug-лог.
const (
	stageReceived        = "received"
	stageDomainChecked   = "domain_checked"
	stageCacheChecked    = "cache_checked"
	stageGenerated       = "generated"
	stageLanguageChecked = "language_checked"
	stagePersisted       = "persisted"
	stageResponded       = "responded"
)

// Request один ход диалога. Mode, Language и Backend передаются как есть
// и нормализуются сервисом.
type Request struct {
	SessionID string
	RequestID string
	Message   string
	Mode      string
	Language  string
	Backend   string
}

// Response ответ на ход диалога.
type Response struct {
	Reply  string
	Cached bool
	Denied bool
}

// Service оркестрирует ход диалога: доменный фильтр, кэш, история,
// вызов бэкенда, проверка языка ответа и сохранение.
type Service struct {
	policy   domaingate.Policy
	backends *llm.Registry
	sessions SessionStore
	cache    ReplyCache
	maxTurns int
	logger   *slog.Logger
}

// ServiceConfig конфигурация для создания Service.
type ServiceConfig struct {
	Policy   domaingate.Policy
	Backends *llm.Registry
	Sessions SessionStore // его MaxTurns задаёт окно истории: в запрос уходят последние MaxTurns-2 реплик
	Cache    ReplyCache
	Logger   *slog.Logger
}

// NewService создаёт сервис диалога из готовых зависимостей.
func NewService(cfg ServiceConfig) *Service {
	maxTurns := cfg.Sessions.MaxTurns()
	if maxTurns < 2 {
		maxTurns = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		policy:   cfg.Policy,
		backends: cfg.Backends,
		sessions: cfg.Sessions,
		cache:    cfg.Cache,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Chat выполняет один ход диалога.
// При ошибке бэкенда история и кэш не изменяются.
func (s *Service) Chat(ctx context.Context, req Request) (Response, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return Response{}, ErrEmptyMessage
	}

	backend, err := s.backends.Resolve(req.Backend)
	if err != nil {
		return Response{}, err
	}
	mode := prompt.ParseMode(req.Mode)
	lang := prompt.ParseLanguage(req.Language)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	log := s.logger.With(
		slog.String("session_id", sessionID),
		slog.String("backend", string(backend.ID())),
		slog.String("mode", string(mode)),
		slog.String("language", string(lang)),
	)
	if req.RequestID != "" {
		log = log.With(slog.String("request_id", req.RequestID))
	}
	log.Debug("chat turn", slog.String("stage", stageReceived))

	decision := s.policy.Check(text, lang)
	log.Debug("chat turn", slog.String("stage", stageDomainChecked), slog.Bool("allowed", decision.Allowed))
	if !decision.Allowed {
		log.Info("message denied by domain gate")
		return Response{Reply: decision.Message, Denied: true}, nil
	}

	key := CacheKey(text, mode, lang, backend.ID())
	if cached, ok := s.cache.Get(ctx, key); ok {
		log.Debug("chat turn", slog.String("stage", stageCacheChecked), slog.Bool("hit", true))
		log.Info("reply served from cache")
		s.persist(ctx, log, sessionID, text, cached)
		return Response{Reply: cached, Cached: true}, nil
	}
	log.Debug("chat turn", slog.String("stage", stageCacheChecked), slog.Bool("hit", false))

	history, err := s.sessions.Context(ctx, sessionID)
	if err != nil {
		return Response{}, fmt.Errorf("get session context: %w", err)
	}

	reply, err := backend.Generate(ctx, s.buildMessages(history, text, mode, lang))
	if err != nil {
		log.Error("backend request failed", slog.String("error", err.Error()))
		return Response{}, err
	}
	reply = stripFooters(reply)
	if reply == "" {
		err := &llm.BackendError{Backend: backend.ID(), Kind: llm.KindApplication, Err: llm.ErrEmptyReply}
		log.Error("backend returned empty reply")
		return Response{}, err
	}
	if isGreetingReply(reply) {
		log.Info("greeting reply replaced with redirect")
		reply = domaingate.RedirectMessage(lang)
	}
	log.Debug("chat turn", slog.String("stage", stageGenerated))

	reply = s.ensureLanguage(ctx, log, backend, reply, lang)
	log.Debug("chat turn", slog.String("stage", stageLanguageChecked))

	s.persist(ctx, log, sessionID, text, reply)
	s.cache.Put(ctx, key, reply)
	log.Debug("chat turn", slog.String("stage", stagePersisted))

	log.Debug("chat turn", slog.String("stage", stageResponded))
	return Response{Reply: reply}, nil
}

// Context возвращает историю сессии.
func (s *Service) Context(ctx context.Context, sessionID string) ([]Turn, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return s.sessions.Context(ctx, sessionID)
}

// Clear очищает историю сессии. Кэш ответов общий и не сбрасывается.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return s.sessions.Clear(ctx, sessionID)
}

// buildMessages собирает system prompt, хвост истории и размеченное сообщение пользователя.
func (s *Service) buildMessages(history []Turn, text string, mode prompt.Mode, lang prompt.Language) []llm.Message {
	if limit := s.maxTurns - 2; len(history) > limit {
		history = history[len(history)-limit:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt.BuildSystemPrompt(mode, lang)})
	for _, t := range history {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt.BuildUserMessage(text, mode, lang)})
	return messages
}

// ensureLanguage делает не больше одного корректирующего вызова, если ответ
// написан не на том языке. При неудаче остаётся исходный ответ.
func (s *Service) ensureLanguage(ctx context.Context, log *slog.Logger, backend llm.Backend, reply string, lang prompt.Language) string {
	res := langcheck.Validate(reply, lang)
	if res.Valid {
		return reply
	}

	fix := prompt.BuildLanguageFix(reply, lang)
	fixed, err := backend.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fix.System},
		{Role: llm.RoleUser, Content: fix.User},
	})
	if err != nil {
		log.Warn("language fix retry failed",
			slog.String("expected", lang.Name()),
			slog.String("reason", string(res.Reason)),
			slog.String("error", err.Error()))
		return reply
	}
	fixed = stripFooters(fixed)
	if fixed == "" {
		log.Warn("language fix returned empty reply", slog.String("reason", string(res.Reason)))
		return reply
	}

	log.Info("language fix applied",
		slog.String("expected", lang.Name()),
		slog.String("reason", string(res.Reason)))
	return fixed
}

// persist сохраняет пару реплик. Ошибка хранилища логируется, ответ всё равно отдаётся.
func (s *Service) persist(ctx context.Context, log *slog.Logger, sessionID, userText, reply string) {
	err := s.sessions.Append(ctx, sessionID,
		Turn{Role: llm.RoleUser, Content: userText},
		Turn{Role: llm.RoleAssistant, Content: reply},
	)
	if err != nil {
		log.Error("failed to save session history", slog.String("error", err.Error()))
	}
}
