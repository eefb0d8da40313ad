package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"chefbot/internal/domaingate"
	"chefbot/internal/llm"
	"chefbot/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend реализует llm.Backend для тестов.
type fakeBackend struct {
	id       llm.BackendID
	mu       sync.Mutex
	calls    [][]llm.Message
	generate func(call int, messages []llm.Message) (string, error)
}

func (f *fakeBackend) ID() llm.BackendID { return f.id }

func (f *fakeBackend) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	n := len(f.calls)
	f.mu.Unlock()
	return f.generate(n, messages)
}

func (f *fakeBackend) Probe(ctx context.Context) llm.Readiness {
	return llm.Readiness{Backend: f.id, Ready: true}
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func reply(text string) func(int, []llm.Message) (string, error) {
	return func(int, []llm.Message) (string, error) { return text, nil }
}

type testEnv struct {
	svc      *Service
	hosted   *fakeBackend
	local    *fakeBackend
	sessions *MemorySessionStore
	cache    *MemoryReplyCache
}

func newTestEnv(hostedGen func(int, []llm.Message) (string, error)) *testEnv {
	env := &testEnv{
		hosted:   &fakeBackend{id: llm.BackendHosted, generate: hostedGen},
		local:    &fakeBackend{id: llm.BackendLocal, generate: reply("Local answer: add the rice.")},
		sessions: NewMemorySessionStore(20),
		cache:    NewMemoryReplyCache(50),
	}
	env.svc = NewService(ServiceConfig{
		Policy:   domaingate.NewKeywordPolicy(),
		Backends: llm.NewRegistry(env.hosted, env.local),
		Sessions: env.sessions,
		Cache:    env.cache,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return env
}

const goodReply = "First, rinse the rice and add two cups of water."

func TestServiceChat_GeneratesAndPersists(t *testing.T) {
	env := newTestEnv(reply("  " + goodReply + "  "))
	ctx := context.Background()

	resp, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: "  How do I cook rice?  "})
	require.NoError(t, err)
	assert.Equal(t, goodReply, resp.Reply)
	assert.False(t, resp.Cached)
	assert.False(t, resp.Denied)

	turns, _ := env.sessions.Context(ctx, "s1")
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: "user", Content: "How do I cook rice?"}, turns[0])
	assert.Equal(t, Turn{Role: "assistant", Content: goodReply}, turns[1])
	assert.Equal(t, 1, env.cache.Len())

	// Запрос: system + размеченное сообщение пользователя.
	msgs := env.hosted.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "[LANGUAGE: English"), msgs[1].Content)
	assert.True(t, strings.HasSuffix(msgs[1].Content, "How do I cook rice?"))
}

func TestServiceChat_CacheHitSkipsBackend(t *testing.T) {
	env := newTestEnv(reply(goodReply))
	ctx := context.Background()

	_, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: "How do I cook rice?"})
	require.NoError(t, err)

	resp, err := env.svc.Chat(ctx, Request{SessionID: "s2", Message: "HOW DO I COOK RICE?"})
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, goodReply, resp.Reply)
	assert.Equal(t, 1, env.hosted.callCount())

	// Попадание в кэш всё равно попадает в историю.
	turns, _ := env.sessions.Context(ctx, "s2")
	require.Len(t, turns, 2)
	assert.Equal(t, "HOW DO I COOK RICE?", turns[0].Content)
}

func TestServiceChat_CacheIsPerBackendAndLanguage(t *testing.T) {
	env := newTestEnv(reply(goodReply))
	ctx := context.Background()

	_, err := env.svc.Chat(ctx, Request{Message: "How do I cook rice?"})
	require.NoError(t, err)

	resp, err := env.svc.Chat(ctx, Request{Message: "How do I cook rice?", Backend: "docker"})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 1, env.local.callCount())
}

func TestServiceChat_DeniedDoesNotTouchState(t *testing.T) {
	env := newTestEnv(reply(goodReply))
	ctx := context.Background()

	resp, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: "What's the weather today?"})
	require.NoError(t, err)
	assert.True(t, resp.Denied)
	assert.Equal(t, domaingate.DeniedMessage, resp.Reply)
	assert.Equal(t, 0, env.hosted.callCount())

	turns, _ := env.sessions.Context(ctx, "s1")
	assert.Empty(t, turns)
	assert.Equal(t, 0, env.cache.Len())
}

func TestServiceChat_EmptyMessage(t *testing.T) {
	env := newTestEnv(reply(goodReply))

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := env.svc.Chat(context.Background(), Request{Message: msg})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Equal(t, 0, env.hosted.callCount())
}

func TestServiceChat_UnknownBackend(t *testing.T) {
	env := newTestEnv(reply(goodReply))

	_, err := env.svc.Chat(context.Background(), Request{Message: "How do I cook rice?", Backend: "gemini"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestServiceChat_BackendErrorPersistsNothing(t *testing.T) {
	backendErr := &llm.BackendError{Backend: llm.BackendHosted, Kind: llm.KindConnection, Err: errors.New("refused")}
	env := newTestEnv(func(int, []llm.Message) (string, error) { return "", backendErr })
	ctx := context.Background()

	_, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: "How do I cook rice?"})
	var be *llm.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, llm.KindConnection, be.Kind)

	turns, _ := env.sessions.Context(ctx, "s1")
	assert.Empty(t, turns)
	assert.Equal(t, 0, env.cache.Len())
}

func TestServiceChat_EmptyReplyIsApplicationError(t *testing.T) {
	env := newTestEnv(reply("   "))
	ctx := context.Background()

	_, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: "How do I cook rice?"})
	var be *llm.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, llm.KindApplication, be.Kind)
	assert.ErrorIs(t, err, llm.ErrEmptyReply)

	turns, _ := env.sessions.Context(ctx, "s1")
	assert.Empty(t, turns)
	assert.Equal(t, 0, env.cache.Len())
}

func TestServiceChat_LanguageFixRetry(t *testing.T) {
	const indonesian = "Untuk membuat nasi goreng, panaskan minyak dengan api sedang."
	const english = "Heat the oil over medium heat, then add the rice."

	env := newTestEnv(func(call int, msgs []llm.Message) (string, error) {
		if call == 1 {
			return indonesian, nil
		}
		return english, nil
	})
	ctx := context.Background()

	resp, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: "How do I make fried rice?", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, english, resp.Reply)
	require.Equal(t, 2, env.hosted.callCount())

	fix := env.hosted.calls[1]
	require.Len(t, fix, 2)
	assert.Contains(t, fix[1].Content, indonesian)

	turns, _ := env.sessions.Context(ctx, "s1")
	assert.Equal(t, english, turns[1].Content)
}

func TestServiceChat_LanguageFixFailureKeepsOriginal(t *testing.T) {
	const indonesian = "Untuk membuat nasi goreng, panaskan minyak dengan api sedang."

	tests := []struct {
		name string
		fix  func() (string, error)
	}{
		{"error", func() (string, error) { return "", errors.New("boom") }},
		{"empty", func() (string, error) { return "  ", nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(func(call int, msgs []llm.Message) (string, error) {
				if call == 1 {
					return indonesian, nil
				}
				return tc.fix()
			})

			resp, err := env.svc.Chat(context.Background(), Request{Message: "How do I make fried rice?"})
			require.NoError(t, err)
			assert.Equal(t, indonesian, resp.Reply)
			assert.Equal(t, 2, env.hosted.callCount())
		})
	}
}

func TestServiceChat_CleansReply(t *testing.T) {
	env := newTestEnv(reply("Boil the pasta for ten minutes.\n\nWant best roleplay experience? Join now"))
	resp, err := env.svc.Chat(context.Background(), Request{Message: "How long to boil pasta?"})
	require.NoError(t, err)
	assert.Equal(t, "Boil the pasta for ten minutes.", resp.Reply)

	env = newTestEnv(reply("Hello! I'm doing well, thank you. How about you?"))
	resp, err = env.svc.Chat(context.Background(), Request{Message: "hello", Language: "id"})
	require.NoError(t, err)
	assert.Equal(t, domaingate.RedirectMessage(prompt.Indonesian), resp.Reply)
}

func TestServiceChat_SessionCapAndHistoryWindow(t *testing.T) {
	env := newTestEnv(reply(goodReply))
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := env.svc.Chat(ctx, Request{SessionID: "s1", Message: fmt.Sprintf("How do I cook rice, variant %d?", i)})
		require.NoError(t, err)
	}

	turns, err := env.svc.Context(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	assert.Equal(t, "How do I cook rice, variant 5?", turns[0].Content)

	// Последний запрос: system + 18 реплик истории + сообщение пользователя.
	last := env.hosted.calls[len(env.hosted.calls)-1]
	assert.Len(t, last, 20)
	assert.Equal(t, "How do I cook rice, variant 5?", last[1].Content)
}

func TestServiceChat_HistoryWindowFollowsStoreCap(t *testing.T) {
	hosted := &fakeBackend{id: llm.BackendHosted, generate: reply(goodReply)}
	local := &fakeBackend{id: llm.BackendLocal, generate: reply(goodReply)}
	sessions := NewMemorySessionStore(6)
	svc := NewService(ServiceConfig{
		Policy:   domaingate.NewKeywordPolicy(),
		Backends: llm.NewRegistry(hosted, local),
		Sessions: sessions,
		Cache:    NewMemoryReplyCache(50),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Chat(ctx, Request{SessionID: "s1", Message: fmt.Sprintf("How do I cook rice, variant %d?", i)})
		require.NoError(t, err)
	}

	turns, err := svc.Context(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, sessions.MaxTurns())
	assert.Equal(t, "How do I cook rice, variant 2?", turns[0].Content)

	// Лимит хранилища 6: в запрос уходят system + 4 реплики истории + сообщение пользователя.
	last := hosted.calls[len(hosted.calls)-1]
	assert.Len(t, last, 6)
	assert.Equal(t, "How do I cook rice, variant 2?", last[1].Content)
}

func TestServiceChat_ReplyCacheCap(t *testing.T) {
	env := newTestEnv(reply(goodReply))
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := env.svc.Chat(ctx, Request{Message: fmt.Sprintf("recipe number %d", i)})
		require.NoError(t, err)
	}
	assert.Equal(t, 50, env.cache.Len())

	// Самые старые ключи вытеснены: запрос снова уходит в бэкенд.
	resp, err := env.svc.Chat(ctx, Request{Message: "recipe number 0"})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 61, env.hosted.callCount())
}

func TestServiceClear(t *testing.T) {
	env := newTestEnv(reply(goodReply))
	ctx := context.Background()

	_, err := env.svc.Chat(ctx, Request{Message: "How do I cook rice?"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Clear(ctx, ""))

	turns, err := env.svc.Context(ctx, DefaultSessionID)
	require.NoError(t, err)
	assert.Empty(t, turns)
	// Кэш общий для всех сессий и переживает очистку.
	assert.Equal(t, 1, env.cache.Len())
}
