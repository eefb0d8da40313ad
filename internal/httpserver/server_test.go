package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chefbot/internal/chat"
	"chefbot/internal/domaingate"
	"chefbot/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowBackend отвечает по очереди из replies, каждый вызов занимает delay.
type slowBackend struct {
	id      llm.BackendID
	delay   time.Duration
	replies []string

	mu    sync.Mutex
	calls int
}

func (b *slowBackend) ID() llm.BackendID { return b.id }

func (b *slowBackend) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	b.mu.Lock()
	n := b.calls
	b.calls++
	b.mu.Unlock()

	select {
	case <-time.After(b.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return b.replies[min(n, len(b.replies)-1)], nil
}

func (b *slowBackend) Probe(ctx context.Context) llm.Readiness {
	return llm.Readiness{Backend: b.id, Ready: true}
}

func (b *slowBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestNewServer_Timeouts(t *testing.T) {
	srv := NewServer(":8080", http.NotFoundHandler(), time.Minute)

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, readTimeout, srv.ReadTimeout)
	assert.Equal(t, idleTimeout, srv.IdleTimeout)
	assert.Equal(t, 2*time.Minute+writeSlack, srv.WriteTimeout)
}

func TestServer_WriteTimeoutCoversLanguageFix(t *testing.T) {
	const (
		backendTimeout = 100 * time.Millisecond
		callTime       = 90 * time.Millisecond
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Первый ответ на индонезийском при запросе на английском, второй вызов его исправляет.
	hosted := &slowBackend{
		id:    llm.BackendHosted,
		delay: callTime,
		replies: []string{
			"Untuk membuat nasi goreng, panaskan minyak dengan api sedang.",
			"First, heat the oil in a large pan over medium heat.",
		},
	}
	local := &slowBackend{id: llm.BackendLocal, replies: []string{"Heat the pan and add oil."}}
	registry := llm.NewRegistry(hosted, local)

	svc := chat.NewService(chat.ServiceConfig{
		Policy:   domaingate.NewKeywordPolicy(),
		Backends: registry,
		Sessions: chat.NewMemorySessionStore(20),
		Cache:    chat.NewMemoryReplyCache(50),
		Logger:   logger,
	})

	ts := httptest.NewUnstartedServer(NewRouter(RouterDeps{Logger: logger, Chat: svc, Backends: registry, CORSOrigin: "*"}))
	// Один вызов укладывается в backendTimeout, два вместе нет.
	ts.Config.WriteTimeout = writeTimeout(backendTimeout, 50*time.Millisecond)
	require.Less(t, backendTimeout+50*time.Millisecond, 2*callTime)
	ts.Start()
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"How do I cook rice?","language":"en"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "First, heat the oil in a large pan over medium heat.", body.Reply)
	assert.Equal(t, 2, hosted.callCount())
}
