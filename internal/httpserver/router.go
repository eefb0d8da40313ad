package httpserver

import (
	"log/slog"
	"net/http"

	"chefbot/internal/chat"
	"chefbot/internal/llm"
	"chefbot/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Logger      *slog.Logger
	Chat        *chat.Service
	Backends    *llm.Registry
	CORSOrigin  string
	ChatLimiter *middleware.RateLimiter // nil отключает ограничение
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS(deps.CORSOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, r, APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, r, APIError{Status: http.StatusMethodNotAllowed, Code: CodeMethodNotAllowed, Message: "Method not allowed"})
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	chatH := &chatHandler{service: deps.Chat, logger: deps.Logger}
	sessionH := &sessionHandler{service: deps.Chat, logger: deps.Logger}
	probeH := &probeHandler{backends: deps.Backends}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", probeH.health)
		r.Get("/service-check", probeH.serviceCheck)
		r.Get("/status", probeH.status)

		r.Get("/context", sessionH.context)
		r.Post("/clear", sessionH.clear)

		// Все методы кроме POST получают 405 с подсказкой; POST регистрируется следом и перекрывает его.
		r.HandleFunc("/chat", chatH.methodNotAllowed)
		if deps.ChatLimiter != nil {
			r.With(deps.ChatLimiter.Middleware).Post("/chat", chatH.chat)
		} else {
			r.Post("/chat", chatH.chat)
		}
	})

	return r
}
