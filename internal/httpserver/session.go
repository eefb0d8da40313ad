package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"chefbot/internal/chat"
)

type contextResponse struct {
	SessionID string      `json:"sessionId"`
	Turns     []chat.Turn `json:"turns"`
}

type clearResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type sessionHandler struct {
	service *chat.Service
	logger  *slog.Logger
}

func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-Id")); id != "" {
		return id
	}
	return chat.DefaultSessionID
}

func (h *sessionHandler) context(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	turns, err := h.service.Context(r.Context(), id)
	if err != nil {
		h.logger.Error("get session context", slog.String("error", err.Error()))
		WriteJSONError(w, r, errorFromService(err))
		return
	}
	WriteJSON(w, http.StatusOK, contextResponse{SessionID: id, Turns: turns})
}

func (h *sessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionID(r)); err != nil {
		h.logger.Error("clear session", slog.String("error", err.Error()))
		WriteJSONError(w, r, errorFromService(err))
		return
	}
	WriteJSON(w, http.StatusOK, clearResponse{OK: true, Message: "Context cleared"})
}
