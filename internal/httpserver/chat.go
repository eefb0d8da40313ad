package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chefbot/internal/chat"
	"chefbot/internal/middleware"

	"github.com/xeipuuv/gojsonschema"
)

const maxChatBodyBytes = 1 << 20

// chatRequestSchema тело POST /api/chat: все известные поля строковые.
const chatRequestSchema = `{
	"type": "object",
	"properties": {
		"message":   {"type": "string"},
		"mode":      {"type": "string"},
		"language":  {"type": "string"},
		"service":   {"type": "string"},
		"sessionId": {"type": "string"}
	}
}`

var chatSchema = mustSchema(chatRequestSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

type chatRequest struct {
	Message   string `json:"message"`
	Mode      string `json:"mode"`
	Language  string `json:"language"`
	Service   string `json:"service"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Cached bool   `json:"cached"`
	Denied bool   `json:"denied,omitempty"`
}

type methodNotAllowedResponse struct {
	Error   string   `json:"error"`
	Detail  string   `json:"detail"`
	Allowed []string `json:"allowed"`
}

type chatHandler struct {
	service *chat.Service
	logger  *slog.Logger
}

func (h *chatHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	WriteJSON(w, http.StatusMethodNotAllowed, methodNotAllowedResponse{
		Error:   "Method not allowed",
		Detail:  "Use POST to send messages",
		Allowed: []string{http.MethodPost},
	})
}

func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, r, badRequest("Request body too large", ""))
			return
		}
		WriteJSONError(w, r, badRequest("Could not read request body", err.Error()))
		return
	}

	req, apiErr := decodeChatRequest(body)
	if apiErr != nil {
		WriteJSONError(w, r, *apiErr)
		return
	}

	resp, err := h.service.Chat(r.Context(), chat.Request{
		SessionID: firstNonEmpty(req.SessionID, r.Header.Get("X-Session-Id")),
		RequestID: r.Header.Get(middleware.HeaderRequestID),
		Message:   req.Message,
		Mode:      firstNonEmpty(req.Mode, r.Header.Get("X-Mode")),
		Language:  firstNonEmpty(req.Language, r.Header.Get("X-Language")),
		Backend:   firstNonEmpty(req.Service, r.Header.Get("X-Service")),
	})
	if err != nil {
		apiErr := errorFromService(err)
		if apiErr.Status >= http.StatusInternalServerError && apiErr.Code == CodeInternal {
			h.logger.Error("chat failed", slog.String("error", err.Error()))
		}
		WriteJSONError(w, r, apiErr)
		return
	}

	WriteJSON(w, http.StatusOK, chatResponse{Reply: resp.Reply, Cached: resp.Cached, Denied: resp.Denied})
}

// decodeChatRequest проверяет тело по схеме и разбирает его.
func decodeChatRequest(body []byte) (chatRequest, *APIError) {
	var req chatRequest
	if len(strings.TrimSpace(string(body))) == 0 {
		e := badRequest("Missing or empty message", "")
		return req, &e
	}

	result, err := chatSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		e := badRequest("Invalid JSON body", err.Error())
		return req, &e
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		e := badRequest("Invalid request body", strings.Join(problems, "; "))
		return req, &e
	}

	if err := json.Unmarshal(body, &req); err != nil {
		e := badRequest("Invalid JSON body", err.Error())
		return req, &e
	}
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
