package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"chefbot/internal/chat"
	"chefbot/internal/llm"
	"chefbot/internal/middleware"
)

// Коды ошибок API.
const (
	CodeBadRequest         = "bad_request"
	CodeBackendUnavailable = "backend_unavailable"
	CodeBackendError       = "backend_error"
	CodeNotFound           = "not_found"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeInternal           = "internal_error"
)

// APIError ошибка, которую видит клиент.
type APIError struct {
	Status  int
	Code    string
	Message string
	Detail  string
	Hint    string
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"request_id"`
}

// WriteJSON отдаёт v как JSON с заданным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError возвращает ошибку в едином формате.
func WriteJSONError(w http.ResponseWriter, r *http.Request, e APIError) {
	WriteJSON(w, e.Status, errorEnvelope{
		Error: errorBody{
			Code:      e.Code,
			Message:   e.Message,
			Detail:    e.Detail,
			Hint:      e.Hint,
			RequestID: r.Header.Get(middleware.HeaderRequestID),
		},
	})
}

func badRequest(message, detail string) APIError {
	return APIError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message, Detail: detail}
}

// unknownServiceError ответ на селектор бэкенда, которого нет.
func unknownServiceError() APIError {
	e := badRequest("Invalid service", "")
	e.Hint = "Use service=api or service=docker"
	return e
}

// errorFromService переводит ошибку оркестратора в ответ API.
func errorFromService(err error) APIError {
	var be *llm.BackendError
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return badRequest("Missing or empty message", "")
	case errors.Is(err, chat.ErrUnknownBackend):
		e := unknownServiceError()
		e.Detail = err.Error()
		return e
	case errors.As(err, &be):
		return backendError(be)
	default:
		return APIError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error"}
	}
}

func backendError(be *llm.BackendError) APIError {
	message := "API unavailable"
	if be.Backend == llm.BackendLocal {
		message = "Model unavailable"
	}
	code := CodeBackendError
	if llm.IsConnection(be) {
		code = CodeBackendUnavailable
	}
	return APIError{
		Status:  http.StatusBadGateway,
		Code:    code,
		Message: message,
		Detail:  be.Error(),
		Hint:    be.Hint(),
	}
}
