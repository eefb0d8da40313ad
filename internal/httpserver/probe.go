package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chefbot/internal/llm"

	"github.com/sourcegraph/conc/iter"
)

const probeTimeout = 5 * time.Second

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type readinessResponse struct {
	OK          bool     `json:"ok"`
	Service     string   `json:"service"`
	Model       string   `json:"model,omitempty"`
	ModelPulled *bool    `json:"modelPulled,omitempty"`
	Models      []string `json:"models,omitempty"`
	Error       string   `json:"error,omitempty"`
	Hint        string   `json:"hint,omitempty"`
}

type statusResponse struct {
	Backends []readinessResponse `json:"backends"`
}

type probeHandler struct {
	backends *llm.Registry
}

func (h *probeHandler) health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: "chefbot-api"})
}

// serviceCheck проверяет готовность одного бэкенда: ?service=api|docker.
func (h *probeHandler) serviceCheck(w http.ResponseWriter, r *http.Request) {
	backend, err := h.backends.Resolve(r.URL.Query().Get("service"))
	if err != nil {
		WriteJSONError(w, r, unknownServiceError())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	res := backend.Probe(ctx)
	if !res.Ready {
		WriteJSONError(w, r, readinessError(res))
		return
	}
	WriteJSON(w, http.StatusOK, toReadinessResponse(res))
}

// status опрашивает все бэкенды параллельно.
func (h *probeHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	results := iter.Map(h.backends.All(), func(b *llm.Backend) readinessResponse {
		return toReadinessResponse((*b).Probe(ctx))
	})
	WriteJSON(w, http.StatusOK, statusResponse{Backends: results})
}

func toReadinessResponse(r llm.Readiness) readinessResponse {
	out := readinessResponse{
		OK:          r.Ready,
		Service:     string(r.Backend),
		Model:       r.Model,
		ModelPulled: r.ModelPulled,
		Models:      r.Models,
		Hint:        r.Hint,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func readinessError(r llm.Readiness) APIError {
	var be *llm.BackendError
	if errors.As(r.Err, &be) {
		e := backendError(be)
		if r.Hint != "" {
			e.Hint = r.Hint
		}
		return e
	}
	e := APIError{Status: http.StatusBadGateway, Code: CodeBackendUnavailable, Message: "Service not ready", Hint: r.Hint}
	if r.Err != nil {
		e.Detail = r.Err.Error()
	}
	return e
}
