package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError пишет ошибку в том же конверте, что и обработчики API.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": r.Header.Get(HeaderRequestID),
		},
	})
}
