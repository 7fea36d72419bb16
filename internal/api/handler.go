package api

import (
	"io"
	"net/http"
)

// ContentType is sent with every response.
const ContentType = "text/plain; charset=utf-8"

// Handler serves membership checks.
type Handler struct {
	checker Checker
}

// NewHandler creates a new HTTP handler.
func NewHandler(checker Checker) *Handler {
	return &Handler{checker: checker}
}

// Check handles GET /api/check?address=...
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	out := h.checker.Check(r.Context(), r.URL.Query().Get("address"))
	status, body := out.Response()
	writeText(w, status, body)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
