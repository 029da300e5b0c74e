package errors_test

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// renderSafely runs fn with template failures tolerated; the status code is
// written before rendering, so it survives a missing engine.
func renderSafely(fn func()) {
	defer func() { recover() }()
	fn()
}

func TestRenderFunctions_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		render func(w http.ResponseWriter, r *http.Request)
		want   int
	}{
		{"forbidden", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderForbidden(w, r, "", "") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderNotFound(w, r, "", "") }, http.StatusNotFound},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderUnauthorized(w, r, "") }, http.StatusUnauthorized},
		{"bad request", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderBadRequest(w, r, "bad", "") }, http.StatusBadRequest},
		{"too many", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderTooManyRequests(w, r, "slow", "") }, http.StatusTooManyRequests},
		{"server error", func(w http.ResponseWriter, r *http.Request) { uierrors.RenderServerError(w, r, "", "") }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/x", nil)
			rec := httptest.NewRecorder()
			renderSafely(func() { tt.render(rec, req) })
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestErrorLogger_LogServerError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	errLog := uierrors.NewErrorLogger(zap.New(core))

	req := httptest.NewRequest("POST", "/task/update/5", nil)
	rec := httptest.NewRecorder()
	renderSafely(func() {
		errLog.LogServerError(rec, req, "update failed", stderrors.New("boom"), "A database error occurred.", "/")
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	entries := logs.FilterMessage("update failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/task/update/5" {
		t.Errorf("path field: got %v", entries[0].ContextMap()["path"])
	}
}

func TestErrorLogger_NilLogger(t *testing.T) {
	errLog := uierrors.NewErrorLogger(nil)
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	renderSafely(func() { errLog.LogNotFound(rec, req, "missing", "", "") })
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}
