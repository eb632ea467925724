package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "cgiad/internal/pkg/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", apperrors.NotFound("asset", "x.png"), 404, "NOT_FOUND", "asset not found"},
		{"validation", apperrors.ValidationField("duration", "duration must be a positive integer"), 400, "VALIDATION_ERROR", "duration must be a positive integer"},
		{"generation", apperrors.Wrap(apperrors.Generation("render", errors.New("boom")), "service.generate", "Error generating video: boom"), 500, "GENERATION_ERROR", "Error generating video: boom"},
		{"storage", apperrors.Storage("assets.store", errors.New("disk full")), 500, "STORAGE_ERROR", "storage operation failed"},
		{"plain", errors.New("secret detail"), 500, "INTERNAL_ERROR", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type %q", ct)
			}
			env := decodeEnvelope(t, rec)
			if env.Error.Code != tt.code || env.Error.Message != tt.message {
				t.Errorf("unexpected envelope %+v", env.Error)
			}
		})
	}
}

func TestWriteErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperrors.ValidationField("effect", "effect is required"))

	env := decodeEnvelope(t, rec)
	if env.Error.Details["field"] != "effect" {
		t.Errorf("expected field detail, got %v", env.Error.Details)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("allowed origin is echoed", func(t *testing.T) {
		h := CORS(CORSOptions{AllowedOrigins: []string{"http://app.local"}, AllowCredentials: true})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://app.local")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusTeapot {
			t.Errorf("expected handler to run, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.local" {
			t.Errorf("unexpected allow-origin %q", got)
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Errorf("expected credentials header")
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		h := CORS(CORSOptions{AllowedOrigins: []string{"http://app.local"}})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.local")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin, got %q", got)
		}
	})

	t.Run("wildcard preflight", func(t *testing.T) {
		h := CORS(CORSOptions{AllowedOrigins: []string{"*"}, MaxAgeSeconds: 60})(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
		req.Header.Set("Origin", "http://anything.local")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Max-Age"); got != "60" {
			t.Errorf("unexpected max-age %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://anything.local" {
			t.Errorf("unexpected allow-origin %q", got)
		}
	})
}
