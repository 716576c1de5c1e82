package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testGuarded(secret string) http.HandlerFunc {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := NewTriggerGuard(secret, log)
	return guard.Wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTriggerGuard(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		method     string
		authHeader string
		wantStatus int
	}{
		{"GET rejected regardless of auth", "s", http.MethodGet, "Bearer s", http.StatusMethodNotAllowed},
		{"PUT rejected", "s", http.MethodPut, "Bearer s", http.StatusMethodNotAllowed},
		{"missing header", "s", http.MethodPost, "", http.StatusUnauthorized},
		{"wrong scheme", "s", http.MethodPost, "Basic czpz", http.StatusUnauthorized},
		{"wrong token", "s", http.MethodPost, "Bearer nope", http.StatusUnauthorized},
		{"empty bearer token", "s", http.MethodPost, "Bearer ", http.StatusUnauthorized},
		{"correct token", "s", http.MethodPost, "Bearer s", http.StatusOK},
		{"no secret configured skips check", "", http.MethodPost, "", http.StatusOK},
		{"no secret still enforces method", "", http.MethodGet, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := testGuarded(tt.secret)
			req := httptest.NewRequest(tt.method, "/api/v1/jobs/process-pending-customers", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header    string
		wantToken string
		wantOK    bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"bearer abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		if token != tt.wantToken || ok != tt.wantOK {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, token, ok, tt.wantToken, tt.wantOK)
		}
	}
}
