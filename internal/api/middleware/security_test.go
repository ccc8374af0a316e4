package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHostCheck(t *testing.T) {
	tests := []struct {
		host string
		want int
	}{
		{"localhost", http.StatusOK},
		{"localhost:8080", http.StatusOK},
		{"127.0.0.1", http.StatusOK},
		{"127.0.0.1:8080", http.StatusOK},
		{"[::1]:8080", http.StatusOK},
		{"evil.com", http.StatusForbidden},
		{"localhost.evil.com", http.StatusForbidden},
		{"192.168.1.10:8080", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()

			HostCheck(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Host %q: status %d, want %d", tt.host, rec.Code, tt.want)
			}
		})
	}
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://localhost", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},
		{"http://localhost.evil.com", false},
		{"https://evil.com", false},
		{"null", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()

			CORS(okHandler).ServeHTTP(rec, req)

			acao := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && acao != tt.origin {
				t.Errorf("ACAO = %q, want %q", acao, tt.origin)
			}
			if !tt.allowed && acao != "" {
				t.Errorf("ACAO = %q, want none", acao)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status %d, want 200", rec.Code)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/api/sign", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()

	CORS(inner).ServeHTTP(rec, req)

	if called {
		t.Error("preflight reached the inner handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Errorf("Access-Control-Max-Age = %q, want 3600", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Error("POST missing from Access-Control-Allow-Methods")
	}
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"get without body", http.MethodGet, "", http.StatusOK},
		{"post json", http.MethodPost, "application/json", http.StatusOK},
		{"post json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"post form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"post text", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"post missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/sign", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			RequireJSON(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
