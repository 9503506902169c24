package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/unitconv/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
})

func TestTrustedRealIP(t *testing.T) {
	mw := TrustedRealIP([]string{"10.0.0.0/8", "127.0.0.1", "not-a-cidr"})

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"trusted proxy with X-Real-IP", "10.1.2.3:5555", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"trusted single address", "127.0.0.1:80", map[string]string{"X-Real-IP": "203.0.113.8"}, "203.0.113.8"},
		{"first X-Forwarded-For hop", "10.1.2.3:5555", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"X-Real-IP wins over X-Forwarded-For", "10.1.2.3:5555", map[string]string{"X-Real-IP": "203.0.113.9", "X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{"untrusted caller cannot spoof", "192.0.2.10:4444", map[string]string{"X-Real-IP": "203.0.113.7"}, "192.0.2.10:4444"},
		{"invalid header ignored", "10.1.2.3:5555", map[string]string{"X-Real-IP": "bogus"}, "10.1.2.3:5555"},
		{"no headers", "10.1.2.3:5555", nil, "10.1.2.3:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			mw(okHandler).ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"key-one", "key-two"}}
	h := APIKeyAuth(cfg)(okHandler)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
		code   string
	}{
		{"valid key", "X-API-Key", "key-two", http.StatusOK, ""},
		{"bearer token", "Authorization", "Bearer key-one", http.StatusOK, ""},
		{"missing key", "", "", http.StatusUnauthorized, "AUTH001"},
		{"wrong key", "X-API-Key", "nope", http.StatusForbidden, "AUTH002"},
		{"prefix of a key", "X-API-Key", "key-", http.StatusForbidden, "AUTH002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.code != "" {
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}
				if !strings.Contains(rec.Body.String(), tt.code) {
					t.Errorf("body %q missing code %s", rec.Body.String(), tt.code)
				}
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth(&config.SecurityConfig{})(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
}

func TestAPIKeyAuth_NoKeysConfigured(t *testing.T) {
	h := APIKeyAuth(&config.SecurityConfig{RequireAPIKey: true})(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories/Nope", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=7", "path=/api/categories/Nope"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}
