package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	restricted := DefaultCORSConfig()
	restricted.AllowedOrigins = []string{"https://ops.example.com"}

	open := DefaultCORSConfig()
	open.AllowAll = true

	tests := []struct {
		name       string
		config     CORSConfig
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{"allowed origin", restricted, http.MethodGet, "https://ops.example.com", false, http.StatusOK, "https://ops.example.com"},
		{"unknown origin passes without headers", restricted, http.MethodGet, "https://evil.example.com", false, http.StatusOK, ""},
		{"unknown origin preflight", restricted, http.MethodOptions, "https://evil.example.com", true, http.StatusForbidden, ""},
		{"allowed preflight", restricted, http.MethodOptions, "https://ops.example.com", true, http.StatusNoContent, "https://ops.example.com"},
		{"allow all", open, http.MethodPost, "https://any.example.com", false, http.StatusOK, "*"},
		{"no origin", restricted, http.MethodGet, "", false, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/tenants", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			CORS(tt.config)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
			}
		})
	}
}
