package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"finai/backend/internal/auth"
	"finai/backend/internal/models"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	key := "client"
	if !limiter.Allow(key) {
		t.Fatalf("expected allow on first")
	}
	if !limiter.Allow(key) {
		t.Fatalf("expected allow on second")
	}
	if limiter.Allow(key) {
		t.Fatalf("expected block on third")
	}
	if !limiter.Allow("other") {
		t.Fatalf("expected separate budget per key")
	}
}

func TestValidateCSRF(t *testing.T) {
	user := auth.User{CSRF: "token"}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := ValidateCSRF(req, user); err == nil {
		t.Fatalf("expected csrf error")
	}
	req.Header.Set("X-CSRF-Token", "token")
	if err := ValidateCSRF(req, user); err != nil {
		t.Fatalf("unexpected csrf error: %v", err)
	}
	if err := ValidateCSRF(httptest.NewRequest(http.MethodGet, "/", nil), user); err != nil {
		t.Fatalf("GET must not require csrf: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	service, err := auth.NewService("secret", time.Hour)
	require.NoError(t, err)
	token, err := service.GenerateToken(models.User{ID: 5, Username: "ravi"}, "c")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	_, err = Authenticate(req, service)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Bearer "+token)
	user, err := Authenticate(req, service)
	require.NoError(t, err)
	assert.EqualValues(t, 5, user.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ws?token="+token, nil)
	user, err = Authenticate(req, service)
	require.NoError(t, err)
	assert.Equal(t, "ravi", user.Username)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	_, err = Authenticate(req, service)
	assert.Error(t, err)
}

func TestHandleCORS(t *testing.T) {
	rec := httptest.NewRecorder()
	handled := HandleCORS(rec, httptest.NewRequest(http.MethodOptions, "/api/gemini/chat", nil), "http://localhost:5173")
	assert.True(t, handled)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	assert.False(t, HandleCORS(rec, httptest.NewRequest(http.MethodGet, "/", nil), ""))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientKey(req, false))
	assert.Equal(t, "10.0.0.1", ClientKey(req, true))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
	assert.Equal(t, "10.0.0.1", ClientKey(req, false))
	assert.Equal(t, "203.0.113.9", ClientKey(req, true))
}

func TestRateLimiterSweepsExpiredKeys(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		limiter.Allow(fmt.Sprintf("spoofed-%d", i))
	}
	assert.Equal(t, 100, limiter.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("fresh"))
	assert.Equal(t, 1, limiter.Len())

	assert.False(t, limiter.Allow("fresh"))
	now = now.Add(30 * time.Second)
	assert.False(t, limiter.Allow("fresh"))
	assert.Equal(t, 1, limiter.Len())
}

func TestContentSecurityPolicy(t *testing.T) {
	csp := ContentSecurityPolicy("https://app.finai.example")
	assert.Contains(t, csp, "connect-src 'self' https://app.finai.example wss://app.finai.example;")
	assert.NotContains(t, csp, "localhost")

	csp = ContentSecurityPolicy("http://localhost:5173")
	assert.Contains(t, csp, "connect-src 'self' http://localhost:5173 ws://localhost:5173;")

	assert.Contains(t, ContentSecurityPolicy(""), "connect-src 'self';")

	rec := httptest.NewRecorder()
	SecurityHeaders(rec, csp)
	assert.Equal(t, csp, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", existing)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, existing, seen)

	req.Header.Set("X-Request-ID", "not-a-uuid\r\n")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid\r\n", seen)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	handler := RequestID(AccessLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/market/data", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 15, fields["bytes"])
	assert.Equal(t, "/api/market/data", fields["path"])
	assert.NotEmpty(t, fields["request_id"])
}
