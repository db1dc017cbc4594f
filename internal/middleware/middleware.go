package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"finai/backend/internal/auth"
)

const (
	csrfHeader      = "X-CSRF-Token"
	requestIDHeader = "X-Request-ID"
)

func HandleCORS(w http.ResponseWriter, r *http.Request, allowedOrigin string) bool {
	if allowedOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
	}
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-CSRF-Token, X-Request-ID")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// ContentSecurityPolicy allows the API itself and the configured frontend
// origin, including its websocket scheme, as connect targets.
func ContentSecurityPolicy(allowedOrigin string) string {
	connect := []string{"'self'"}
	if u, err := url.Parse(allowedOrigin); err == nil && u.Host != "" {
		origin := u.Scheme + "://" + u.Host
		connect = append(connect, origin)
		switch u.Scheme {
		case "http":
			connect = append(connect, "ws://"+u.Host)
		case "https":
			connect = append(connect, "wss://"+u.Host)
		}
	}
	return "default-src 'self'; connect-src " + strings.Join(connect, " ") +
		"; img-src 'self' data:; style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; font-src 'self' https://fonts.gstatic.com"
}

func SecurityHeaders(w http.ResponseWriter, csp string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", csp)
}

func Authenticate(r *http.Request, service *auth.Service) (auth.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return service.ParseToken(token)
		}
		return auth.User{}, errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return auth.User{}, errors.New("invalid authorization")
	}
	return service.ParseToken(strings.TrimSpace(parts[1]))
}

func ValidateCSRF(r *http.Request, user auth.User) error {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodDelete:
		value := r.Header.Get(csrfHeader)
		if value == "" || value != user.CSRF {
			return errors.New("invalid csrf token")
		}
	}
	return nil
}

// RateLimiter is a fixed-window counter per key. Expired windows are swept
// at most once per window, so idle keys do not accumulate.
type RateLimiter struct {
	limit     int
	window    time.Duration
	mu        sync.Mutex
	items     map[string]*rateEntry
	nextSweep time.Time
	now       func() time.Time
}

type rateEntry struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, items: map[string]*rateEntry{}, now: time.Now}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.After(rl.nextSweep) {
		rl.sweep(now)
	}
	entry, ok := rl.items[key]
	if !ok || now.After(entry.reset) {
		rl.items[key] = &rateEntry{count: 1, reset: now.Add(rl.window)}
		return true
	}
	if entry.count >= rl.limit {
		return false
	}
	entry.count++
	return true
}

// Len reports how many keys are currently tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.items)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, entry := range rl.items {
		if now.After(entry.reset) {
			delete(rl.items, key)
		}
	}
	rl.nextSweep = now.Add(rl.window)
}

// ClientKey identifies an anonymous caller. X-Forwarded-For is honored only
// behind a trusted proxy, and then its last hop is used because that is the
// address the proxy itself saw.
func ClientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			if hop := strings.TrimSpace(parts[len(parts)-1]); hop != "" {
				return hop
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
