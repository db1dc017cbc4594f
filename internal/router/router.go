package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finai/backend/internal/auth"
	"finai/backend/internal/handlers"
	"finai/backend/internal/middleware"
)

type Router struct {
	api     *handlers.API
	auth    *auth.Service
	limiter *middleware.RateLimiter
	origin  string
	csp     string
	logger  *zap.Logger
	metrics http.Handler

	// TrustProxy keys anonymous rate limits by X-Forwarded-For.
	TrustProxy bool
}

func New(api *handlers.API, authService *auth.Service, limiter *middleware.RateLimiter, origin string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		api:     api,
		auth:    authService,
		limiter: limiter,
		origin:  origin,
		csp:     middleware.ContentSecurityPolicy(origin),
		logger:  logger,
		metrics: promhttp.Handler(),
	}
}

// Handler wraps the router with request IDs and access logging.
func (rt *Router) Handler() http.Handler {
	return middleware.RequestID(middleware.AccessLog(rt.logger)(rt))
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if middleware.HandleCORS(w, r, rt.origin) {
		return
	}
	middleware.SecurityHeaders(w, rt.csp)

	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	switch path {
	case "/healthz":
		writeStatus(w, http.StatusOK, "{\"status\":\"ok\"}")
		return
	case "/metrics":
		rt.metrics.ServeHTTP(w, r)
		return
	}

	switch {
	case requiresAuth(path):
		user, err := middleware.Authenticate(r, rt.auth)
		if err != nil {
			writeStatus(w, http.StatusUnauthorized, "{\"error\":\"unauthorized\"}")
			return
		}
		if rt.limiter != nil {
			key := "user:" + strconv.FormatInt(user.ID, 10)
			if !rt.limiter.Allow(key) {
				writeStatus(w, http.StatusTooManyRequests, "{\"error\":\"rate limit exceeded\"}")
				return
			}
		}
		if err := middleware.ValidateCSRF(r, user); err != nil {
			writeStatus(w, http.StatusForbidden, "{\"error\":\"invalid csrf token\"}")
			return
		}
		r = r.WithContext(auth.WithUser(r.Context(), user))
	default:
		if rt.limiter != nil && strings.HasPrefix(path, "/api/") {
			key := middleware.ClientKey(r, rt.TrustProxy)
			if !rt.limiter.Allow(key) {
				writeStatus(w, http.StatusTooManyRequests, "{\"error\":\"rate limit exceeded\"}")
				return
			}
		}
		// Public routes still attach a valid session so results can be saved.
		if hasCredentials(r) {
			user, err := middleware.Authenticate(r, rt.auth)
			if err == nil {
				if err := middleware.ValidateCSRF(r, user); err != nil {
					writeStatus(w, http.StatusForbidden, "{\"error\":\"invalid csrf token\"}")
					return
				}
				r = r.WithContext(auth.WithUser(r.Context(), user))
			}
		}
	}

	switch {
	case path == "/api/gemini/chat":
		if r.Method == http.MethodPost {
			rt.api.Chat(w, r)
			return
		}
	case path == "/api/sentiment/analyze":
		if r.Method == http.MethodPost {
			rt.api.AnalyzeSentiment(w, r)
			return
		}
	case path == "/api/gemini/recommendations":
		if r.Method == http.MethodPost {
			rt.api.Recommendations(w, r)
			return
		}
	case path == "/api/tensorflow/financial-health":
		if r.Method == http.MethodPost {
			rt.api.ScoreFinancialHealth(w, r)
			return
		}
	case path == "/api/gemini/scam-check":
		if r.Method == http.MethodPost {
			rt.api.CheckScam(w, r)
			return
		}
	case path == "/api/gemini/learn":
		if r.Method == http.MethodPost {
			rt.api.Learn(w, r)
			return
		}
	case path == "/api/market/data":
		if r.Method == http.MethodGet {
			rt.api.MarketData(w, r)
			return
		}
	case path == "/api/v1/ws":
		if r.Method == http.MethodGet {
			rt.api.ServeWebsocket(w, r)
			return
		}
	case path == "/api/v1/auth/login":
		if r.Method == http.MethodPost {
			rt.api.Login(w, r)
			return
		}
	case path == "/api/v1/auth/register":
		if r.Method == http.MethodPost {
			rt.api.Register(w, r)
			return
		}
	case path == "/api/v1/auth/me":
		if r.Method == http.MethodGet {
			rt.api.Me(w, r)
			return
		}
	case path == "/api/v1/financial-health":
		if r.Method == http.MethodGet {
			rt.api.LatestFinancialHealth(w, r)
			return
		}
	case path == "/api/v1/goals":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListGoals(w, r)
			return
		case http.MethodPost:
			rt.api.CreateGoal(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/v1/goals/"):
		if id, ok := handlers.ParseID(strings.TrimPrefix(path, "/api/v1/goals/")); ok {
			switch r.Method {
			case http.MethodPatch:
				rt.api.UpdateGoal(w, r, id)
				return
			case http.MethodDelete:
				rt.api.DeleteGoal(w, r, id)
				return
			}
		}
	case path == "/api/v1/chat/sessions":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListChatSessions(w, r)
			return
		case http.MethodPost:
			rt.api.CreateChatSession(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/v1/chat/sessions/"):
		segments := strings.Split(strings.TrimPrefix(path, "/api/v1/chat/sessions/"), "/")
		if len(segments) == 2 && segments[1] == "messages" && r.Method == http.MethodGet {
			rt.api.GetChatMessages(w, r, segments[0])
			return
		}
	case path == "/api/v1/discussions":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListDiscussions(w, r)
			return
		case http.MethodPost:
			rt.api.CreateDiscussion(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/v1/discussions/"):
		segments := strings.Split(strings.TrimPrefix(path, "/api/v1/discussions/"), "/")
		id, ok := handlers.ParseID(segments[0])
		if !ok {
			break
		}
		switch {
		case len(segments) == 1 && r.Method == http.MethodGet:
			rt.api.GetDiscussion(w, r, id)
			return
		case len(segments) == 2 && segments[1] == "replies":
			switch r.Method {
			case http.MethodGet:
				rt.api.ListReplies(w, r, id)
				return
			case http.MethodPost:
				rt.api.CreateReply(w, r, id)
				return
			}
		}
	case path == "/api/v1/llm/usage":
		if r.Method == http.MethodGet {
			rt.api.LLMUsage(w, r)
			return
		}
	case path == "/api/v1/llm/health":
		if r.Method == http.MethodGet {
			rt.api.LLMHealth(w, r)
			return
		}
	}

	writeStatus(w, http.StatusNotFound, "{\"error\":\"not found\"}")
}

func requiresAuth(path string) bool {
	switch path {
	case "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/ws":
		return false
	default:
		return strings.HasPrefix(path, "/api/v1/")
	}
}

func hasCredentials(r *http.Request) bool {
	return r.Header.Get("Authorization") != "" || r.URL.Query().Get("token") != ""
}
