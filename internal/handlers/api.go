package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"finai/backend/internal/auth"
	"finai/backend/internal/crypto"
	"finai/backend/internal/db"
	"finai/backend/internal/llm"
	"finai/backend/internal/market"
	"finai/backend/internal/realtime"
)

// Advisor is the AI side of the API. Every method returns an answer, falling
// back to offline content when no provider can help.
type Advisor interface {
	Chat(ctx context.Context, message string, history []llm.ChatMessage, language string) string
	AnalyzeSentiment(ctx context.Context, text string) llm.SentimentResult
	Recommendations(ctx context.Context, riskProfile string, amount float64, goals []string) []llm.InvestmentRecommendation
	EducationalContent(ctx context.Context, topic, difficulty, language string) llm.EducationalContent
	CheckScam(ctx context.Context, description string) llm.ScamCheck
}

type API struct {
	Store    *db.Store
	Auth     *auth.Service
	Hub      *realtime.Hub
	Upgrader *websocket.Upgrader
	Advisor  Advisor
	Queue    *llm.Queue
	Market   *market.Board
	LLMStore *llm.Store
	Sealer   *crypto.Sealer
	Logger   *zap.Logger
}

func NewAPI(store *db.Store, authService *auth.Service, hub *realtime.Hub, advisor Advisor) *API {
	return &API{Store: store, Auth: authService, Hub: hub, Advisor: advisor, Logger: zap.NewNop()}
}

func (a *API) log() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// requireStore answers 503 when the API runs without a database.
func (a *API) requireStore(w http.ResponseWriter) bool {
	if a.Store == nil || a.Store.Pool == nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return false
	}
	return true
}

func currentUser(r *http.Request) (auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	return user, ok && user.ID != 0
}

func queryContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// readBody decodes a browser payload. Unknown fields are ignored and an empty
// body leaves dst untouched.
func readBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func ParseID(pathPart string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(pathPart), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parsePagination(r *http.Request) (int, int) {
	page := 1
	limit := 20
	if value := r.URL.Query().Get("page"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return page, limit
}
