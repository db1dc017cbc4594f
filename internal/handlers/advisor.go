package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"finai/backend/internal/llm"
)

type historyItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message   string        `json:"message"`
	History   []historyItem `json:"history"`
	Language  string        `json:"language"`
	SessionID string        `json:"sessionId"`
}

// flexNumber accepts 5000 as well as "5000".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = flexNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		f = 0
	}
	*n = flexNumber(f)
	return nil
}

type recommendationsRequest struct {
	RiskProfile      string     `json:"riskProfile"`
	InvestmentAmount flexNumber `json:"investmentAmount"`
	Goals            []string   `json:"goals"`
}

// toHistory keeps roles as sent. The advisor drops anything that is not a
// user or assistant turn.
func toHistory(items []historyItem) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(items))
	for _, item := range items {
		out = append(out, llm.ChatMessage{Role: strings.ToLower(strings.TrimSpace(item.Role)), Content: item.Content})
	}
	return out
}

func (a *API) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	language := req.Language
	if language == "" {
		language = llm.LanguageEnglish
	}

	response := a.Advisor.Chat(r.Context(), req.Message, toHistory(req.History), language)

	if req.SessionID != "" {
		if user, ok := currentUser(r); ok && a.Store != nil {
			if err := a.appendChatExchange(r.Context(), user.ID, req.SessionID, req.Message, response); err != nil {
				a.log().Warn("persist chat exchange", zap.String("session", req.SessionID), zap.Error(err))
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

func (a *API) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := readBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}
	writeJSON(w, http.StatusOK, a.Advisor.AnalyzeSentiment(r.Context(), req.Text))
}

func (a *API) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := readBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.RiskProfile) == "" {
		writeError(w, http.StatusBadRequest, "Risk profile is required")
		return
	}
	recs := a.Advisor.Recommendations(r.Context(), req.RiskProfile, float64(req.InvestmentAmount), req.Goals)
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) CheckScam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := readBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "Investment description is required")
		return
	}
	writeJSON(w, http.StatusOK, a.Advisor.CheckScam(r.Context(), req.Description))
}

func (a *API) Learn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic      string `json:"topic"`
		Difficulty string `json:"difficulty"`
		Language   string `json:"language"`
	}
	if err := readBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Topic) == "" || strings.TrimSpace(req.Difficulty) == "" {
		writeError(w, http.StatusBadRequest, "Topic and difficulty are required")
		return
	}
	writeJSON(w, http.StatusOK, a.Advisor.EducationalContent(r.Context(), req.Topic, req.Difficulty, req.Language))
}
