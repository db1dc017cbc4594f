package handlers

import (
	"net/http"
	"strconv"
	"time"
)

// LLMUsage reports per-provider usage for the last ?days= days (default 7)
// along with the most recent calls.
func (a *API) LLMUsage(w http.ResponseWriter, r *http.Request) {
	if a.LLMStore == nil {
		writeError(w, http.StatusServiceUnavailable, "usage tracking unavailable")
		return
	}
	days := 7
	if value := r.URL.Query().Get("days"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 && parsed <= 90 {
			days = parsed
		}
	}
	_, limit := parsePagination(r)
	ctx, cancel := queryContext(r)
	defer cancel()

	summary, err := a.LLMStore.SummarizeUsage(ctx, time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load usage")
		return
	}
	recent, err := a.LLMStore.RecentUsage(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load usage")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "summary": summary, "recent": recent})
}

func (a *API) LLMHealth(w http.ResponseWriter, r *http.Request) {
	if a.LLMStore == nil {
		writeError(w, http.StatusServiceUnavailable, "usage tracking unavailable")
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	checks, err := a.LLMStore.LatestHealth(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load provider health")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": checks})
}
