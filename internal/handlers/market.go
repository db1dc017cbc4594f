package handlers

import (
	"net/http"

	"finai/backend/internal/market"
)

func (a *API) MarketData(w http.ResponseWriter, r *http.Request) {
	if a.Market == nil {
		writeJSON(w, http.StatusOK, market.DefaultQuotes())
		return
	}
	writeJSON(w, http.StatusOK, a.Market.Snapshot())
}
