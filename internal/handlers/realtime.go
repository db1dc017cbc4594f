package handlers

import (
	"net/http"

	"finai/backend/internal/realtime"
)

// ServeWebsocket subscribes the caller to the topics named in ?topics=, or to
// every topic when none are given.
func (a *API) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	if a.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "realtime unavailable")
		return
	}
	upgrader := a.Upgrader
	if upgrader == nil {
		upgrader = realtime.NewUpgrader("")
	}
	var userID int64
	if user, ok := currentUser(r); ok {
		userID = user.ID
	}
	realtime.ServeWS(w, r, upgrader, a.Hub, userID, realtime.ParseTopics(r.URL.Query().Get("topics")))
}
