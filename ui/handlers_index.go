package ui

import (
	"log"
	"net/http"
	"time"

	"flowcast/domain/core"
	"flowcast/internal/scoring"
	"flowcast/models"
)

// indexView is the data for the start page: what could be predicted, how much
// of it needs attention, and the recent sessions.
type indexView struct {
	Summary   scoring.Summary
	FlowTypes []string
	Recent    []*models.FlowSessionRecord
}

// handleIndex renders the start page with the attention summary for the
// current candidate set.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.ListPosts(r.Context(), 100)
	if err != nil {
		log.Printf("[handleIndex] failed to load posts: %v", err)
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	recent, err := a.sessions.ListRecentFlowSessions(r.Context(), 10)
	if err != nil {
		// The start page still works without history.
		log.Printf("[handleIndex] failed to load recent sessions: %v", err)
	}

	view := indexView{
		Summary: scoring.Summarize(posts, time.Now()),
		FlowTypes: []string{
			string(core.FlowGeneral),
			string(core.FlowNotPredicted),
			string(core.FlowMovement),
			string(core.FlowStale),
		},
		Recent: recent,
	}
	a.render(w, "index.html", view)
}
