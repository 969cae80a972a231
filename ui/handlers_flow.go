package ui

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"flowcast/app"
	"flowcast/domain/attention"
	"flowcast/domain/core"
	"flowcast/domain/flow"
	"flowcast/domain/post"
	"flowcast/internal/scoring"
)

// flowView is the data handed to the flow step template. It carries only the
// session's derived values, never classifier internals.
type flowView struct {
	ID           string
	FlowType     string
	HeaderLabel  string
	PostsLeft    int
	Steps        []flow.Step
	MenuOpen     bool
	Banner       *attention.Banner
	Post         *post.Post
	FetchFailed  bool
	PrevEnabled  bool
	NextEnabled  bool
}

// summaryView is the data for the finished-flow page.
type summaryView struct {
	ID        string
	FlowType  string
	Final     flow.FinalView
	PostsLeft int
	Summary   scoring.Summary
}

// handleStartFlow creates a session for the requested flow type and redirects
// to its first step.
func (a *App) handleStartFlow(w http.ResponseWriter, r *http.Request) {
	flowType := core.ParseFlowType(r.FormValue("flow_type"))

	handle, err := a.flows.StartFlow(r.Context(), flowType)
	if err != nil {
		log.Printf("[handleStartFlow] failed to start flow: %v", err)
		http.Error(w, "Failed to start flow", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handleFlow renders the current step, or the summary once the session has
// reached its terminal state.
func (a *App) handleFlow(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	session := handle.Session

	if session.Finished() {
		a.renderSummary(w, handle)
		return
	}

	view := flowView{
		ID:          handle.ID.String(),
		FlowType:    flowTypeLabel(session.FlowType()),
		HeaderLabel: session.HeaderLabel(),
		PostsLeft:   session.PostsLeft(),
		Steps:       session.Steps(),
		MenuOpen:    session.IsMenuOpen(),
		Banner:      session.Banner(),
		PrevEnabled: session.PreviousEnabled(),
		NextEnabled: session.NextEnabled(),
	}

	detail, err := a.flows.CurrentPostDetail(r.Context(), handle)
	if err != nil {
		// A failed fetch renders the retry placeholder; the session itself
		// stays intact and no auto-advance happens.
		log.Printf("[handleFlow] post fetch failed for flow %s: %v", handle.ID, err)
		view.FetchFailed = true
	}
	view.Post = detail

	a.render(w, "flow.html", view)
}

func (a *App) renderSummary(w http.ResponseWriter, handle *app.FlowHandle) {
	session := handle.Session
	view := summaryView{
		ID:        handle.ID.String(),
		FlowType:  flowTypeLabel(session.FlowType()),
		Final:     session.Final(),
		PostsLeft: session.PostsLeft(),
		Summary:   scoring.Summarize(session.Posts(), time.Now()),
	}
	a.render(w, "summary.html", view)
}

// handleNext advances the flow one step.
func (a *App) handleNext(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	a.flows.Advance(r.Context(), handle)
	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handlePrevious steps back; a no-op on the first step.
func (a *App) handlePrevious(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	a.flows.StepBack(r.Context(), handle)
	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handleSelectStep jumps to a working-list post from the step menu. An id
// outside the working list is silently ignored.
func (a *App) handleSelectStep(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	if postID, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64); err == nil {
		a.flows.JumpTo(r.Context(), handle, postID)
	}
	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handleSubmit refreshes the submitted post and marks it done. The user
// stays on the current step to review before navigating away.
func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}
	if _, err := a.flows.SubmitForecast(r.Context(), handle, postID); err != nil {
		log.Printf("[handleSubmit] refresh failed for post %d: %v", postID, err)
	}
	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handleMenu toggles the step menu.
func (a *App) handleMenu(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	handle.Session.SetMenuOpen(r.FormValue("open") == "true")
	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handleReviewSkipped re-enters the flow at the first skipped post.
func (a *App) handleReviewSkipped(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	a.flows.ReviewSkipped(r.Context(), handle)
	http.Redirect(w, r, "/flows/"+handle.ID.String(), http.StatusSeeOther)
}

// handleEndFlow discards the session and returns to the start page.
func (a *App) handleEndFlow(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}
	a.flows.EndFlow(r.Context(), handle.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) lookupFlow(w http.ResponseWriter, r *http.Request) (*app.FlowHandle, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid flow id", http.StatusBadRequest)
		return nil, false
	}
	handle, ok := a.flows.GetFlow(id)
	if !ok {
		http.Error(w, "Flow not found", http.StatusNotFound)
		return nil, false
	}
	return handle, true
}

func flowTypeLabel(ft *core.FlowType) string {
	if ft == nil {
		return ""
	}
	return string(*ft)
}
