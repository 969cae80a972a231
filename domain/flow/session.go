package flow

import (
	"fmt"
	"sync"
	"time"

	"flowcast/domain/attention"
	"flowcast/domain/core"
	"flowcast/domain/post"
)

// item pairs a working-list post with its transient done flag. The flag is
// session-local and discarded with the session.
type item struct {
	post *post.Post
	done bool
}

// Session is the mutable flow state: the ordered working list, the current
// position, the menu-open flag, and the active flow type. It is the single
// source of truth for progress; the UI reads only the derived values it
// exposes. A session is owned by one flow screen, but the guard keeps
// concurrent reads from the render path safe against handler mutations.
//
// The state machine over the current post id has one Active state per
// working-list post plus a terminal Finished state (current id nil).
type Session struct {
	mu       sync.RWMutex
	flowType *core.FlowType
	items    []item
	// currentID is nil once the flow is finished.
	currentID *int64
	menuOpen  bool
	now       func() time.Time
}

// Step is one entry of the progress bar.
type Step struct {
	PostID  int64  `json:"post_id"`
	Title   string `json:"title"`
	Done    bool   `json:"done"`
	Current bool   `json:"current"`
}

// FinalView partitions the working list once the flow reaches the terminal
// state, using the same completion criterion as PostsLeft.
type FinalView struct {
	Predicted []*post.Post `json:"predicted"`
	Skipped   []*post.Post `json:"skipped"`
}

// NewSession creates a flow session over an already-selected working list.
// An empty list starts in the Finished state immediately.
func NewSession(posts []*post.Post, flowType *core.FlowType) *Session {
	s := &Session{
		flowType: flowType,
		items:    make([]item, 0, len(posts)),
		now:      time.Now,
	}
	for _, p := range posts {
		s.items = append(s.items, item{post: p})
	}
	if len(s.items) > 0 {
		id := s.items[0].post.ID
		s.currentID = &id
	}
	return s
}

// FlowType returns the session's flow type; nil means ad-hoc mode.
func (s *Session) FlowType() *core.FlowType {
	return s.flowType
}

// CurrentPostID returns the active post id, or nil once the flow is finished.
func (s *Session) CurrentPostID() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == nil {
		return nil
	}
	id := *s.currentID
	return &id
}

// CurrentPost returns the active post, or nil in the Finished state.
func (s *Session) CurrentPost() *post.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.currentIndex(); i >= 0 {
		return s.items[i].post
	}
	return nil
}

// currentIndex resolves the current id to a working-list index; -1 when
// finished. Callers must hold the lock.
func (s *Session) currentIndex() int {
	if s.currentID == nil {
		return -1
	}
	return s.indexOf(*s.currentID)
}

func (s *Session) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].post.ID == id {
			return i
		}
	}
	return -1
}

// completed is the single completion predicate shared by PostsLeft, Steps,
// and FinalView: the done flag for flow-typed sessions, the live predicted
// status for ad-hoc sessions.
func (s *Session) completed(it item, now time.Time) bool {
	if s.flowType != nil {
		return it.done
	}
	return !attention.IsUnpredicted(it.post, now)
}

// SelectStep jumps directly to the given post (menu and step-bar clicks).
// An id outside the working list is a no-op, not an error.
func (s *Session) SelectStep(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return false
	}
	s.currentID = &id
	return true
}

// Next advances to the following post, or to the Finished state from the last
// index. Leaving a post in ad-hoc mode marks it done when it has any active
// forecast. In the Finished state Next is a no-op.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.currentIndex()
	if i < 0 {
		return
	}
	if s.flowType == nil {
		s.items[i].done = !attention.IsUnpredicted(s.items[i].post, s.now())
	}
	if i+1 < len(s.items) {
		id := s.items[i+1].post.ID
		s.currentID = &id
		return
	}
	s.currentID = nil
}

// Previous steps back one post. Disabled at index 0 and in the Finished state
// (re-entry from Finished goes through SelectStep).
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.currentIndex()
	if i <= 0 {
		return
	}
	id := s.items[i-1].post.ID
	s.currentID = &id
}

// PreviousEnabled reports whether Previous would move.
func (s *Session) PreviousEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex() > 0
}

// NextEnabled reports whether Next would move (it always does while a post is
// active: from the last index it moves to Finished).
func (s *Session) NextEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex() >= 0
}

// ForecastSubmitted splices freshly fetched post data into the working list
// after a submission and marks the post done. The current position does not
// change: the user stays on the post to review before navigating away.
// Returns false when the id is not in the working list (stale or foreign
// response), in which case nothing is applied.
func (s *Session) ForecastSubmitted(fresh *post.Post) bool {
	if fresh == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(fresh.ID)
	if i < 0 {
		return false
	}
	s.items[i] = item{post: fresh, done: true}
	return true
}

// IsMenuOpen reports the step-menu toggle.
func (s *Session) IsMenuOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menuOpen
}

// SetMenuOpen sets the step-menu toggle.
func (s *Session) SetMenuOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuOpen = open
}

// Len returns the working-list size.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Finished reports whether the session reached the terminal state.
func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID == nil
}

// PostsLeft counts working-list posts whose completion criterion is not yet
// met.
func (s *Session) PostsLeft() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	left := 0
	for _, it := range s.items {
		if !s.completed(it, now) {
			left++
		}
	}
	return left
}

// HeaderLabel is the progress label for the flow header: predicted-of-total
// in ad-hoc mode, posts remaining in a flow-typed session.
func (s *Session) HeaderLabel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	done := 0
	for _, it := range s.items {
		if s.completed(it, now) {
			done++
		}
	}
	if s.flowType == nil {
		return fmt.Sprintf("%d of %d predicted", done, len(s.items))
	}
	return fmt.Sprintf("%d left", len(s.items)-done)
}

// Steps returns the progress-bar entries in working-list order.
func (s *Session) Steps() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	steps := make([]Step, 0, len(s.items))
	for _, it := range s.items {
		steps = append(steps, Step{
			PostID:  it.post.ID,
			Title:   it.post.Title,
			Done:    s.completed(it, now),
			Current: s.currentID != nil && *s.currentID == it.post.ID,
		})
	}
	return steps
}

// Banner derives the attention banner for the current post, or nil when no
// banner applies (ad-hoc mode, finished, or the post was already acted on).
func (s *Session) Banner() *attention.Banner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.currentIndex()
	if i < 0 {
		return nil
	}
	return attention.BuildBanner(s.items[i].post, s.flowType, s.items[i].done, s.now())
}

// Final computes the terminal-state summary. It is meaningful once Finished
// reports true but is safe to call at any time.
func (s *Session) Final() FinalView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var view FinalView
	for _, it := range s.items {
		if s.completed(it, now) {
			view.Predicted = append(view.Predicted, it.post)
		} else {
			view.Skipped = append(view.Skipped, it.post)
		}
	}
	return view
}

// ReviewSkipped re-enters the flow at the first incomplete post. Ad-hoc mode
// first resets every done flag to the post's true predicted status so the
// step bar agrees with the data. Returns false when nothing was skipped.
func (s *Session) ReviewSkipped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	if s.flowType == nil {
		for i := range s.items {
			s.items[i].done = !attention.IsUnpredicted(s.items[i].post, now)
		}
	}
	for i := range s.items {
		if !s.completed(s.items[i], now) {
			id := s.items[i].post.ID
			s.currentID = &id
			return true
		}
	}
	return false
}

// PostIDs returns the working-list post ids in order.
func (s *Session) PostIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.items))
	for _, it := range s.items {
		ids = append(ids, it.post.ID)
	}
	return ids
}

// Posts returns a snapshot of the working list in order.
func (s *Session) Posts() []*post.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := make([]*post.Post, 0, len(s.items))
	for _, it := range s.items {
		posts = append(posts, it.post)
	}
	return posts
}
