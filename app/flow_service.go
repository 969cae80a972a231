// Package app wires the flow engine to the data layer: starting sessions,
// fetching the active post, and splicing refreshed data back into the working
// list after a submission.
package app

import (
	"context"
	"sync"
	"time"

	"flowcast/domain/core"
	"flowcast/domain/flow"
	"flowcast/domain/post"
	"flowcast/internal"
	"flowcast/internal/errors"
	"flowcast/models"
	"flowcast/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FlowService owns the live flow sessions and their write-behind records.
// Each session is owned by exactly one flow screen; the service map only
// routes requests to the right session.
type FlowService struct {
	posts    ports.PostRepository
	sessions ports.FlowSessionRepository
	log      *internal.Logger

	mu     sync.RWMutex
	active map[uuid.UUID]*FlowHandle

	postLimit int
}

// FlowHandle pairs a live session with its persisted record id.
type FlowHandle struct {
	ID      uuid.UUID
	Session *flow.Session
	record  *models.FlowSessionRecord
}

// NewFlowService creates a flow service
func NewFlowService(posts ports.PostRepository, sessions ports.FlowSessionRepository, postLimit int) *FlowService {
	if postLimit <= 0 {
		postLimit = 100
	}
	return &FlowService{
		posts:     posts,
		sessions:  sessions,
		log:       internal.DefaultLogger,
		active:    make(map[uuid.UUID]*FlowHandle),
		postLimit: postLimit,
	}
}

// StartFlow selects the working set for the given flow type and creates a new
// session over it. An empty selection is not an error: the session starts in
// its terminal state and the summary view renders immediately.
func (s *FlowService) StartFlow(ctx context.Context, flowType *core.FlowType) (*FlowHandle, error) {
	candidates, err := s.posts.ListPosts(ctx, s.postLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load flow candidates")
	}

	selected := flow.SelectPosts(candidates, flowType, time.Now())
	session := flow.NewSession(selected, flowType)

	handle := &FlowHandle{
		ID:      uuid.New(),
		Session: session,
	}
	handle.record = models.NewFlowSessionRecord(handle.ID, session)

	if err := s.sessions.CreateFlowSession(ctx, handle.record); err != nil {
		// The record is a write-behind log; losing it must not block the flow.
		s.log.Warn("[FlowService] failed to persist flow session %s: %v", handle.ID, err)
	}

	s.mu.Lock()
	s.active[handle.ID] = handle
	s.mu.Unlock()

	s.log.Info("[FlowService] started flow %s with %d posts", handle.ID, session.Len())
	return handle, nil
}

// GetFlow returns a live handle by id.
func (s *FlowService) GetFlow(id uuid.UUID) (*FlowHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.active[id]
	return handle, ok
}

// EndFlow drops the live session. In-flight fetches for it are abandoned by
// the currency guard in CurrentPostDetail.
func (s *FlowService) EndFlow(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	handle, ok := s.active[id]
	delete(s.active, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	handle.record.SyncFromSession(handle.Session)
	if err := s.sessions.UpdateFlowSession(ctx, handle.record); err != nil {
		s.log.Warn("[FlowService] failed to persist final state for flow %s: %v", id, err)
	}
}

// CurrentPostDetail fetches the full detail of the active post. A response
// arriving after the user navigated away is detected by re-checking the
// session's current id and discarded instead of clobbering newer state; the
// caller sees (nil, nil) and renders the loading state for the new post.
func (s *FlowService) CurrentPostDetail(ctx context.Context, handle *FlowHandle) (*post.Post, error) {
	current := handle.Session.CurrentPostID()
	if current == nil {
		return nil, nil
	}
	requested := *current

	detail, err := s.posts.GetPost(ctx, requested)
	if err != nil {
		// Fetch failure is local to this post view; the flow session stays
		// intact and the user retries or navigates away.
		return nil, errors.FetchFailed("post", err)
	}

	now := handle.Session.CurrentPostID()
	if now == nil || *now != requested {
		s.log.Debug("[FlowService] discarding stale response for post %d", requested)
		return nil, nil
	}
	return detail, nil
}

// SubmitForecast refreshes the submitted post from the data layer and splices
// it into the working list, marking it done. The current position does not
// change. Returns the refreshed post.
func (s *FlowService) SubmitForecast(ctx context.Context, handle *FlowHandle, postID int64) (*post.Post, error) {
	refreshed, err := s.posts.GetPostsByIDs(ctx, []int64{postID})
	if err != nil {
		return nil, errors.FetchFailed("refreshed post", err)
	}
	if len(refreshed) == 0 {
		return nil, errors.NotFound("post")
	}

	fresh := refreshed[0]
	if !handle.Session.ForecastSubmitted(fresh) {
		// Not in the working list anymore: a stale or foreign response.
		s.log.Debug("[FlowService] ignoring submission refresh for post %d outside working list", postID)
		return nil, nil
	}

	s.persist(ctx, handle)
	return fresh, nil
}

// RefreshPosts re-fetches several working-list posts concurrently and splices
// each into the session. Used when resuming a persisted flow.
func (s *FlowService) RefreshPosts(ctx context.Context, handle *FlowHandle, ids []int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	fresh := make([]*post.Post, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.posts.GetPost(gctx, id)
			if err != nil {
				return err
			}
			fresh[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.FetchFailed("working list refresh", err)
	}

	for _, p := range fresh {
		handle.Session.ForecastSubmitted(p)
	}
	s.persist(ctx, handle)
	return nil
}

// Advance moves to the next post and persists the step.
func (s *FlowService) Advance(ctx context.Context, handle *FlowHandle) {
	handle.Session.Next()
	s.persist(ctx, handle)
}

// StepBack moves to the previous post and persists the step.
func (s *FlowService) StepBack(ctx context.Context, handle *FlowHandle) {
	handle.Session.Previous()
	s.persist(ctx, handle)
}

// JumpTo selects a specific working-list post and persists the step. An id
// outside the working list is a no-op.
func (s *FlowService) JumpTo(ctx context.Context, handle *FlowHandle, postID int64) {
	if handle.Session.SelectStep(postID) {
		s.persist(ctx, handle)
	}
}

// ReviewSkipped re-enters the flow at the first skipped post.
func (s *FlowService) ReviewSkipped(ctx context.Context, handle *FlowHandle) bool {
	moved := handle.Session.ReviewSkipped()
	if moved {
		s.persist(ctx, handle)
	}
	return moved
}

func (s *FlowService) persist(ctx context.Context, handle *FlowHandle) {
	handle.record.SyncFromSession(handle.Session)
	if err := s.sessions.UpdateFlowSession(ctx, handle.record); err != nil {
		s.log.Warn("[FlowService] failed to persist flow %s: %v", handle.ID, err)
	}
}
