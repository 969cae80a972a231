package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcast/domain/core"
	"flowcast/domain/post"
	"flowcast/internal/errors"
	"flowcast/models"
)

// fakePostRepository serves posts from memory. onGetPost runs before each
// GetPost returns, which lets tests navigate mid-fetch to exercise the
// stale-response guard.
type fakePostRepository struct {
	posts     []*post.Post
	onGetPost func(id int64)
	failFetch bool
}

func (r *fakePostRepository) GetPost(ctx context.Context, id int64) (*post.Post, error) {
	if r.onGetPost != nil {
		r.onGetPost(id)
	}
	if r.failFetch {
		return nil, errors.DatabaseError("connection refused")
	}
	for _, p := range r.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.NotFound("post")
}

func (r *fakePostRepository) GetPostsByIDs(ctx context.Context, ids []int64) ([]*post.Post, error) {
	if r.failFetch {
		return nil, errors.DatabaseError("connection refused")
	}
	var out []*post.Post
	for _, id := range ids {
		for _, p := range r.posts {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakePostRepository) ListPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	if limit > len(r.posts) {
		limit = len(r.posts)
	}
	return r.posts[:limit], nil
}

type fakeSessionRepository struct {
	records map[uuid.UUID]*models.FlowSessionRecord
	updates int
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{records: make(map[uuid.UUID]*models.FlowSessionRecord)}
}

func (r *fakeSessionRepository) CreateFlowSession(ctx context.Context, record *models.FlowSessionRecord) error {
	r.records[record.ID] = record
	return nil
}

func (r *fakeSessionRepository) UpdateFlowSession(ctx context.Context, record *models.FlowSessionRecord) error {
	r.records[record.ID] = record
	r.updates++
	return nil
}

func (r *fakeSessionRepository) GetFlowSession(ctx context.Context, id uuid.UUID) (*models.FlowSessionRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, errors.NotFound("flow session")
	}
	return record, nil
}

func (r *fakeSessionRepository) ListRecentFlowSessions(ctx context.Context, limit int) ([]*models.FlowSessionRecord, error) {
	var out []*models.FlowSessionRecord
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

func testPost(id int64, f *post.UserForecast) *post.Post {
	return &post.Post{
		ID:    id,
		Title: "post",
		Question: &post.Question{
			ID: id * 10, Type: post.QuestionBinary, MyForecast: f,
		},
	}
}

func activeForecast() *post.UserForecast {
	return &post.UserForecast{
		Latest:          &post.ForecastValue{StartTime: time.Now().Add(-time.Hour)},
		LifetimeElapsed: 0.05,
	}
}

func newTestService(posts []*post.Post) (*FlowService, *fakePostRepository, *fakeSessionRepository) {
	postRepo := &fakePostRepository{posts: posts}
	sessionRepo := newFakeSessionRepository()
	return NewFlowService(postRepo, sessionRepo, 100), postRepo, sessionRepo
}

func TestFlowService_StartFlowSelectsWorkingSet(t *testing.T) {
	svc, _, sessions := newTestService([]*post.Post{
		testPost(1, nil),
		testPost(2, activeForecast()),
		testPost(3, nil),
	})

	handle, err := svc.StartFlow(context.Background(), core.FlowTypePtr(core.FlowNotPredicted))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, handle.Session.PostIDs())

	record, err := sessions.GetFlowSession(context.Background(), handle.ID)
	require.NoError(t, err)
	assert.Equal(t, string(core.FlowNotPredicted), record.FlowType)
	assert.Equal(t, models.Int64List{1, 3}, record.PostIDs)
}

func TestFlowService_StartFlowWithEmptySelection(t *testing.T) {
	svc, _, _ := newTestService([]*post.Post{
		testPost(1, activeForecast()),
	})

	handle, err := svc.StartFlow(context.Background(), core.FlowTypePtr(core.FlowNotPredicted))
	require.NoError(t, err)
	assert.True(t, handle.Session.Finished())
	assert.Equal(t, 0, handle.Session.PostsLeft())
}

func TestFlowService_CurrentPostDetail(t *testing.T) {
	svc, _, _ := newTestService([]*post.Post{testPost(1, nil), testPost(2, nil)})
	handle, err := svc.StartFlow(context.Background(), nil)
	require.NoError(t, err)

	detail, err := svc.CurrentPostDetail(context.Background(), handle)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, int64(1), detail.ID)
}

func TestFlowService_CurrentPostDetailDiscardsStaleResponse(t *testing.T) {
	svc, posts, _ := newTestService([]*post.Post{testPost(1, nil), testPost(2, nil)})
	handle, err := svc.StartFlow(context.Background(), nil)
	require.NoError(t, err)

	// The user navigates away while the fetch is in flight: the response is
	// for post 1 but the session has moved to post 2.
	posts.onGetPost = func(id int64) {
		if id == 1 {
			handle.Session.Next()
		}
	}

	detail, err := svc.CurrentPostDetail(context.Background(), handle)
	require.NoError(t, err)
	assert.Nil(t, detail, "stale response must be discarded, not applied")
}

func TestFlowService_CurrentPostDetailFetchFailure(t *testing.T) {
	svc, posts, _ := newTestService([]*post.Post{testPost(1, nil)})
	handle, err := svc.StartFlow(context.Background(), nil)
	require.NoError(t, err)

	posts.failFetch = true
	detail, err := svc.CurrentPostDetail(context.Background(), handle)
	require.Error(t, err)
	assert.Nil(t, detail)
	assert.Equal(t, errors.CodeFetchFailed, errors.GetCode(err))

	// the session does not auto-advance on failure
	require.NotNil(t, handle.Session.CurrentPostID())
	assert.Equal(t, int64(1), *handle.Session.CurrentPostID())
}

func TestFlowService_SubmitForecast(t *testing.T) {
	svc, posts, sessions := newTestService([]*post.Post{testPost(1, nil), testPost(2, nil)})
	handle, err := svc.StartFlow(context.Background(), core.FlowTypePtr(core.FlowGeneral))
	require.NoError(t, err)

	// the data layer now has the refreshed post with the new forecast
	posts.posts[0] = testPost(1, activeForecast())

	fresh, err := svc.SubmitForecast(context.Background(), handle, 1)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	// position unchanged, post marked done, record synced
	assert.Equal(t, int64(1), *handle.Session.CurrentPostID())
	assert.Equal(t, 1, handle.Session.PostsLeft())
	assert.True(t, sessions.updates > 0)

	record, err := sessions.GetFlowSession(context.Background(), handle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Int64List{1}, record.DonePostIDs)
}

func TestFlowService_SubmitForecastOutsideWorkingList(t *testing.T) {
	svc, posts, _ := newTestService([]*post.Post{testPost(1, nil)})
	handle, err := svc.StartFlow(context.Background(), core.FlowTypePtr(core.FlowGeneral))
	require.NoError(t, err)

	// a post that exists upstream but is not part of this flow
	posts.posts = append(posts.posts, testPost(42, nil))

	fresh, err := svc.SubmitForecast(context.Background(), handle, 42)
	require.NoError(t, err)
	assert.Nil(t, fresh)
	assert.Equal(t, []int64{1}, handle.Session.PostIDs())
}

func TestFlowService_EndFlowDropsSession(t *testing.T) {
	svc, _, _ := newTestService([]*post.Post{testPost(1, nil)})
	handle, err := svc.StartFlow(context.Background(), nil)
	require.NoError(t, err)

	svc.EndFlow(context.Background(), handle.ID)
	_, ok := svc.GetFlow(handle.ID)
	assert.False(t, ok)
}

func TestFlowService_RefreshPosts(t *testing.T) {
	svc, posts, _ := newTestService([]*post.Post{testPost(1, nil), testPost(2, nil)})
	handle, err := svc.StartFlow(context.Background(), core.FlowTypePtr(core.FlowGeneral))
	require.NoError(t, err)

	posts.posts[0] = testPost(1, activeForecast())
	posts.posts[1] = testPost(2, activeForecast())

	require.NoError(t, svc.RefreshPosts(context.Background(), handle, []int64{1, 2}))
	assert.Equal(t, 0, handle.Session.PostsLeft())
}
