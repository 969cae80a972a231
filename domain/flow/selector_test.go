package flow

import (
	"testing"
	"time"

	"flowcast/domain/core"
	"flowcast/domain/post"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func forecast(elapsed float64, m *post.Movement) *post.UserForecast {
	return &post.UserForecast{
		Latest:          &post.ForecastValue{StartTime: testNow.Add(-24 * time.Hour)},
		Movement:        m,
		LifetimeElapsed: elapsed,
	}
}

func questionPost(id int64, title string, f *post.UserForecast) *post.Post {
	return &post.Post{
		ID:    id,
		Title: title,
		Question: &post.Question{
			ID: id * 10, Title: title, Type: post.QuestionNumeric, Unit: "points", MyForecast: f,
		},
	}
}

// workingSet is the canonical three-post fixture: one unpredicted, one stale,
// one with movement.
func workingSet() []*post.Post {
	return []*post.Post{
		questionPost(1, "Q1", nil),
		questionPost(2, "Q2", forecast(0.35, nil)),
		questionPost(3, "Q3", forecast(0.05, &post.Movement{Direction: post.MovementUp, Magnitude: 7})),
	}
}

func ids(posts []*post.Post) []int64 {
	out := make([]int64, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectPosts(t *testing.T) {
	posts := workingSet()

	tests := []struct {
		name     string
		flowType *core.FlowType
		wantIDs  []int64
	}{
		{"not predicted", core.FlowTypePtr(core.FlowNotPredicted), []int64{1}},
		{"movement", core.FlowTypePtr(core.FlowMovement), []int64{3}},
		{"stale", core.FlowTypePtr(core.FlowStale), []int64{2}},
		{"general is the union", core.FlowTypePtr(core.FlowGeneral), []int64{1, 2, 3}},
		{"ad-hoc selects everything", nil, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(SelectPosts(posts, tt.flowType, testNow))
			if !equalIDs(got, tt.wantIDs) {
				t.Errorf("SelectPosts() = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestSelectPosts_PreservesOrderAndSubset(t *testing.T) {
	posts := []*post.Post{
		questionPost(5, "A", nil),
		questionPost(2, "B", forecast(0.5, nil)),
		questionPost(9, "C", nil),
		questionPost(1, "D", forecast(0.01, nil)),
	}

	for _, ft := range []core.FlowType{core.FlowGeneral, core.FlowNotPredicted, core.FlowMovement, core.FlowStale} {
		selected := SelectPosts(posts, core.FlowTypePtr(ft), testNow)

		// Subset preserving relative order: walk the input and expect the
		// selection to appear as a subsequence.
		i := 0
		for _, p := range posts {
			if i < len(selected) && selected[i].ID == p.ID {
				i++
			}
		}
		if i != len(selected) {
			t.Errorf("flow %s: selection %v is not an ordered subsequence of input", ft, ids(selected))
		}
	}
}

func TestSelectPosts_GeneralIsSuperset(t *testing.T) {
	posts := workingSet()
	general := make(map[int64]bool)
	for _, p := range SelectPosts(posts, core.FlowTypePtr(core.FlowGeneral), testNow) {
		general[p.ID] = true
	}

	for _, ft := range []core.FlowType{core.FlowNotPredicted, core.FlowMovement, core.FlowStale} {
		for _, p := range SelectPosts(posts, core.FlowTypePtr(ft), testNow) {
			if !general[p.ID] {
				t.Errorf("post %d selected by %s but not by general", p.ID, ft)
			}
		}
	}
}

func TestSelectPosts_EmptySelection(t *testing.T) {
	// Every post fully predicted and fresh: the not-predicted flow is empty
	// and a session over it starts finished.
	posts := []*post.Post{
		questionPost(1, "Q1", forecast(0.05, nil)),
		questionPost(2, "Q2", forecast(0.10, nil)),
	}

	selected := SelectPosts(posts, core.FlowTypePtr(core.FlowNotPredicted), testNow)
	if len(selected) != 0 {
		t.Fatalf("expected empty selection, got %v", ids(selected))
	}

	session := NewSession(selected, core.FlowTypePtr(core.FlowNotPredicted))
	if !session.Finished() {
		t.Error("expected session over empty selection to start finished")
	}
	if left := session.PostsLeft(); left != 0 {
		t.Errorf("PostsLeft() = %d, want 0", left)
	}
}
