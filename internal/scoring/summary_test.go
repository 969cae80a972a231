package scoring

import (
	"math"
	"testing"
	"time"

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

func questionPost(id int64, f *post.UserForecast) *post.Post {
	return &post.Post{
		ID:       id,
		Question: &post.Question{ID: id * 10, Type: post.QuestionNumeric, MyForecast: f},
	}
}

func TestSummarize(t *testing.T) {
	posts := []*post.Post{
		questionPost(1, nil),
		questionPost(2, forecast(0.35, nil)),
		questionPost(3, forecast(0.05, &post.Movement{Direction: post.MovementUp, Magnitude: 7})),
		questionPost(4, forecast(0.10, &post.Movement{Direction: post.MovementDown, Magnitude: -3})),
	}

	s := Summarize(posts, testNow)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.Unpredicted != 1 {
		t.Errorf("Unpredicted = %d, want 1", s.Unpredicted)
	}
	if s.Stale != 1 {
		t.Errorf("Stale = %d, want 1", s.Stale)
	}
	if s.Moved != 2 {
		t.Errorf("Moved = %d, want 2", s.Moved)
	}

	// movement magnitudes are |7| and |-3|
	if math.Abs(s.MeanMovement-5) > 1e-9 {
		t.Errorf("MeanMovement = %f, want 5", s.MeanMovement)
	}
	if math.Abs(s.MedianMovement-5) > 1e-9 {
		t.Errorf("MedianMovement = %f, want 5", s.MedianMovement)
	}

	if math.Abs(s.MaxLifetimeElapsed-0.35) > 1e-9 {
		t.Errorf("MaxLifetimeElapsed = %f, want 0.35", s.MaxLifetimeElapsed)
	}
}

func TestSummarize_EmptySet(t *testing.T) {
	s := Summarize(nil, testNow)
	if s.Total != 0 || s.MeanMovement != 0 || s.MaxLifetimeElapsed != 0 {
		t.Errorf("expected zero-valued summary, got %+v", s)
	}
}

func TestSummarize_GroupWeighting(t *testing.T) {
	group := &post.Post{
		ID: 1,
		Group: &post.GroupOfQuestions{Questions: []post.Question{
			{ID: 10, Type: post.QuestionNumeric, MyForecast: forecast(0.4, nil)},
			{ID: 11, Type: post.QuestionNumeric, MyForecast: forecast(0.1, nil)},
			{ID: 12, Type: post.QuestionNumeric, MyForecast: forecast(0.2, nil)},
		}},
	}
	single := questionPost(2, forecast(0.1, nil))

	s := Summarize([]*post.Post{group, single}, testNow)

	// weighted mean of worst-per-post: (0.4*3 + 0.1*1) / 4
	want := (0.4*3 + 0.1) / 4
	if math.Abs(s.MeanLifetimeElapsed-want) > 1e-9 {
		t.Errorf("MeanLifetimeElapsed = %f, want %f", s.MeanLifetimeElapsed, want)
	}
}
