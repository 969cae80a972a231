package post

import (
	"testing"
	"time"
)

func TestPost_Shape(t *testing.T) {
	tests := []struct {
		name string
		post *Post
		want Shape
	}{
		{
			name: "single question",
			post: &Post{ID: 1, Question: &Question{ID: 10, Type: QuestionBinary}},
			want: ShapeQuestion,
		},
		{
			name: "group of questions",
			post: &Post{ID: 2, Group: &GroupOfQuestions{Questions: []Question{{ID: 20}}}},
			want: ShapeGroup,
		},
		{
			name: "conditional",
			post: &Post{ID: 3, Conditional: &Conditional{QuestionYes: &Question{ID: 30}}},
			want: ShapeConditional,
		},
		{
			name: "no shape populated",
			post: &Post{ID: 4},
			want: ShapeUnknown,
		},
		{
			name: "nil post",
			post: nil,
			want: ShapeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.Shape(); got != tt.want {
				t.Errorf("Shape() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPost_Questions(t *testing.T) {
	tests := []struct {
		name    string
		post    *Post
		wantIDs []int64
	}{
		{
			name:    "single question yields one",
			post:    &Post{ID: 1, Question: &Question{ID: 10}},
			wantIDs: []int64{10},
		},
		{
			name: "group yields all sub-questions in order",
			post: &Post{ID: 2, Group: &GroupOfQuestions{
				Questions: []Question{{ID: 20}, {ID: 21}, {ID: 22}},
			}},
			wantIDs: []int64{20, 21, 22},
		},
		{
			name: "conditional yields yes then no",
			post: &Post{ID: 3, Conditional: &Conditional{
				QuestionYes: &Question{ID: 30},
				QuestionNo:  &Question{ID: 31},
			}},
			wantIDs: []int64{30, 31},
		},
		{
			name: "conditional with only no branch filters the absent yes",
			post: &Post{ID: 4, Conditional: &Conditional{
				QuestionNo: &Question{ID: 41},
			}},
			wantIDs: []int64{41},
		},
		{
			name:    "conditional with neither branch yields none",
			post:    &Post{ID: 5, Conditional: &Conditional{}},
			wantIDs: nil,
		},
		{
			name:    "unknown shape yields none",
			post:    &Post{ID: 6},
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := tt.post.Questions()
			if len(qs) != len(tt.wantIDs) {
				t.Fatalf("Questions() returned %d questions, want %d", len(qs), len(tt.wantIDs))
			}
			for i, q := range qs {
				if q.ID != tt.wantIDs[i] {
					t.Errorf("Questions()[%d].ID = %d, want %d", i, q.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestUserForecast_IsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		forecast *UserForecast
		want     bool
	}{
		{"nil record", nil, false},
		{"no latest value", &UserForecast{}, false},
		{"active with no end time", &UserForecast{Latest: &ForecastValue{StartTime: past}}, true},
		{"active with future end time", &UserForecast{Latest: &ForecastValue{StartTime: past, EndTime: &future}}, true},
		{"withdrawn", &UserForecast{Latest: &ForecastValue{StartTime: past.Add(-time.Hour), EndTime: &past}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.forecast.IsActive(now); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}
