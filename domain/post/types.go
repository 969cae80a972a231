// Package post defines the forecastable unit model: posts, questions, and the
// user's forecast record attached to each question.
//
// A Post is a tagged union over three shapes (single question, group of
// questions, conditional pair). Exactly one shape field is populated per post;
// all consumers go through Shape() or Questions() rather than reaching into
// the shape fields directly.
package post

import "time"

// QuestionType identifies the forecast value domain of a question.
type QuestionType string

const (
	QuestionBinary         QuestionType = "binary"
	QuestionNumeric        QuestionType = "numeric"
	QuestionDate           QuestionType = "date"
	QuestionDiscrete       QuestionType = "discrete"
	QuestionMultipleChoice QuestionType = "multiple_choice"
)

// IsValidQuestionType checks if the given question type is supported.
func IsValidQuestionType(qt QuestionType) bool {
	switch qt {
	case QuestionBinary, QuestionNumeric, QuestionDate, QuestionDiscrete, QuestionMultipleChoice:
		return true
	default:
		return false
	}
}

// MovementDirection describes how the consensus moved since the user's last
// forecast: median shifts (up/down) or uncertainty-interval width changes
// (contracted/expanded).
type MovementDirection string

const (
	MovementUp         MovementDirection = "UP"
	MovementDown       MovementDirection = "DOWN"
	MovementContracted MovementDirection = "CONTRACTED"
	MovementExpanded   MovementDirection = "EXPANDED"
	MovementUnchanged  MovementDirection = "UNCHANGED"
)

// Movement is the signed consensus change since the user's last forecast.
// Magnitude is in the question's native unit: probability fraction for
// binary/multiple-choice (×100 gives percentage points), native units for
// numeric/discrete, seconds for date questions.
type Movement struct {
	Direction MovementDirection `json:"direction"`
	Magnitude float64           `json:"movement"`
}

// ForecastValue is the user's current active prediction on one question.
// EndTime, when set and in the past, marks the forecast as withdrawn.
type ForecastValue struct {
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// UserForecast is the optional per-question forecast record. Movement and
// LifetimeElapsed are only meaningful while Latest is active; callers must
// gate on IsActive before reading them.
type UserForecast struct {
	Latest *ForecastValue `json:"latest,omitempty"`
	// Movement is nil when upstream aggregation found no significant change.
	Movement *Movement `json:"movement,omitempty"`
	// LifetimeElapsed is the fraction in [0,1] of the question's open-to-close
	// duration that has passed since this forecast was made.
	LifetimeElapsed float64 `json:"lifetime_elapsed"`
}

// IsActive reports whether the latest forecast exists and has not been
// withdrawn or expired.
func (f *UserForecast) IsActive(now time.Time) bool {
	if f == nil || f.Latest == nil {
		return false
	}
	if f.Latest.EndTime != nil && !f.Latest.EndTime.After(now) {
		return false
	}
	return true
}

// QuestionOption is one independently forecastable choice of a
// multiple-choice question.
type QuestionOption struct {
	Label      string        `json:"label"`
	MyForecast *UserForecast `json:"my_forecast,omitempty"`
}

// Question is the atomic forecastable item.
type Question struct {
	ID         int64         `json:"id"`
	Title      string        `json:"title"`
	Type       QuestionType  `json:"type"`
	Unit       string        `json:"unit,omitempty"`
	MyForecast *UserForecast `json:"my_forecast,omitempty"`
	// Options is populated only for multiple-choice questions.
	Options   []QuestionOption `json:"options,omitempty"`
	OpenTime  time.Time        `json:"open_time"`
	CloseTime time.Time        `json:"close_time"`
}

// Shape tags the three closed post variants.
type Shape string

const (
	ShapeQuestion    Shape = "question"
	ShapeGroup       Shape = "group_of_questions"
	ShapeConditional Shape = "conditional"
	// ShapeUnknown marks a post with no shape field populated. Classifiers
	// treat such posts as requiring attention rather than skipping them.
	ShapeUnknown Shape = "unknown"
)

// GroupOfQuestions is an ordered set of sub-questions sharing one post id.
type GroupOfQuestions struct {
	Questions []Question `json:"questions"`
}

// Conditional pairs a yes-branch and no-branch question. Degenerate data may
// populate only one branch.
type Conditional struct {
	QuestionYes *Question `json:"question_yes,omitempty"`
	QuestionNo  *Question `json:"question_no,omitempty"`
}

// Post is the top-level forecastable unit. Exactly one of Question, Group,
// Conditional is non-nil.
type Post struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	// Description is markdown; the UI renders it through the template helper.
	Description string `json:"description,omitempty"`

	Question    *Question         `json:"question,omitempty"`
	Group       *GroupOfQuestions `json:"group_of_questions,omitempty"`
	Conditional *Conditional      `json:"conditional,omitempty"`
}

// Shape returns the populated shape tag, or ShapeUnknown when none is set.
func (p *Post) Shape() Shape {
	switch {
	case p == nil:
		return ShapeUnknown
	case p.Question != nil:
		return ShapeQuestion
	case p.Group != nil:
		return ShapeGroup
	case p.Conditional != nil:
		return ShapeConditional
	default:
		return ShapeUnknown
	}
}
