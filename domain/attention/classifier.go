// Package attention classifies posts by whether they need the user's input:
// never forecasted, forecast gone stale, or consensus moved since the user's
// last forecast. All predicates are pure and shape-aware; compound posts
// (groups, conditionals) aggregate pessimistically: one flagged constituent
// flags the whole post.
package attention

import (
	"math"
	"time"

	"flowcast/domain/core"
	"flowcast/domain/post"
)

// DefaultStaleThreshold is the fraction of a question's lifetime that must
// elapse since the user's forecast before the post counts as stale.
const DefaultStaleThreshold = 0.20

// activeForecasts collects the question's currently active forecasts. For
// multiple-choice questions the per-option forecasts are the unit of record;
// for every other type it is the question-level record.
func activeForecasts(q *post.Question, now time.Time) []*post.UserForecast {
	if q.Type == post.QuestionMultipleChoice {
		var active []*post.UserForecast
		for i := range q.Options {
			if f := q.Options[i].MyForecast; f.IsActive(now) {
				active = append(active, f)
			}
		}
		return active
	}
	if q.MyForecast.IsActive(now) {
		return []*post.UserForecast{q.MyForecast}
	}
	return nil
}

// questionUnpredicted reports whether the question lacks an active forecast.
// A multiple-choice question counts as unpredicted unless every option has
// an active forecast.
func questionUnpredicted(q *post.Question, now time.Time) bool {
	if q.Type == post.QuestionMultipleChoice {
		if len(q.Options) == 0 {
			return true
		}
		for i := range q.Options {
			if !q.Options[i].MyForecast.IsActive(now) {
				return true
			}
		}
		return false
	}
	return !q.MyForecast.IsActive(now)
}

// questionMovement returns the largest-magnitude movement among the
// question's active forecasts, or nil when none reports movement.
func questionMovement(q *post.Question, now time.Time) *post.Movement {
	var best *post.Movement
	for _, f := range activeForecasts(q, now) {
		if f.Movement == nil {
			continue
		}
		if best == nil || math.Abs(f.Movement.Magnitude) > math.Abs(best.Magnitude) {
			best = f.Movement
		}
	}
	return best
}

// questionLifetimeElapsed returns the largest lifetime-elapsed fraction among
// the question's active forecasts. ok is false when no forecast is active.
func questionLifetimeElapsed(q *post.Question, now time.Time) (float64, bool) {
	var max float64
	found := false
	for _, f := range activeForecasts(q, now) {
		if !found || f.LifetimeElapsed > max {
			max = f.LifetimeElapsed
		}
		found = true
	}
	return max, found
}

// IsUnpredicted reports whether the post still needs a forecast. Compound
// shapes are unpredicted if any constituent is; a post with no classifiable
// questions (unknown shape, empty group, conditional with no branches) is
// conservatively unpredicted so it is not silently skipped.
func IsUnpredicted(p *post.Post, now time.Time) bool {
	qs := p.Questions()
	if len(qs) == 0 {
		return true
	}
	for i := range qs {
		if questionUnpredicted(&qs[i], now) {
			return true
		}
	}
	return false
}

// IsStale reports whether any active forecast on any constituent question has
// outlived the given fraction of the question's lifetime. Pass
// DefaultStaleThreshold unless the caller has a reason to override it.
func IsStale(p *post.Post, threshold float64, now time.Time) bool {
	for _, q := range p.Questions() {
		for _, f := range activeForecasts(&q, now) {
			if f.LifetimeElapsed > threshold {
				return true
			}
		}
	}
	return false
}

// HasSignificantMovement reports whether any active forecast carries a
// movement record. Significance thresholding happens upstream; a non-nil
// movement is taken at face value.
func HasSignificantMovement(p *post.Post, now time.Time) bool {
	for _, q := range p.Questions() {
		for _, f := range activeForecasts(&q, now) {
			if f.Movement != nil {
				return true
			}
		}
	}
	return false
}

// RequiresAttention is the union criterion used by the general flow.
func RequiresAttention(p *post.Post, now time.Time) bool {
	return IsUnpredicted(p, now) ||
		IsStale(p, DefaultStaleThreshold, now) ||
		HasSignificantMovement(p, now)
}

// SelectAttentionQuestion picks the single most relevant constituent question
// for banner text when a post has several. Movement flows prefer the largest
// absolute movement, stale flows the largest lifetime elapsed, and the general
// flow prefers movement over staleness. A conditional with one populated
// branch returns that branch unconditionally. Returns nil when the post has
// no classifiable questions.
func SelectAttentionQuestion(p *post.Post, flowType *core.FlowType, now time.Time) *post.Question {
	qs := p.Questions()
	if len(qs) == 0 {
		return nil
	}
	if len(qs) == 1 {
		return &qs[0]
	}

	ft := core.FlowGeneral
	if flowType != nil {
		ft = *flowType
	}

	switch ft {
	case core.FlowNotPredicted:
		for i := range qs {
			if questionUnpredicted(&qs[i], now) {
				return &qs[i]
			}
		}
		return &qs[0]
	case core.FlowMovement:
		if q := maxMovementQuestion(qs, now); q != nil {
			return q
		}
		return &qs[0]
	case core.FlowStale:
		if q := maxLifetimeQuestion(qs, now); q != nil {
			return q
		}
		return &qs[0]
	default:
		// General: any constituent with movement beats the staleness
		// comparison; lifetime elapsed is the fallback.
		if q := maxMovementQuestion(qs, now); q != nil {
			return q
		}
		if q := maxLifetimeQuestion(qs, now); q != nil {
			return q
		}
		return &qs[0]
	}
}

func maxMovementQuestion(qs []post.Question, now time.Time) *post.Question {
	var best *post.Question
	var bestMag float64
	for i := range qs {
		m := questionMovement(&qs[i], now)
		if m == nil {
			continue
		}
		if mag := math.Abs(m.Magnitude); best == nil || mag > bestMag {
			best = &qs[i]
			bestMag = mag
		}
	}
	return best
}

func maxLifetimeQuestion(qs []post.Question, now time.Time) *post.Question {
	var best *post.Question
	var bestElapsed float64
	for i := range qs {
		elapsed, ok := questionLifetimeElapsed(&qs[i], now)
		if !ok {
			continue
		}
		if best == nil || elapsed > bestElapsed {
			best = &qs[i]
			bestElapsed = elapsed
		}
	}
	return best
}
