// Package scoring computes descriptive statistics over a flow working set for
// the header and summary panels: how many posts need attention for which
// reason, and how large the consensus movements and forecast ages are.
package scoring

import (
	"math"
	"time"

	"flowcast/domain/attention"
	"flowcast/domain/post"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a working set for display.
type Summary struct {
	Total       int `json:"total"`
	Unpredicted int `json:"unpredicted"`
	Stale       int `json:"stale"`
	Moved       int `json:"moved"`

	// Movement magnitudes across all active forecasts, absolute values in
	// each question's native unit.
	MeanMovement   float64 `json:"mean_movement"`
	MedianMovement float64 `json:"median_movement"`
	StdDevMovement float64 `json:"stddev_movement"`

	// Forecast age as lifetime-elapsed fractions.
	MaxLifetimeElapsed float64 `json:"max_lifetime_elapsed"`
	P90LifetimeElapsed float64 `json:"p90_lifetime_elapsed"`
	// MeanLifetimeElapsed weights each post's worst constituent by its
	// question count, so large groups dominate proportionally.
	MeanLifetimeElapsed float64 `json:"mean_lifetime_elapsed"`
}

// Summarize computes the working-set summary at the given instant.
func Summarize(posts []*post.Post, now time.Time) Summary {
	s := Summary{Total: len(posts)}

	var movements []float64
	var elapsed []float64
	var weights []float64

	for _, p := range posts {
		if attention.IsUnpredicted(p, now) {
			s.Unpredicted++
		}
		if attention.IsStale(p, attention.DefaultStaleThreshold, now) {
			s.Stale++
		}
		if attention.HasSignificantMovement(p, now) {
			s.Moved++
		}

		for _, q := range p.Questions() {
			if q.Type == post.QuestionMultipleChoice {
				for i := range q.Options {
					movements = appendMovement(movements, q.Options[i].MyForecast, now)
				}
			} else {
				movements = appendMovement(movements, q.MyForecast, now)
			}
		}

		if worst, ok := worstLifetime(p, now); ok {
			elapsed = append(elapsed, worst)
			weights = append(weights, float64(len(p.Questions())))
		}
	}

	if len(movements) > 0 {
		s.MeanMovement, _ = stats.Mean(movements)
		s.MedianMovement, _ = stats.Median(movements)
		s.StdDevMovement, _ = stats.StandardDeviation(movements)
	}
	if len(elapsed) > 0 {
		s.MaxLifetimeElapsed, _ = stats.Max(elapsed)
		s.P90LifetimeElapsed, _ = stats.Percentile(elapsed, 90)
		s.MeanLifetimeElapsed = stat.Mean(elapsed, weights)
	}
	return s
}

// appendMovement adds the forecast's absolute movement magnitude when the
// forecast is active and reports movement.
func appendMovement(movements []float64, f *post.UserForecast, now time.Time) []float64 {
	if !f.IsActive(now) || f.Movement == nil {
		return movements
	}
	return append(movements, math.Abs(f.Movement.Magnitude))
}

// worstLifetime returns the largest lifetime-elapsed fraction among the
// post's active forecasts.
func worstLifetime(p *post.Post, now time.Time) (float64, bool) {
	var worst float64
	found := false
	for _, q := range p.Questions() {
		forecasts := []*post.UserForecast{q.MyForecast}
		if q.Type == post.QuestionMultipleChoice {
			forecasts = forecasts[:0]
			for i := range q.Options {
				forecasts = append(forecasts, q.Options[i].MyForecast)
			}
		}
		for _, f := range forecasts {
			if !f.IsActive(now) {
				continue
			}
			if !found || f.LifetimeElapsed > worst {
				worst = f.LifetimeElapsed
			}
			found = true
		}
	}
	return worst, found
}
