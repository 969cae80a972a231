package attention

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"flowcast/domain/core"
	"flowcast/domain/post"
)

// BannerReason identifies which attention criterion produced a banner.
type BannerReason string

const (
	ReasonUnpredicted BannerReason = "unpredicted"
	ReasonMovement    BannerReason = "movement"
	ReasonStale       BannerReason = "stale"
)

// Banner is the human-readable explanation of why the current post requires
// attention. It is a pure view derivation; the UI renders Message verbatim.
type Banner struct {
	Reason  BannerReason `json:"reason"`
	Message string       `json:"message"`
}

const (
	secondsPerDay = 86400.0
	daysPerWeek   = 7.0
	daysPerMonth  = 30.44
	daysPerYear   = 365.25
)

// Date movement bucket boundaries, in days. A shift of up to 21 days reads in
// days, up to 120 in weeks, up to 730 in months, beyond that in years.
const (
	dateDaysMax   = 21.0
	dateWeeksMax  = 120.0
	dateMonthsMax = 730.0
)

// BuildBanner derives the attention banner for a post, or nil when no banner
// applies: ad-hoc mode (nil flow type), a post the user has already acted on
// this session (isDone), or a post whose data cannot justify the flow's
// criterion. Never mutates its inputs.
func BuildBanner(p *post.Post, flowType *core.FlowType, isDone bool, now time.Time) *Banner {
	if flowType == nil || isDone {
		return nil
	}

	switch *flowType {
	case core.FlowNotPredicted:
		return unpredictedBanner()
	case core.FlowMovement:
		return movementBanner(p, flowType, now)
	case core.FlowStale:
		return staleBanner(p, flowType, now)
	case core.FlowGeneral:
		// Priority order: unpredicted beats movement beats stale.
		if IsUnpredicted(p, now) {
			return unpredictedBanner()
		}
		if HasSignificantMovement(p, now) {
			return movementBanner(p, flowType, now)
		}
		if IsStale(p, DefaultStaleThreshold, now) {
			return staleBanner(p, flowType, now)
		}
		return nil
	default:
		return nil
	}
}

func unpredictedBanner() *Banner {
	return &Banner{
		Reason:  ReasonUnpredicted,
		Message: "You haven't made a prediction on this question yet.",
	}
}

func staleBanner(p *post.Post, flowType *core.FlowType, now time.Time) *Banner {
	q := SelectAttentionQuestion(p, flowType, now)
	if q == nil {
		return nil
	}
	elapsed, ok := questionLifetimeElapsed(q, now)
	if !ok {
		return nil
	}
	pct := int(math.Round(elapsed * 100))
	return &Banner{
		Reason:  ReasonStale,
		Message: fmt.Sprintf("Your forecast hasn't been updated for %d%% of the question's lifetime.", pct),
	}
}

func movementBanner(p *post.Post, flowType *core.FlowType, now time.Time) *Banner {
	q := SelectAttentionQuestion(p, flowType, now)
	if q == nil {
		return nil
	}
	m := questionMovement(q, now)
	if m == nil || m.Direction == post.MovementUnchanged {
		return nil
	}
	return &Banner{
		Reason:  ReasonMovement,
		Message: movementMessage(q, m),
	}
}

// movementMessage phrases the consensus change in the question's native
// terms: calendar units for date questions, percentage points for binary and
// multiple choice, the declared unit for numeric and discrete.
func movementMessage(q *post.Question, m *post.Movement) string {
	widthChange := m.Direction == post.MovementContracted || m.Direction == post.MovementExpanded

	if q.Type == post.QuestionDate {
		amount := formatDateSpan(math.Abs(m.Magnitude))
		if widthChange {
			return fmt.Sprintf("The community uncertainty has %s by %s since your last forecast.", widthVerb(m.Direction), amount)
		}
		when := "later"
		if m.Direction == post.MovementDown {
			when = "sooner"
		}
		return fmt.Sprintf("The community estimate has moved %s %s since your last forecast.", amount, when)
	}

	var amount string
	switch q.Type {
	case post.QuestionBinary, post.QuestionMultipleChoice:
		amount = formatMagnitude(math.Abs(m.Magnitude)*100) + " percentage points"
	default:
		amount = formatMagnitude(math.Abs(m.Magnitude))
		if q.Unit != "" {
			amount += " " + q.Unit
		}
	}

	if widthChange {
		return fmt.Sprintf("The community uncertainty has %s by %s since your last forecast.", widthVerb(m.Direction), amount)
	}
	verb := "increased"
	if m.Direction == post.MovementDown {
		verb = "decreased"
	}
	return fmt.Sprintf("The community estimate has %s by %s since your last forecast.", verb, amount)
}

func widthVerb(d post.MovementDirection) string {
	if d == post.MovementContracted {
		return "narrowed"
	}
	return "expanded"
}

// formatDateSpan converts a span in seconds to the coarsest sensible calendar
// unit, rounded to the nearest whole count.
func formatDateSpan(seconds float64) string {
	days := seconds / secondsPerDay
	switch {
	case days <= dateDaysMax:
		return pluralize(int(math.Round(days)), "day")
	case days <= dateWeeksMax:
		return pluralize(int(math.Round(days/daysPerWeek)), "week")
	case days <= dateMonthsMax:
		return pluralize(int(math.Round(days/daysPerMonth)), "month")
	default:
		return pluralize(int(math.Round(days/daysPerYear)), "year")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// formatMagnitude renders a float rounded to one decimal, without trailing
// zeros ("7", "12.5"). The rounding also absorbs float artifacts from the
// probability-to-points scaling.
func formatMagnitude(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
