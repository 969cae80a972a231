// Package flow implements the prediction-flow engine: selecting the working
// set of posts for a flow, and the session state machine that drives
// step-by-step navigation, completion bookkeeping, and the summary view.
package flow

import (
	"time"

	"flowcast/domain/attention"
	"flowcast/domain/core"
	"flowcast/domain/post"
)

// SelectPosts computes the ordered subset of posts relevant to a flow type,
// preserving the input order (upstream ranking is authoritative; the flow
// never resorts). A nil flow type is ad-hoc mode and selects everything. The
// general flow is the union of the three attention criteria, not exclusive.
func SelectPosts(posts []*post.Post, flowType *core.FlowType, now time.Time) []*post.Post {
	if flowType == nil {
		out := make([]*post.Post, len(posts))
		copy(out, posts)
		return out
	}

	matches := func(p *post.Post) bool {
		switch *flowType {
		case core.FlowNotPredicted:
			return attention.IsUnpredicted(p, now)
		case core.FlowMovement:
			return attention.HasSignificantMovement(p, now)
		case core.FlowStale:
			return attention.IsStale(p, attention.DefaultStaleThreshold, now)
		default:
			return attention.RequiresAttention(p, now)
		}
	}

	out := make([]*post.Post, 0, len(posts))
	for _, p := range posts {
		if matches(p) {
			out = append(out, p)
		}
	}
	return out
}
