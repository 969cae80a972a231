// Package core holds the small shared vocabulary used across the domain
// packages: the flow mode enum and its helpers.
package core

// FlowType selects which attention criterion drives a prediction flow. A nil
// *FlowType in signatures means ad-hoc "resume predicting" mode: no filtering,
// completion tracked locally, no attention banner.
type FlowType string

const (
	FlowGeneral      FlowType = "general"
	FlowNotPredicted FlowType = "not_predicted"
	FlowMovement     FlowType = "movement"
	FlowStale        FlowType = "stale"
)

// IsValidFlowType checks if the given flow type is supported.
func IsValidFlowType(ft FlowType) bool {
	switch ft {
	case FlowGeneral, FlowNotPredicted, FlowMovement, FlowStale:
		return true
	default:
		return false
	}
}

// FlowTypePtr returns a pointer to ft, for threading the optional flow type
// through signatures that take *FlowType.
func FlowTypePtr(ft FlowType) *FlowType {
	return &ft
}

// ParseFlowType maps a query/form value onto a *FlowType. Empty input means
// ad-hoc mode and returns nil; unknown values also return nil so a malformed
// request degrades to the unfiltered flow instead of erroring.
func ParseFlowType(s string) *FlowType {
	ft := FlowType(s)
	if !IsValidFlowType(ft) {
		return nil
	}
	return &ft
}
