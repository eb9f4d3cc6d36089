package lcd

// Policy holds the payer thresholds the assessment is scored against.
type Policy struct {
	// ConservativeCareDays is the minimum episode length before advanced
	// therapies are covered.
	ConservativeCareDays int
	// ResponseWindowDays is the window over which ReductionThreshold must
	// be reached.
	ResponseWindowDays int
	// ReductionThreshold is the required wound area reduction in percent.
	ReductionThreshold float64
	// AtRiskCoverage is the inclusive weekly coverage percentage that
	// separates at-risk from non-compliant.
	AtRiskCoverage float64
	// ComponentWeight is the maximum score of each of the four components.
	ComponentWeight float64
}

// DefaultPolicy is the Medicare LCD policy for wound care.
var DefaultPolicy = Policy{
	ConservativeCareDays: 30,
	ResponseWindowDays:   28,
	ReductionThreshold:   20,
	AtRiskCoverage:       85,
	ComponentWeight:      25,
}
