package models

// Verdict is the outcome of classifying one title.
type Verdict int

const (
	// VerdictUnintelligible means the model answered something other than True/False.
	VerdictUnintelligible Verdict = iota
	// VerdictViolates means the title matches at least one rule.
	VerdictViolates
	// VerdictCompliant means the title matches none of the rules.
	VerdictCompliant
)

func (v Verdict) String() string {
	switch v {
	case VerdictViolates:
		return "violates"
	case VerdictCompliant:
		return "compliant"
	default:
		return "unintelligible"
	}
}
