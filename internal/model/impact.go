package model

import "strings"

// Impact is the severity the rule engine assigns to a violation.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

// ParseImpact normalizes a rule-engine impact string. Empty or unknown
// values are treated as minor.
func ParseImpact(s string) Impact {
	switch Impact(strings.ToLower(strings.TrimSpace(s))) {
	case ImpactCritical:
		return ImpactCritical
	case ImpactSerious:
		return ImpactSerious
	case ImpactModerate:
		return ImpactModerate
	default:
		return ImpactMinor
	}
}

// Rank orders impacts for reporting, critical first.
func (i Impact) Rank() int {
	switch i {
	case ImpactCritical:
		return 0
	case ImpactSerious:
		return 1
	case ImpactModerate:
		return 2
	case ImpactMinor:
		return 3
	default:
		return 4
	}
}

// Penalty is the score deduction per affected node.
func (i Impact) Penalty() float64 {
	switch i {
	case ImpactCritical:
		return 5
	case ImpactSerious:
		return 3
	case ImpactModerate:
		return 1
	case ImpactMinor:
		return 0.5
	default:
		return 0
	}
}

// IsCritical reports whether the impact counts toward the headline
// critical number. Serious is folded into critical there.
func (i Impact) IsCritical() bool {
	return i == ImpactCritical || i == ImpactSerious
}
