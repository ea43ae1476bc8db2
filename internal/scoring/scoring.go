// Package scoring merges raw rule violations into rule groups and computes
// the bounded 0-100 compliance score.
package scoring

import (
	"math"
	"sort"

	"github.com/raysh454/a11yscan/internal/model"
)

const (
	// MaxScore is the score of a page with no violations.
	MaxScore = 100

	// GroupPenaltyCap bounds the deduction a single rule group can cause.
	GroupPenaltyCap = 20.0

	// DefaultTopN is how many rule groups a report lists.
	DefaultTopN = 10
)

// Summary is the aggregate of one scan's violations.
type Summary struct {
	// TopIssues is sorted and truncated; totals below cover all groups.
	TopIssues      []model.Violation
	TotalIssues    int
	CriticalIssues int
	Score          int
}

// Aggregate groups raw by rule id and scores the result with the default
// top-N truncation.
func Aggregate(raw []model.RawViolation) Summary {
	return AggregateTop(raw, DefaultTopN)
}

// AggregateTop is Aggregate with a caller-chosen truncation. topN <= 0
// keeps every group.
func AggregateTop(raw []model.RawViolation, topN int) Summary {
	groups := Group(raw)

	sum := Summary{Score: Score(groups)}
	for _, g := range groups {
		sum.TotalIssues += g.AffectedNodes
		if g.Impact.IsCritical() {
			sum.CriticalIssues += g.AffectedNodes
		}
	}

	Sort(groups)
	if topN > 0 && len(groups) > topN {
		groups = groups[:topN]
	}
	sum.TopIssues = groups
	return sum
}

// Group merges violations sharing a rule id. Node counts are summed; the
// remaining fields come from the first occurrence. Groups are returned in
// first-seen order.
func Group(raw []model.RawViolation) []model.Violation {
	index := make(map[string]int, len(raw))
	out := make([]model.Violation, 0, len(raw))
	for _, r := range raw {
		if i, ok := index[r.RuleID]; ok {
			out[i].AffectedNodes += r.AffectedNodes
			continue
		}
		index[r.RuleID] = len(out)
		out = append(out, model.Violation{
			RuleID:        r.RuleID,
			Impact:        r.Impact,
			Description:   r.Description,
			Help:          r.Help,
			HelpURL:       r.HelpURL,
			AffectedNodes: r.AffectedNodes,
		})
	}
	return out
}

// Sort orders groups critical first, then by descending node count. Equal
// groups keep their relative order.
func Sort(groups []model.Violation) {
	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := groups[i].Impact.Rank(), groups[j].Impact.Rank()
		if ri != rj {
			return ri < rj
		}
		return groups[i].AffectedNodes > groups[j].AffectedNodes
	})
}

// Score deducts a capped per-group penalty from MaxScore, floors at zero
// and rounds to the nearest integer.
func Score(groups []model.Violation) int {
	var deduction float64
	for _, g := range groups {
		deduction += GroupPenalty(g)
	}
	return int(math.Round(math.Max(0, MaxScore-deduction)))
}

// GroupPenalty is the deduction for one group, at most GroupPenaltyCap.
func GroupPenalty(g model.Violation) float64 {
	return math.Min(g.Impact.Penalty()*float64(g.AffectedNodes), GroupPenaltyCap)
}
