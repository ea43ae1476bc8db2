package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Comparison describes how a page's reported issues changed between two
// scans. Only reported top issues are compared; totals are compared as
// deltas.
type Comparison struct {
	BaseID          string   `json:"base_id"`
	HeadID          string   `json:"head_id"`
	ScoreDelta      int      `json:"score_delta"`
	TotalDelta      int      `json:"total_issues_delta"`
	CriticalDelta   int      `json:"critical_issues_delta"`
	PlatformChanged bool     `json:"platform_changed"`
	Added           []string `json:"added"`
	Removed         []string `json:"removed"`
}

// Compare diffs base against head, one line per reported rule group.
func Compare(base, head *model.ScanResult) *Comparison {
	c := &Comparison{
		BaseID:          base.ID,
		HeadID:          head.ID,
		ScoreDelta:      head.Score - base.Score,
		TotalDelta:      head.TotalIssues - base.TotalIssues,
		CriticalDelta:   head.CriticalIssues - base.CriticalIssues,
		PlatformChanged: base.Platform != head.Platform,
		Added:           []string{},
		Removed:         []string{},
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(issueText(base), issueText(head))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Added = append(c.Added, splitLines(d.Text)...)
		case diffmatchpatch.DiffDelete:
			c.Removed = append(c.Removed, splitLines(d.Text)...)
		case diffmatchpatch.DiffEqual:
			continue
		}
	}
	return c
}

// issueText renders issues sorted by rule id so reordering alone is not a
// change.
func issueText(res *model.ScanResult) string {
	issues := append([]model.Violation(nil), res.TopIssues...)
	sort.Slice(issues, func(i, j int) bool { return issues[i].RuleID < issues[j].RuleID })

	var b strings.Builder
	for _, v := range issues {
		fmt.Fprintf(&b, "%s [%s] nodes=%d\n", v.RuleID, v.Impact, v.AffectedNodes)
	}
	return b.String()
}

func splitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
