package scanner

import (
	"time"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scoring"
)

// BuildEnvelope assembles the report. now stamps ScannedAt and the
// duration is measured from start.
func BuildEnvelope(url string, sum scoring.Summary, platform string, start, now time.Time) *model.ScanResult {
	top := sum.TopIssues
	if top == nil {
		top = []model.Violation{}
	}
	return &model.ScanResult{
		URL:            url,
		Score:          sum.Score,
		TotalIssues:    sum.TotalIssues,
		CriticalIssues: sum.CriticalIssues,
		Platform:       platform,
		TopIssues:      top,
		ScannedAt:      now.UTC(),
		Meta:           model.ScanMeta{ScanDuration: now.Sub(start).Milliseconds()},
	}
}
