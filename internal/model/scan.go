package model

import "time"

// ScanRequest is a single request to scan a URL.
type ScanRequest struct {
	// TargetURL is user supplied and unvalidated.
	TargetURL string `json:"url"`

	// ClientIdentity is derived from the caller's network origin and only
	// used for admission control. It is never persisted.
	ClientIdentity string `json:"-"`
}

// RawViolation is one violation as reported by the rule engine.
type RawViolation struct {
	RuleID        string `json:"id"`
	Impact        Impact `json:"impact"`
	Description   string `json:"description"`
	Help          string `json:"help,omitempty"`
	HelpURL       string `json:"helpUrl,omitempty"`
	AffectedNodes int    `json:"nodes"`
}

// Violation is a rule group after merging raw violations by rule id.
type Violation struct {
	RuleID        string `json:"id"`
	Impact        Impact `json:"impact"`
	Description   string `json:"description"`
	Help          string `json:"help,omitempty"`
	HelpURL       string `json:"helpUrl,omitempty"`
	AffectedNodes int    `json:"nodes"`
}

// ScanMeta carries observability data for a scan.
type ScanMeta struct {
	// ScanDuration is elapsed wall-clock time in milliseconds.
	ScanDuration int64 `json:"scanDuration"`
}

// ScanResult is the report for one successful scan. It is built once and
// never mutated afterwards.
type ScanResult struct {
	// ID is set once the result has been stored.
	ID             string      `json:"id,omitempty"`
	URL            string      `json:"url,omitempty"`
	Score          int         `json:"score"`
	TotalIssues    int         `json:"totalIssues"`
	CriticalIssues int         `json:"criticalIssues"`
	Platform       string      `json:"platform"`
	TopIssues      []Violation `json:"topIssues"`
	ScannedAt      time.Time   `json:"scannedAt"`
	Meta           ScanMeta    `json:"_meta"`
}
