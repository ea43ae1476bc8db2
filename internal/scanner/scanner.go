// Package scanner runs the accessibility scan pipeline: admission, URL
// normalization, browser acquisition, navigation, platform detection, rule
// evaluation and scoring.
package scanner

import (
	"context"
	"time"

	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/platform"
	"github.com/raysh454/a11yscan/internal/ratelimit"
	"github.com/raysh454/a11yscan/internal/scoring"
	"github.com/raysh454/a11yscan/internal/target"
)

// Pipeline stages, in execution order.
const (
	StageAdmit       = "admit"
	StageValidate    = "validate"
	StageConnect     = "connect"
	StageNavigate    = "navigate"
	StageSettle      = "settle"
	StageFingerprint = "fingerprint"
	StageEvaluate    = "evaluate"
	StageScore       = "score"
)

// RuleEngine evaluates accessibility rules against a loaded page.
type RuleEngine interface {
	Evaluate(ctx context.Context, page browser.Page) ([]model.RawViolation, error)
}

// PlatformDetector names the platform behind a page.
type PlatformDetector interface {
	Detect(html string, scriptSrcs []string) string
}

type Config struct {
	// SettleDelay gives client-side frameworks time to hydrate after
	// DOMContentLoaded.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// TopIssues bounds the reported rule groups.
	TopIssues int `yaml:"top_issues"`
}

func DefaultConfig() Config {
	return Config{SettleDelay: 2 * time.Second, TopIssues: scoring.DefaultTopN}
}

// Scanner is safe for concurrent use. Each Scan acquires its own session.
type Scanner struct {
	cfg       Config
	connector browser.Connector
	engine    RuleEngine
	detector  PlatformDetector
	limiter   *ratelimit.Limiter
	logger    logging.Logger

	now func() time.Time
}

type Option func(*Scanner)

// WithLimiter enables per-identity admission control.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Scanner) { s.limiter = l }
}

func WithDetector(d PlatformDetector) Option {
	return func(s *Scanner) { s.detector = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

func New(cfg Config, connector browser.Connector, engine RuleEngine, logger logging.Logger, opts ...Option) *Scanner {
	if cfg.TopIssues <= 0 {
		cfg.TopIssues = scoring.DefaultTopN
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	s := &Scanner{
		cfg:       cfg,
		connector: connector,
		engine:    engine,
		detector:  platform.NewDetector(),
		logger:    logging.OrNop(logger).With(logging.Field{Key: "component", Value: "scanner"}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs the full pipeline for req. It returns either a complete result
// or a *Error, never both.
func (s *Scanner) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return s.ScanObserved(ctx, req, nil)
}

// ScanObserved is Scan with observe called as each stage begins.
func (s *Scanner) ScanObserved(ctx context.Context, req model.ScanRequest, observe func(stage string)) (*model.ScanResult, error) {
	start := s.now()
	stage := func(name string) {
		if observe != nil {
			observe(name)
		}
	}

	res, err := s.run(ctx, req, start, stage)
	if err != nil {
		e := classify(err)
		s.logger.Warn("scan failed",
			logging.Field{Key: "url", Value: req.TargetURL},
			logging.Field{Key: "kind", Value: string(e.Kind)},
			logging.Field{Key: "error", Value: e.Debug()},
			logging.Field{Key: "duration_ms", Value: s.now().Sub(start).Milliseconds()})
		return nil, e
	}

	s.logger.Info("scan complete",
		logging.Field{Key: "url", Value: res.URL},
		logging.Field{Key: "score", Value: res.Score},
		logging.Field{Key: "total_issues", Value: res.TotalIssues},
		logging.Field{Key: "platform", Value: res.Platform},
		logging.Field{Key: "duration_ms", Value: res.Meta.ScanDuration})
	return res, nil
}

func (s *Scanner) run(ctx context.Context, req model.ScanRequest, start time.Time, stage func(string)) (*model.ScanResult, error) {
	stage(StageAdmit)
	if s.limiter != nil && !s.limiter.Allow(req.ClientIdentity) {
		return nil, &Error{
			Kind:       KindRateLimited,
			Msg:        MsgRateLimited,
			RetryAfter: s.limiter.RetryAfter(req.ClientIdentity),
		}
	}

	stage(StageValidate)
	url, err := target.Normalize(req.TargetURL)
	if err != nil {
		return nil, Wrap(KindInvalidURL, err)
	}

	stage(StageConnect)
	sess, err := s.connector.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	stage(StageNavigate)
	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}

	stage(StageSettle)
	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}

	stage(StageFingerprint)
	name := s.fingerprint(ctx, sess)

	stage(StageEvaluate)
	raw, err := s.engine.Evaluate(ctx, sess)
	if err != nil {
		return nil, err
	}

	stage(StageScore)
	sum := scoring.AggregateTop(raw, s.cfg.TopIssues)
	return BuildEnvelope(url, sum, name, start, s.now()), nil
}

// fingerprint never fails the scan; an unreadable page is reported with
// whatever evidence was collected.
func (s *Scanner) fingerprint(ctx context.Context, page browser.Page) string {
	html, err := page.HTML(ctx)
	if err != nil {
		s.logger.Debug("could not read page html", logging.Field{Key: "error", Value: err})
	}
	srcs, err := page.ScriptSources(ctx)
	if err != nil {
		s.logger.Debug("could not read script sources", logging.Field{Key: "error", Value: err})
	}
	return s.detector.Detect(html, srcs)
}

// release closes the session. Its error never replaces the scan outcome.
func (s *Scanner) release(sess browser.Session) {
	if err := sess.Release(); err != nil {
		s.logger.Debug("session release failed", logging.Field{Key: "error", Value: err})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
