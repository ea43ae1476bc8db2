// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a browser or network.
package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of recorded warnings.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── Browser session ───────────────────────────────────────────────────

// FakeSession implements browser.Session without a browser.
// EvaluateFunc results are JSON round-tripped into the caller's out value.
type FakeSession struct {
	NavigateErr  error
	NavigateWait time.Duration
	HTMLBody     string
	HTMLErr      error
	Scripts      []string
	EvaluateFunc func(expression string) (any, error)
	ReleaseErr   error

	mu           sync.Mutex
	Navigated    []string
	Evaluated    []string
	releaseCalls int
}

var _ browser.Session = (*FakeSession)(nil)

func (s *FakeSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.Navigated = append(s.Navigated, url)
	s.mu.Unlock()

	if s.NavigateWait > 0 {
		select {
		case <-time.After(s.NavigateWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.NavigateErr
}

func (s *FakeSession) HTML(context.Context) (string, error) {
	if s.HTMLErr != nil {
		return "", s.HTMLErr
	}
	return s.HTMLBody, nil
}

func (s *FakeSession) ScriptSources(context.Context) ([]string, error) {
	return append([]string(nil), s.Scripts...), nil
}

func (s *FakeSession) Evaluate(_ context.Context, expression string, out any) error {
	s.mu.Lock()
	s.Evaluated = append(s.Evaluated, expression)
	s.mu.Unlock()

	if s.EvaluateFunc == nil {
		return nil
	}
	v, err := s.EvaluateFunc(expression)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *FakeSession) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseCalls++
	return s.ReleaseErr
}

// ReleaseCalls reports how many times Release ran.
func (s *FakeSession) ReleaseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseCalls
}

// EvaluateCount reports how many expressions were evaluated.
func (s *FakeSession) EvaluateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Evaluated)
}

// ─── Connector ─────────────────────────────────────────────────────────

// FakeConnector implements browser.Connector. It hands out Session, or a
// fresh FakeSession when Session is nil, unless Err is set.
type FakeConnector struct {
	Session *FakeSession
	Err     error
	Delay   time.Duration

	mu       sync.Mutex
	acquired int
}

func (c *FakeConnector) Acquire(ctx context.Context) (browser.Session, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.acquired++
	if c.Session == nil {
		return &FakeSession{}, nil
	}
	return c.Session, nil
}

// Acquired reports how many sessions were handed out.
func (c *FakeConnector) Acquired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired
}

// ─── Rule engine ───────────────────────────────────────────────────────

// FakeRuleEngine returns preconfigured violations.
type FakeRuleEngine struct {
	Violations []model.RawViolation
	Err        error

	mu    sync.Mutex
	calls int
}

func (e *FakeRuleEngine) Evaluate(context.Context, browser.Page) ([]model.RawViolation, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	return append([]model.RawViolation(nil), e.Violations...), nil
}

func (e *FakeRuleEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// ─── Scanner ───────────────────────────────────────────────────────────

// FakeScanner returns Result, or Err, after Delay. A cancelled ctx ends
// the wait early with ctx.Err().
type FakeScanner struct {
	Result *model.ScanResult
	Err    error
	Delay  time.Duration
	// Stages are reported to the observer before the wait.
	Stages []string
	// Gate, when set, blocks the scan until it is closed.
	Gate chan struct{}

	mu       sync.Mutex
	requests []model.ScanRequest
}

func (f *FakeScanner) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return f.ScanObserved(ctx, req, nil)
}

func (f *FakeScanner) ScanObserved(ctx context.Context, req model.ScanRequest, observe func(stage string)) (*model.ScanResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, s := range f.Stages {
		if observe != nil {
			observe(s)
		}
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		cp := *f.Result
		return &cp, nil
	}
	return &model.ScanResult{
		URL:       req.TargetURL,
		Score:     100,
		Platform:  "Custom / Static HTML",
		TopIssues: []model.Violation{},
		ScannedAt: time.Now(),
	}, nil
}

// Requests returns every request seen so far.
func (f *FakeScanner) Requests() []model.ScanRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ScanRequest(nil), f.requests...)
}
