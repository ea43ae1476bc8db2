package scanner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/axe"
	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/ratelimit"
	"github.com/raysh454/a11yscan/internal/scoring"
	"github.com/raysh454/a11yscan/internal/testutil"
)

func noSettle() Config { return Config{SettleDelay: 0, TopIssues: 10} }

func newTestScanner(sess *testutil.FakeSession, engine *testutil.FakeRuleEngine, opts ...Option) (*Scanner, *testutil.FakeConnector, *testutil.DummyLogger) {
	conn := &testutil.FakeConnector{Session: sess}
	logger := &testutil.DummyLogger{}
	return New(noSettle(), conn, engine, logger, opts...), conn, logger
}

// ─── Success path ───

func TestScan_Success(t *testing.T) {
	t.Parallel()

	sess := &testutil.FakeSession{
		HTMLBody: `<html><head><link href="https://cdn.shopify.com/s/theme.css"></head></html>`,
	}
	engine := &testutil.FakeRuleEngine{Violations: []model.RawViolation{
		{RuleID: "image-alt", Impact: model.ImpactCritical, Description: "alt", AffectedNodes: 3},
	}}
	s, _, _ := newTestScanner(sess, engine)

	var stages []string
	res, err := s.ScanObserved(context.Background(), model.ScanRequest{TargetURL: "Example.com", ClientIdentity: "1.2.3.4"}, func(st string) {
		stages = append(stages, st)
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if res.Score != 85 || res.TotalIssues != 3 || res.CriticalIssues != 3 {
		t.Errorf("result = score %d total %d critical %d", res.Score, res.TotalIssues, res.CriticalIssues)
	}
	if res.Platform != "Shopify" {
		t.Errorf("Platform = %q", res.Platform)
	}
	if res.URL != "https://example.com" {
		t.Errorf("URL = %q", res.URL)
	}
	if len(sess.Navigated) != 1 || sess.Navigated[0] != "https://example.com" {
		t.Errorf("navigated to %v", sess.Navigated)
	}
	if sess.ReleaseCalls() != 1 {
		t.Errorf("Release called %d times, want 1", sess.ReleaseCalls())
	}
	if res.ScannedAt.IsZero() {
		t.Error("ScannedAt not stamped")
	}

	want := []string{StageAdmit, StageValidate, StageConnect, StageNavigate, StageSettle, StageFingerprint, StageEvaluate, StageScore}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}

func TestScan_NoViolations(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScanner(&testutil.FakeSession{}, &testutil.FakeRuleEngine{})
	res, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "https://example.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Score != 100 || res.TotalIssues != 0 || res.CriticalIssues != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.TopIssues == nil {
		t.Error("TopIssues is nil, want empty slice")
	}
	if res.Platform != "Custom / Static HTML" {
		t.Errorf("Platform = %q", res.Platform)
	}
}

func TestScan_UsesLiveScriptSources(t *testing.T) {
	t.Parallel()

	sess := &testutil.FakeSession{
		HTMLBody: "<html><body><div></div></body></html>",
		Scripts:  []string{"https://example.com/_next/static/chunks/main.js"},
	}
	s, _, _ := newTestScanner(sess, &testutil.FakeRuleEngine{})
	res, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Platform != "Next.js" {
		t.Errorf("Platform = %q, want Next.js", res.Platform)
	}
}

func TestScan_HTMLFailureDoesNotFailScan(t *testing.T) {
	t.Parallel()

	sess := &testutil.FakeSession{HTMLErr: errors.New("node not found")}
	s, _, _ := newTestScanner(sess, &testutil.FakeRuleEngine{})
	res, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Platform != "Custom / Static HTML" {
		t.Errorf("Platform = %q", res.Platform)
	}
}

func TestScan_TopIssuesConfigurable(t *testing.T) {
	t.Parallel()

	var raw []model.RawViolation
	for i := 0; i < 8; i++ {
		raw = append(raw, model.RawViolation{RuleID: fmt.Sprintf("r%d", i), Impact: model.ImpactMinor, AffectedNodes: 1})
	}
	conn := &testutil.FakeConnector{Session: &testutil.FakeSession{}}
	s := New(Config{TopIssues: 3}, conn, &testutil.FakeRuleEngine{Violations: raw}, nil)

	res, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.TopIssues) != 3 || res.TotalIssues != 8 {
		t.Errorf("top %d total %d", len(res.TopIssues), res.TotalIssues)
	}
}

// ─── Failure paths and release discipline ───

func TestScan_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		url          string
		connErr      error
		navErr       error
		engineErr    error
		wantKind     Kind
		wantReleases int
		wantAcquired int
		wantEngine   int
	}{
		{
			name:     "invalid url",
			url:      "not a url and no scheme???",
			wantKind: KindInvalidURL,
		},
		{
			name:     "unsupported scheme",
			url:      "ftp://example.com",
			wantKind: KindInvalidURL,
		},
		{
			name:     "not configured",
			url:      "example.com",
			connErr:  browser.ErrNotConfigured,
			wantKind: KindNotConfigured,
		},
		{
			name:     "connect timeout",
			url:      "example.com",
			connErr:  fmt.Errorf("%w: %w after 15s", browser.ErrConnectionFailed, browser.ErrConnectTimeout),
			wantKind: KindConnectionFailed,
		},
		{
			name:         "navigation failure",
			url:          "example.com",
			navErr:       fmt.Errorf("%w: net::ERR_NAME_NOT_RESOLVED", browser.ErrNavigationFailed),
			wantKind:     KindNavigationFailed,
			wantReleases: 1,
			wantAcquired: 1,
		},
		{
			name:         "rule engine failure",
			url:          "example.com",
			engineErr:    fmt.Errorf("%w: inject: blocked by CSP", axe.ErrRuleEngineFailed),
			wantKind:     KindScanFailed,
			wantReleases: 1,
			wantAcquired: 1,
			wantEngine:   1,
		},
		{
			name:         "unexpected engine error",
			url:          "example.com",
			engineErr:    errors.New("boom"),
			wantKind:     KindScanFailed,
			wantReleases: 1,
			wantAcquired: 1,
			wantEngine:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sess := &testutil.FakeSession{NavigateErr: tt.navErr}
			conn := &testutil.FakeConnector{Session: sess, Err: tt.connErr}
			engine := &testutil.FakeRuleEngine{Err: tt.engineErr}
			s := New(noSettle(), conn, engine, &testutil.DummyLogger{})

			res, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: tt.url})
			if res != nil {
				t.Errorf("partial result returned: %+v", res)
			}
			if KindOf(err) != tt.wantKind {
				t.Fatalf("kind = %s (%v), want %s", KindOf(err), err, tt.wantKind)
			}
			if got := sess.ReleaseCalls(); got != tt.wantReleases {
				t.Errorf("Release called %d times, want %d", got, tt.wantReleases)
			}
			if got := conn.Acquired(); got != tt.wantAcquired {
				t.Errorf("Acquired %d sessions, want %d", got, tt.wantAcquired)
			}
			if got := engine.Calls(); got != tt.wantEngine {
				t.Errorf("engine called %d times, want %d", got, tt.wantEngine)
			}
		})
	}
}

func TestScan_ScanFailedCarriesDebug(t *testing.T) {
	t.Parallel()

	engine := &testutil.FakeRuleEngine{Err: fmt.Errorf("%w: inject: blocked by CSP", axe.ErrRuleEngineFailed)}
	s, _, _ := newTestScanner(&testutil.FakeSession{}, engine)

	_, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"})
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, want *Error", err)
	}
	if se.Msg != MsgScanFailed {
		t.Errorf("Msg = %q", se.Msg)
	}
	if !strings.Contains(se.Debug(), "blocked by CSP") {
		t.Errorf("Debug() = %q", se.Debug())
	}
	if !errors.Is(err, axe.ErrRuleEngineFailed) {
		t.Error("cause not retained")
	}
}

func TestScan_ReleaseErrorSwallowed(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		sess := &testutil.FakeSession{ReleaseErr: errors.New("already closed")}
		s, _, _ := newTestScanner(sess, &testutil.FakeRuleEngine{})
		if _, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"}); err != nil {
			t.Fatalf("release error leaked: %v", err)
		}
	})

	t.Run("failure keeps primary error", func(t *testing.T) {
		t.Parallel()
		sess := &testutil.FakeSession{
			ReleaseErr:  errors.New("already closed"),
			NavigateErr: fmt.Errorf("%w: timeout", browser.ErrNavigationFailed),
		}
		s, _, _ := newTestScanner(sess, &testutil.FakeRuleEngine{})
		_, err := s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"})
		if KindOf(err) != KindNavigationFailed {
			t.Fatalf("kind = %s, want NAVIGATION_FAILED", KindOf(err))
		}
	})
}

func TestScan_CancelDuringSettleReleases(t *testing.T) {
	t.Parallel()

	sess := &testutil.FakeSession{}
	conn := &testutil.FakeConnector{Session: sess}
	s := New(Config{SettleDelay: time.Hour}, conn, &testutil.FakeRuleEngine{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.Scan(ctx, model.ScanRequest{TargetURL: "example.com"})
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not stop after cancel")
	}
	if sess.ReleaseCalls() != 1 {
		t.Errorf("Release called %d times, want 1", sess.ReleaseCalls())
	}
}

// ─── Admission ───

func TestScan_RateLimited(t *testing.T) {
	t.Parallel()

	lim := ratelimit.New(ratelimit.Config{Limit: 2, Window: time.Minute})
	s, conn, _ := newTestScanner(&testutil.FakeSession{}, &testutil.FakeRuleEngine{}, WithLimiter(lim))
	req := model.ScanRequest{TargetURL: "example.com", ClientIdentity: "10.0.0.1"}

	for i := 0; i < 2; i++ {
		if _, err := s.Scan(context.Background(), req); err != nil {
			t.Fatalf("scan %d: %v", i+1, err)
		}
	}
	_, err := s.Scan(context.Background(), req)
	if KindOf(err) != KindRateLimited {
		t.Fatalf("kind = %s, want RATE_LIMITED", KindOf(err))
	}
	var se *Error
	if errors.As(err, &se) && se.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %s, want > 0", se.RetryAfter)
	}
	if conn.Acquired() != 2 {
		t.Errorf("Acquired = %d, denied request reached the browser", conn.Acquired())
	}

	other := model.ScanRequest{TargetURL: "example.com", ClientIdentity: "10.0.0.2"}
	if _, err := s.Scan(context.Background(), other); err != nil {
		t.Errorf("other identity denied: %v", err)
	}
}

func TestScan_ConcurrentScansEachRelease(t *testing.T) {
	t.Parallel()

	const n = 20
	sessions := make([]*testutil.FakeSession, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sessions[i] = &testutil.FakeSession{}
		s := New(noSettle(), &testutil.FakeConnector{Session: sessions[i]}, &testutil.FakeRuleEngine{}, nil)
		wg.Add(1)
		go func(s *Scanner) {
			defer wg.Done()
			_, _ = s.Scan(context.Background(), model.ScanRequest{TargetURL: "example.com"})
		}(s)
	}
	wg.Wait()
	for i, sess := range sessions {
		if sess.ReleaseCalls() != 1 {
			t.Errorf("session %d released %d times", i, sess.ReleaseCalls())
		}
	}
}

// ─── Envelope & errors ───

func TestBuildEnvelope(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(4321 * time.Millisecond)
	sum := scoring.Summary{Score: 90, TotalIssues: 4, CriticalIssues: 1}

	res := BuildEnvelope("https://example.com", sum, "WordPress", start, now)
	if res.Meta.ScanDuration != 4321 {
		t.Errorf("ScanDuration = %d, want 4321", res.Meta.ScanDuration)
	}
	if !res.ScannedAt.Equal(now) {
		t.Errorf("ScannedAt = %s, want %s", res.ScannedAt, now)
	}
	if res.TopIssues == nil || len(res.TopIssues) != 0 {
		t.Errorf("TopIssues = %#v, want empty slice", res.TopIssues)
	}
	if res.Score != 90 || res.Platform != "WordPress" {
		t.Errorf("res = %+v", res)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	if KindOf(errors.New("foreign")) != KindScanFailed {
		t.Error("foreign error not mapped to SCAN_FAILED")
	}
	wrapped := fmt.Errorf("outer: %w", Wrap(KindNavigationFailed, errors.New("x")))
	if KindOf(wrapped) != KindNavigationFailed {
		t.Errorf("KindOf(wrapped) = %s", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindNavigationFailed) || IsKind(wrapped, KindInvalidURL) {
		t.Error("IsKind mismatch")
	}
	if e := Wrap(KindConnectionFailed, nil); e.Debug() != "" || e.Msg != MsgConnectionFailed {
		t.Errorf("Wrap(nil) = %+v", e)
	}
}
