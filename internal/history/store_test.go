package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	cfg := Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "history.db")}
	db, dialect, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s, err := NewStore(ctx, db, dialect, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func result(url string, score int, at time.Time, issues ...model.Violation) *model.ScanResult {
	if issues == nil {
		issues = []model.Violation{}
	}
	return &model.ScanResult{
		URL:       url,
		Score:     score,
		Platform:  "WordPress",
		TopIssues: issues,
		ScannedAt: at,
		Meta:      model.ScanMeta{ScanDuration: 4200},
	}
}

// ─── Record / Get ──────────────────────────────────────────────────────

func TestRecordAndGet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	in := result("https://example.com", 85, at, model.Violation{RuleID: "image-alt", Impact: model.ImpactCritical, AffectedNodes: 3})

	stored, err := s.Record(ctx, in)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored result has no id")
	}
	if in.ID != "" {
		t.Error("Record mutated its input")
	}

	got, err := s.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != stored.ID || got.Score != 85 || got.URL != "https://example.com" {
		t.Errorf("Get = %+v", got)
	}
	if !got.ScannedAt.Equal(at) {
		t.Errorf("ScannedAt = %s, want %s", got.ScannedAt, at)
	}
	if len(got.TopIssues) != 1 || got.TopIssues[0].RuleID != "image-alt" {
		t.Errorf("TopIssues = %+v", got.TopIssues)
	}
	if got.Meta.ScanDuration != 4200 {
		t.Errorf("ScanDuration = %d", got.Meta.ScanDuration)
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNewStore_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "h.db")}
	db, dialect, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if _, err := NewStore(ctx, db, dialect, nil); err != nil {
			t.Fatalf("NewStore #%d: %v", i+1, err)
		}
	}
}

// ─── List ──────────────────────────────────────────────────────────────

func TestList_FiltersAndOrders(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.Record(ctx, result("https://example.com", 60+i, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if _, err := s.Record(ctx, result("https://other.example/page", 99, base)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := s.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("len(all) = %d, want 6", len(all))
	}

	byURL, err := s.List(ctx, Query{URL: "https://example.com", Limit: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byURL) != 3 {
		t.Fatalf("len(byURL) = %d, want 3", len(byURL))
	}
	for i, want := range []int{64, 63, 62} {
		if byURL[i].Score != want {
			t.Errorf("byURL[%d].Score = %d, want %d (newest first)", i, byURL[i].Score, want)
		}
	}

	byHost, err := s.List(ctx, Query{Host: "other.example"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byHost) != 1 || byHost[0].Score != 99 {
		t.Errorf("byHost = %+v", byHost)
	}

	since, err := s.List(ctx, Query{URL: "https://example.com", Since: base.Add(3 * time.Hour)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("len(since) = %d, want 2", len(since))
	}
}

func TestPrevious(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := s.Record(ctx, result("https://example.com", 70, base))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := s.Previous(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Errorf("Previous(first) err = %v, want ErrNotFound", err)
	}

	second, err := s.Record(ctx, result("https://example.com", 80, base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	prev, err := s.Previous(ctx, second)
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if prev.ID != first.ID {
		t.Errorf("Previous = %s, want %s", prev.ID, first.ID)
	}
}

func TestPrevious_SameMillisecond(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older, err := s.Record(ctx, result("https://example.com", 60, base))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	at := base.Add(time.Minute)
	head, err := s.Record(ctx, result("https://example.com", 70, at))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.Record(ctx, result("https://example.com", 80+i, at.Add(300*time.Microsecond))); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	prev, err := s.Previous(ctx, head)
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if prev.ID != older.ID {
		t.Errorf("Previous = %s (score %d), want %s", prev.ID, prev.Score, older.ID)
	}
}

// ─── Config helpers ────────────────────────────────────────────────────

func TestParseDialect(t *testing.T) {
	t.Parallel()

	tests := map[string]Dialect{
		"sqlite":     DialectSQLite,
		"SQLite3":    DialectSQLite,
		"postgres":   DialectPostgres,
		"postgresql": DialectPostgres,
		"mysql":      DialectMySQL,
		"mariadb":    DialectMySQL,
	}
	for in, want := range tests {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()

	q := "SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?"
	if got := rebind(DialectPostgres, q); got != "SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $3" {
		t.Errorf("postgres rebind = %q", got)
	}
	for _, d := range []Dialect{DialectSQLite, DialectMySQL} {
		if got := rebind(d, q); got != q {
			t.Errorf("%s rebind changed query: %q", d, got)
		}
	}
}

func TestSchemas_AllDialectsEmbedded(t *testing.T) {
	t.Parallel()

	for _, d := range []Dialect{DialectSQLite, DialectPostgres, DialectMySQL} {
		b, err := schemaFS.ReadFile(fmt.Sprintf("schema_%s.sql", d))
		if err != nil {
			t.Errorf("schema for %s: %v", d, err)
			continue
		}
		if n := len(statements(string(b))); n == 0 {
			t.Errorf("schema for %s has no statements", d)
		}
	}
}
