package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config controls the fixed-window admission gate.
type Config struct {
	// Limit is the number of requests allowed per window.
	Limit int `yaml:"limit"`

	// Window is the length of one admission window.
	Window time.Duration `yaml:"window"`

	// SweepInterval is how often expired records are dropped by Run.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultConfig allows 10 requests per minute per client.
func DefaultConfig() Config {
	return Config{
		Limit:         10,
		Window:        60 * time.Second,
		SweepInterval: 5 * time.Minute,
	}
}

// record is the per-identity window state.
type record struct {
	count   int
	resetAt time.Time
}

// Limiter is a per-identity fixed-window counter. Safe for concurrent use.
type Limiter struct {
	cfg Config

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

// New returns an empty Limiter. Zero config values fall back to defaults.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	return &Limiter{
		cfg:     cfg,
		Now:     time.Now,
		records: make(map[string]*record),
	}
}

// Allow admits or rejects one request from identity. A rejected request
// does not consume from the window.
func (l *Limiter) Allow(identity string) bool {
	now := l.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identity]
	if !ok || now.After(rec.resetAt) {
		l.records[identity] = &record{count: 1, resetAt: now.Add(l.cfg.Window)}
		return true
	}
	if rec.count >= l.cfg.Limit {
		return false
	}
	rec.count++
	return true
}

// RetryAfter returns how long identity has to wait before its window
// resets, or zero if it is not currently limited.
func (l *Limiter) RetryAfter(identity string) time.Duration {
	now := l.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identity]
	if !ok || now.After(rec.resetAt) || rec.count < l.cfg.Limit {
		return 0
	}
	return rec.resetAt.Sub(now)
}

// Sweep drops records whose window has expired and returns how many were
// removed.
func (l *Limiter) Sweep() int {
	now := l.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, rec := range l.records {
		if now.After(rec.resetAt) {
			delete(l.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Run sweeps on cfg.SweepInterval until ctx is done.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Sweep()
		}
	}
}
