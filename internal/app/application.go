package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/a11yscan/internal/archive"
	"github.com/raysh454/a11yscan/internal/axe"
	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/history"
	"github.com/raysh454/a11yscan/internal/jobs"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/ratelimit"
	"github.com/raysh454/a11yscan/internal/scanner"
	"github.com/raysh454/a11yscan/internal/server"
)

const shutdownTimeout = 15 * time.Second

// Application is the global runtime state container. It owns the shared
// components and their lifecycle; pass it to entry points rather than
// using package-level variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	Limiter *ratelimit.Limiter
	Jobs    *jobs.Orchestrator
	History *history.Store // nil when disabled
	Archive *archive.Store // nil when disabled
	Server  *server.Server

	// scanner is the admission-controlled synchronous path.
	scanner *recordingScanner
}

// Option customizes NewApplication, mostly for tests.
type Option func(*options)

type options struct {
	connector browser.Connector
	engine    scanner.RuleEngine
}

// WithConnector replaces the configured browser backend.
func WithConnector(c browser.Connector) Option {
	return func(o *options) { o.connector = c }
}

// WithRuleEngine replaces the axe engine.
func WithRuleEngine(e scanner.RuleEngine) Option {
	return func(o *options) { o.engine = e }
}

// NewApplication wires every component from cfg. Optional stores that
// fail to open are fatal; disabled ones are left nil.
func NewApplication(ctx context.Context, cfg *Config, logger logging.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("a11yscan")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.connector == nil {
		c, err := browser.NewConnector(cfg.Browser, logger)
		if err != nil {
			return nil, fmt.Errorf("creating browser connector: %w", err)
		}
		o.connector = c
	}
	if o.engine == nil {
		o.engine = axe.New(cfg.Axe, logger, nil)
	}

	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Limiter: ratelimit.New(cfg.RateLimit),
	}

	if cfg.History.Enabled() {
		db, dialect, err := history.Open(ctx, cfg.History)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		store, err := history.NewStore(ctx, db, dialect, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating history store: %w", err)
		}
		a.History = store
	}

	if cfg.Archive.Enabled() {
		store, err := archive.New(ctx, cfg.Archive, logger)
		if err != nil {
			a.closeStores()
			return nil, fmt.Errorf("creating archive: %w", err)
		}
		a.Archive = store
	}

	// Jobs admit requests themselves, so their scanner skips the limiter.
	a.scanner = a.recording(scanner.New(cfg.Scanner, o.connector, o.engine, logger, scanner.WithLimiter(a.Limiter)))
	a.Jobs = jobs.NewOrchestrator(cfg.Jobs, a.recording(scanner.New(cfg.Scanner, o.connector, o.engine, logger)), a.Limiter, logger)

	a.Server = server.NewServer(cfg.Server, server.Deps{
		Scanner: a.scanner,
		Jobs:    a.Jobs,
		History: a.History,
	}, logger.With(logging.Field{Key: "component", Value: "server"}))

	return a, nil
}

func (a *Application) recording(inner observedScanner) *recordingScanner {
	return &recordingScanner{
		inner:   inner,
		history: a.History,
		archive: a.Archive,
		logger:  a.Logger.With(logging.Field{Key: "component", Value: "recorder"}),
	}
}

// Scan runs one admission-controlled scan and keeps the result.
func (a *Application) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return a.scanner.Scan(ctx, req)
}

// Run serves HTTP and runs the background sweepers until ctx is done,
// then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	srv := a.Server.HTTPServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening", logging.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return a.Limiter.Run(gctx) })
	g.Go(func() error { return a.Jobs.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close cancels running jobs and closes the stores.
func (a *Application) Close() error {
	if a.Jobs != nil {
		_ = a.Jobs.Close()
	}
	return a.closeStores()
}

func (a *Application) closeStores() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
