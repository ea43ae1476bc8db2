package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/a11yscan/internal/logging"
)

const scriptSourcesJS = `Array.from(document.scripts).map(s => s.src).filter(Boolean)`

type allocFunc func(ctx context.Context) (context.Context, context.CancelFunc, error)

// chromeConnector opens a fresh chromedp tab per Acquire.
type chromeConnector struct {
	cfg      Config
	logger   logging.Logger
	allocate allocFunc
}

// Acquire connects to the browser within cfg.ConnectTimeout. The first
// chromedp.Run on a tab context binds the browser lifetime to that context,
// so the deadline is raced against it instead of being attached to it.
func (c *chromeConnector) Acquire(ctx context.Context) (Session, error) {
	allocCtx, cancelAlloc, err := c.allocate(ctx)
	if err != nil {
		return nil, err
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	abort := func() {
		cancelTab()
		cancelAlloc()
	}

	connected := make(chan error, 1)
	go func() { connected <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(c.cfg.ConnectTimeout)
	defer timer.Stop()

	start := time.Now()
	select {
	case err := <-connected:
		if err != nil {
			abort()
			c.logger.Warn("browser connect failed", logging.Field{Key: "error", Value: err})
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
	case <-timer.C:
		abort()
		c.logger.Warn("browser connect timed out", logging.Field{Key: "timeout", Value: c.cfg.ConnectTimeout.String()})
		return nil, fmt.Errorf("%w: %w after %s", ErrConnectionFailed, ErrConnectTimeout, c.cfg.ConnectTimeout)
	case <-ctx.Done():
		abort()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	}

	s := &chromeSession{
		cfg:         c.cfg,
		logger:      c.logger,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}
	if err := s.configure(ctx); err != nil {
		_ = s.Release()
		return nil, fmt.Errorf("%w: configure page: %w", ErrConnectionFailed, err)
	}

	c.logger.Debug("browser session acquired", logging.Field{Key: "connect_ms", Value: time.Since(start).Milliseconds()})
	return s, nil
}

type chromeSession struct {
	cfg    Config
	logger logging.Logger

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	releaseOnce sync.Once
	releaseErr  error
}

// opContext derives a bounded context from the tab that is also cancelled
// when the caller's ctx ends.
func (s *chromeSession) opContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.ctx, d)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) configure(ctx context.Context) error {
	opCtx, cancel := s.opContext(ctx, s.cfg.OperationTimeout)
	defer cancel()
	return chromedp.Run(opCtx,
		emulation.SetUserAgentOverride(s.cfg.UserAgent),
		chromedp.EmulateViewport(s.cfg.ViewportWidth, s.cfg.ViewportHeight),
	)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := s.opContext(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	domReady := waitDOMContentLoaded(navCtx)

	var res page.NavigateReturns
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res)
	}))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNavigationFailed, err)
	}
	if res.ErrorText != "" {
		return fmt.Errorf("%w: %s", ErrNavigationFailed, res.ErrorText)
	}

	select {
	case <-domReady:
		return nil
	case <-navCtx.Done():
		return fmt.Errorf("%w: waiting for DOMContentLoaded: %w", ErrNavigationFailed, navCtx.Err())
	}
}

// waitDOMContentLoaded must be called before the navigation is issued.
func waitDOMContentLoaded(ctx context.Context) <-chan struct{} {
	ready := make(chan struct{})
	var once sync.Once
	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*page.EventDomContentEventFired); ok {
			once.Do(func() { close(ready) })
		}
	})
	return ready
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx, s.cfg.OperationTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (s *chromeSession) ScriptSources(ctx context.Context) ([]string, error) {
	var srcs []string
	if err := s.Evaluate(ctx, scriptSourcesJS, &srcs); err != nil {
		return nil, fmt.Errorf("read script sources: %w", err)
	}
	return srcs, nil
}

func (s *chromeSession) Evaluate(ctx context.Context, expression string, out any) error {
	opCtx, cancel := s.opContext(ctx, s.cfg.OperationTimeout)
	defer cancel()

	return chromedp.Run(opCtx, chromedp.Evaluate(expression, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
}

func (s *chromeSession) Release() error {
	s.releaseOnce.Do(func() {
		s.releaseErr = chromedp.Cancel(s.ctx)
		s.cancelTab()
		s.cancelAlloc()
		if s.releaseErr != nil {
			s.logger.Debug("browser release reported error", logging.Field{Key: "error", Value: s.releaseErr})
		}
	})
	return s.releaseErr
}
