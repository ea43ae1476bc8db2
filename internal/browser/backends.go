package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/raysh454/a11yscan/internal/logging"
)

// BackendConstructor builds a Connector from config.
type BackendConstructor func(cfg Config, logger logging.Logger) (Connector, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

func init() {
	RegisterBackend(BackendRemote, newRemoteConnector)
	RegisterBackend(BackendLocal, newLocalConnector)
}

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Registering the same name again overwrites the constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewConnector constructs the configured backend.
func NewConnector(cfg Config, logger logging.Logger) (Connector, error) {
	cfg = cfg.withDefaults()
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("browser backend %q not registered: available backends=%v", backend, ListBackends())
	}

	c, err := ctor(cfg, logging.OrNop(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser backend %q: %w", backend, err)
	}
	if c == nil {
		return nil, errors.New("browser backend constructor returned nil")
	}
	return c, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newRemoteConnector(cfg Config, logger logging.Logger) (Connector, error) {
	l := logger.With(logging.Field{Key: "component", Value: "browser"}, logging.Field{Key: "backend", Value: BackendRemote})
	return &chromeConnector{
		cfg:    cfg,
		logger: l,
		allocate: func(ctx context.Context) (context.Context, context.CancelFunc, error) {
			if strings.TrimSpace(cfg.Token) == "" {
				return nil, nil, ErrNotConfigured
			}
			wsURL, err := RemoteURL(cfg.Endpoint, cfg.Token)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
			}
			allocCtx, cancel := chromedp.NewRemoteAllocator(ctx, wsURL, chromedp.NoModifyURL)
			return allocCtx, cancel, nil
		},
	}, nil
}

func newLocalConnector(cfg Config, logger logging.Logger) (Connector, error) {
	l := logger.With(logging.Field{Key: "component", Value: "browser"}, logging.Field{Key: "backend", Value: BackendLocal})

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(int(cfg.ViewportWidth), int(cfg.ViewportHeight)),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	return &chromeConnector{
		cfg:    cfg,
		logger: l,
		allocate: func(ctx context.Context) (context.Context, context.CancelFunc, error) {
			allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
			return allocCtx, cancel, nil
		},
	}, nil
}

// RemoteURL builds the websocket URL for a token-authenticated remote
// browser service.
func RemoteURL(endpoint, token string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("parse browser endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("browser endpoint must be ws:// or wss://, got %q", u.Scheme)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
