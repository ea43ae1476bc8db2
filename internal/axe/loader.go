package axe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/raysh454/a11yscan/internal/logging"
)

// maxScriptBytes bounds the downloaded engine source.
const maxScriptBytes = 8 << 20

// scriptLoader downloads the engine source once and caches it.
type scriptLoader struct {
	url    string
	client *http.Client
	logger logging.Logger

	mu  sync.Mutex
	src string
}

func newScriptLoader(url string, client *http.Client, logger logging.Logger) *scriptLoader {
	return &scriptLoader{url: url, client: client, logger: logger}
}

// Load returns the cached source, fetching it on first use. Failed fetches
// are not cached.
func (l *scriptLoader) Load(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.src != "" {
		return l.src, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn("axe script download failed",
			logging.Field{Key: "url", Value: l.url},
			logging.Field{Key: "error", Value: err.Error()})
		return "", fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %d", l.url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("download %s: empty body", l.url)
	}

	l.src = string(body)
	l.logger.Info("axe script cached",
		logging.Field{Key: "url", Value: l.url},
		logging.Field{Key: "bytes", Value: len(body)})
	return l.src, nil
}
