package browser

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/logging"
)

// ─── Registry ───

func TestNewConnector_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := NewConnector(Config{Backend: "carrier-pigeon"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("error %q does not name the backend", err)
	}
}

func TestListBackends_IncludesBuiltins(t *testing.T) {
	t.Parallel()

	got := strings.Join(ListBackends(), ",")
	for _, want := range []string{BackendLocal, BackendRemote} {
		if !strings.Contains(got, want) {
			t.Errorf("ListBackends() = %s, missing %s", got, want)
		}
	}
}

func TestRegisterBackend_CaseInsensitive(t *testing.T) {
	t.Parallel()

	called := false
	RegisterBackend("Test-Upper", func(cfg Config, _ logging.Logger) (Connector, error) {
		called = true
		return nil, nil
	})

	if _, err := NewConnector(Config{Backend: "TEST-UPPER"}, nil); err == nil {
		t.Fatal("expected error when constructor returns nil connector")
	}
	if !called {
		t.Error("constructor registered under mixed case was not found")
	}
}

func TestNewConnector_ConstructorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	RegisterBackend("failing", func(Config, logging.Logger) (Connector, error) {
		return nil, boom
	})

	_, err := NewConnector(Config{Backend: "failing"}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped constructor error", err)
	}
}

// ─── Remote backend ───

func TestRemote_MissingToken(t *testing.T) {
	t.Parallel()

	c, err := NewConnector(Config{Backend: BackendRemote}, nil)
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}
	_, err = c.Acquire(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Acquire err = %v, want ErrNotConfigured", err)
	}
}

func TestRemoteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		token    string
		want     string
		wantErr  bool
	}{
		{"plain", "wss://chrome.browserless.io", "abc", "wss://chrome.browserless.io?token=abc", false},
		{"existing query", "ws://localhost:3000/?stealth=true", "t", "ws://localhost:3000/?stealth=true&token=t", false},
		{"escaped", "wss://host", "a b", "wss://host?token=a+b", false},
		{"http rejected", "https://host", "t", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemoteURL(tt.endpoint, tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("RemoteURL(%q) expected error", tt.endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("RemoteURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("RemoteURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemote_ConnectTimeout(t *testing.T) {
	t.Parallel()

	// Accepts TCP but never answers the websocket handshake.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	c, err := NewConnector(Config{
		Backend:        BackendRemote,
		Endpoint:       "ws://" + ln.Addr().String(),
		Token:          "secret",
		ConnectTimeout: 200 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}

	start := time.Now()
	_, err = c.Acquire(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Acquire err = %v, want ErrConnectionFailed", err)
	}
	if !errors.Is(err, ErrConnectTimeout) {
		t.Errorf("Acquire err = %v, want ErrConnectTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Acquire took %s, connect timer not honored", elapsed)
	}
}

func TestRemote_ConnectionRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, err := NewConnector(Config{
		Backend:        BackendRemote,
		Endpoint:       "ws://" + addr,
		Token:          "secret",
		ConnectTimeout: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}

	_, err = c.Acquire(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Acquire err = %v, want ErrConnectionFailed", err)
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Errorf("refused connection reported as not configured: %v", err)
	}
}

// ─── Config ───

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Token: "t", ConnectTimeout: time.Second}.withDefaults()
	if cfg.Backend != BackendRemote {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.ConnectTimeout != time.Second {
		t.Errorf("ConnectTimeout overwritten: %s", cfg.ConnectTimeout)
	}
	if cfg.NavigationTimeout != 20*time.Second || cfg.OperationTimeout != 25*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.NavigationTimeout, cfg.OperationTimeout)
	}
	if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 800 {
		t.Errorf("viewport = %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}
}
