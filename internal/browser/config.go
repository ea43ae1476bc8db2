package browser

import "time"

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config controls how browser sessions are acquired and bounded.
type Config struct {
	// Backend selects the registered connector ("remote" or "local").
	Backend string `yaml:"backend"`

	// Endpoint is the websocket URL of the remote browser service.
	Endpoint string `yaml:"endpoint"`

	// Token authenticates against the remote browser service. Required
	// for the remote backend.
	Token string `yaml:"token"`

	// ExecPath optionally points the local backend at a Chrome binary.
	ExecPath string `yaml:"exec_path"`

	// Headless only applies to the local backend.
	Headless bool `yaml:"headless"`

	UserAgent      string `yaml:"user_agent"`
	ViewportWidth  int64  `yaml:"viewport_width"`
	ViewportHeight int64  `yaml:"viewport_height"`

	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	OperationTimeout  time.Duration `yaml:"operation_timeout"`
}

// DefaultConfig returns the production budgets: 15s to connect, 20s to
// reach DOMContentLoaded and 25s for any other page operation.
func DefaultConfig() Config {
	return Config{
		Backend:           BackendRemote,
		Endpoint:          "wss://chrome.browserless.io",
		Headless:          true,
		UserAgent:         DefaultUserAgent,
		ViewportWidth:     1280,
		ViewportHeight:    800,
		ConnectTimeout:    15 * time.Second,
		NavigationTimeout: 20 * time.Second,
		OperationTimeout:  25 * time.Second,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Endpoint == "" {
		c.Endpoint = def.Endpoint
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = def.ViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = def.ViewportHeight
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = def.NavigationTimeout
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = def.OperationTimeout
	}
	return c
}
