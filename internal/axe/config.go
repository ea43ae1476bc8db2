package axe

import "time"

// InjectMode selects how the axe-core script reaches the page.
type InjectMode string

const (
	// InjectTag appends a <script src> element and waits for it to load.
	// The page's CSP may block it.
	InjectTag InjectMode = "tag"

	// InjectInline downloads the script once and evaluates its source in
	// the page.
	InjectInline InjectMode = "inline"
)

// DefaultScriptURL pins axe-core 4.8.2.
const DefaultScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.8.2/axe.min.js"

// DefaultTags restricts the run to WCAG 2.0 and 2.1, levels A and AA.
var DefaultTags = []string{"wcag2a", "wcag2aa", "wcag21a", "wcag21aa"}

type Config struct {
	ScriptURL    string        `yaml:"script_url"`
	InjectMode   InjectMode    `yaml:"inject_mode"`
	Tags         []string      `yaml:"tags"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

func DefaultConfig() Config {
	return Config{
		ScriptURL:    DefaultScriptURL,
		InjectMode:   InjectTag,
		Tags:         append([]string(nil), DefaultTags...),
		FetchTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ScriptURL == "" {
		c.ScriptURL = def.ScriptURL
	}
	if c.InjectMode == "" {
		c.InjectMode = def.InjectMode
	}
	if len(c.Tags) == 0 {
		c.Tags = def.Tags
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	return c
}
