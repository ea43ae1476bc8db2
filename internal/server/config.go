package server

import "time"

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI
	// scans in-process and does not require the network).
	ListenAddr string `yaml:"listen_addr"`

	// AllowedOrigins feeds the CORS middleware. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	ReadTimeout time.Duration `yaml:"read_timeout"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		ReadTimeout:    15 * time.Second,
		MaxBodyBytes:   1 << 16,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = def.AllowedOrigins
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	return c
}
