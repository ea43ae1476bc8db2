// Package target turns user-supplied text into a navigation target.
package target

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidURL is returned for any input that cannot be navigated to.
var ErrInvalidURL = errors.New("invalid url")

// DefaultScheme is prefixed to input that carries no scheme.
const DefaultScheme = "https"

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Normalize validates raw and returns an absolute http(s) URL string.
// It is purely syntactic and never touches the network.
//
// Examples:
//
//	"example.com"             -> "https://example.com"
//	"HTTP://Example.COM/a#top" -> "http://example.com/a"
//	"bücher.example"          -> "https://xn--bcher-kva.example"
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	if !schemePrefix.MatchString(raw) {
		raw = DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// Host returns the lower-cased host of an already normalized URL, or ""
// if it cannot be parsed.
func Host(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
