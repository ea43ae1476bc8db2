// Package platform guesses which commerce platform, CMS or front-end
// framework produced a page.
package platform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Detector evaluates signature groups in priority order.
type Detector struct {
	groups []Group
}

// NewDetector returns a Detector over groups, or DefaultGroups when none
// are given.
func NewDetector(groups ...Group) *Detector {
	if len(groups) == 0 {
		groups = DefaultGroups()
	}
	return &Detector{groups: groups}
}

// Detect returns the first matching platform name, or Fallback. The result
// depends only on its inputs.
func (d *Detector) Detect(html string, scriptSrcs []string) string {
	srcs := mergeSources(scriptSrcs, ScriptSources(html))
	for _, g := range d.groups {
		for _, sig := range g.Signatures {
			if sig.matches(html, srcs) {
				return sig.Name
			}
		}
	}
	return Fallback
}

func (s Signature) matches(html string, srcs []string) bool {
	for _, r := range s.HTML {
		if r.MatchString(html) {
			return true
		}
	}
	for _, r := range s.Scripts {
		for _, src := range srcs {
			if r.MatchString(src) {
				return true
			}
		}
	}
	return false
}

// ScriptSources extracts the src attribute of every <script> in html.
func ScriptSources(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			out = append(out, strings.TrimSpace(src))
		}
	})
	return out
}

func mergeSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
