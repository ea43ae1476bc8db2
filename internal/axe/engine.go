// Package axe runs the axe-core accessibility rule engine inside a live
// browser page.
package axe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

// ErrRuleEngineFailed wraps every injection or execution failure.
var ErrRuleEngineFailed = errors.New("rule engine failed")

const injectTagJS = `new Promise((resolve, reject) => {
  if (window.axe) { resolve(true); return; }
  const s = document.createElement('script');
  s.src = %s;
  s.onload = () => resolve(true);
  s.onerror = () => reject(new Error('failed to load axe-core from ' + s.src));
  (document.head || document.documentElement).appendChild(s);
})`

const runJS = `(async () => {
  if (!window.axe) { throw new Error('axe-core is not loaded'); }
  const r = await window.axe.run(document, { runOnly: { type: 'tag', values: %s } });
  return r.violations.map(v => ({
    id: v.id,
    impact: v.impact || 'minor',
    description: v.description,
    help: v.help,
    helpUrl: v.helpUrl,
    nodes: v.nodes.length,
  }));
})()`

// Engine injects axe-core and collects its violations.
type Engine struct {
	cfg    Config
	logger logging.Logger
	loader *scriptLoader
}

// New builds an Engine. httpClient is only used in inline mode; nil means
// a client bounded by cfg.FetchTimeout.
func New(cfg Config, logger logging.Logger, httpClient *http.Client) *Engine {
	cfg = cfg.withDefaults()
	l := logging.OrNop(logger).With(logging.Field{Key: "component", Value: "axe"})
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.FetchTimeout}
	}
	return &Engine{
		cfg:    cfg,
		logger: l,
		loader: newScriptLoader(cfg.ScriptURL, httpClient, l),
	}
}

// Evaluate injects the engine into page, runs the configured tag set and
// returns one RawViolation per rule reported.
func (e *Engine) Evaluate(ctx context.Context, page browser.Page) ([]model.RawViolation, error) {
	if err := e.inject(ctx, page); err != nil {
		return nil, fmt.Errorf("%w: inject: %w", ErrRuleEngineFailed, err)
	}

	expr, err := runExpression(e.cfg.Tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuleEngineFailed, err)
	}

	var results []violationJSON
	if err := page.Evaluate(ctx, expr, &results); err != nil {
		return nil, fmt.Errorf("%w: run: %w", ErrRuleEngineFailed, err)
	}

	out := make([]model.RawViolation, 0, len(results))
	for _, v := range results {
		out = append(out, v.toModel())
	}
	e.logger.Debug("axe run complete", logging.Field{Key: "rules_violated", Value: len(out)})
	return out, nil
}

func (e *Engine) inject(ctx context.Context, page browser.Page) error {
	switch e.cfg.InjectMode {
	case InjectInline:
		src, err := e.loader.Load(ctx)
		if err != nil {
			return err
		}
		return page.Evaluate(ctx, src, nil)
	case InjectTag:
		lit, err := json.Marshal(e.cfg.ScriptURL)
		if err != nil {
			return err
		}
		var ok bool
		return page.Evaluate(ctx, fmt.Sprintf(injectTagJS, lit), &ok)
	default:
		return fmt.Errorf("unknown inject mode %q", e.cfg.InjectMode)
	}
}

func runExpression(tags []string) (string, error) {
	lit, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return fmt.Sprintf(runJS, lit), nil
}

type violationJSON struct {
	ID          string `json:"id"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
	Help        string `json:"help"`
	HelpURL     string `json:"helpUrl"`
	Nodes       int    `json:"nodes"`
}

func (v violationJSON) toModel() model.RawViolation {
	return model.RawViolation{
		RuleID:        v.ID,
		Impact:        model.ParseImpact(v.Impact),
		Description:   v.Description,
		Help:          v.Help,
		HelpURL:       v.HelpURL,
		AffectedNodes: v.Nodes,
	}
}
