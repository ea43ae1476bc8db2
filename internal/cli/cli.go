package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scanner"
)

// Identity is the rate-limit identity of command-line scans.
const Identity = "cli"

// CLIArgs are the command-line arguments that control a single scan.
type CLIArgs struct {
	// Target is the page to scan. Scheme-less input gets https://.
	Target string

	// ConfigPath is an optional YAML config file.
	ConfigPath string

	// Backend overrides browser.backend (remote|local) when set.
	Backend string

	// Timeout bounds the whole scan; 0 means no extra bound.
	Timeout time.Duration

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. The target may be
// given with -target or as the first positional argument. The function is
// deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("a11yscan", flag.ContinueOnError)
	var (
		target     = fs.String("target", "", "URL of the page to scan (required)")
		configPath = fs.String("config", "", "Path to a YAML config file (default $CONFIG_PATH)")
		backend    = fs.String("backend", "", "Browser backend: remote|local (default from config)")
		timeout    = fs.Duration("timeout", 0, "Overall scan timeout, e.g. 90s (0=none)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	t := strings.TrimSpace(*target)
	if t == "" && fs.NArg() > 0 {
		t = strings.TrimSpace(fs.Arg(0))
	}
	if t == "" {
		return nil, fmt.Errorf("missing required -target argument")
	}

	b := strings.ToLower(strings.TrimSpace(*backend))
	if b != "" && b != "remote" && b != "local" {
		return nil, fmt.Errorf("unknown -backend %q: want remote or local", *backend)
	}

	if *timeout < 0 {
		return nil, fmt.Errorf("-timeout must not be negative")
	}

	return &CLIArgs{
		Target:     t,
		ConfigPath: *configPath,
		Backend:    b,
		Timeout:    *timeout,
		RawArgs:    args,
	}, nil
}

// Scanner runs one scan.
type Scanner interface {
	Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error)
}

type failure struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Debug string `json:"debug,omitempty"`
}

// Execute scans args.Target and prints the JSON report to out. Failures are
// printed to errOut as {error, code}. It returns the process exit code.
func Execute(ctx context.Context, sc Scanner, args *CLIArgs, out, errOut io.Writer) int {
	if args.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, args.Timeout)
		defer cancel()
	}

	res, err := sc.Scan(ctx, model.ScanRequest{TargetURL: args.Target, ClientIdentity: Identity})
	if err != nil {
		f := failure{Error: err.Error(), Code: string(scanner.KindOf(err))}
		var se *scanner.Error
		if errors.As(err, &se) {
			f.Error = se.Msg
			f.Debug = se.Debug()
		}
		_ = writeJSON(errOut, f)
		return 1
	}

	if err := writeJSON(out, res); err != nil {
		fmt.Fprintf(errOut, "writing report: %v\n", err)
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
