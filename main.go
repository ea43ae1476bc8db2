// Command a11yscan scans one page and prints its accessibility report.
//
// Usage: a11yscan -target <url> [-config path] [-backend remote|local] [-timeout 90s]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/a11yscan/internal/app"
	"github.com/raysh454/a11yscan/internal/cli"
	"github.com/raysh454/a11yscan/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	cfg, err := app.LoadConfig(app.ConfigPath(args.ConfigPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		return 2
	}
	if args.Backend != "" {
		cfg.Browser.Backend = args.Backend
	}

	// Logs go to stderr so stdout carries only the report.
	logger := logging.NewLogger(os.Stderr, cfg.Log.Level, "a11yscan")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("starting application", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	defer application.Close()

	return cli.Execute(ctx, application, args, os.Stdout, os.Stderr)
}
