// Command a11yscan serves the scanning API.
// Usage: go run ./cmd/a11yscan [-config path]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/a11yscan/internal/app"
	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default $CONFIG_PATH)")
	flag.Parse()

	cfg, err := app.LoadConfig(app.ConfigPath(*configPath))
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.NewLogger(os.Stdout, cfg.Log.Level, "a11yscan")
	if cfg.Browser.Backend == browser.BackendRemote && cfg.Browser.Token == "" {
		logger.Warn("no browser token configured; scans will answer NOT_CONFIGURED",
			logging.Field{Key: "env", Value: app.EnvBrowserlessToken})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("application init error: %v", err)
	}

	err = application.Run(ctx)
	application.Close()
	if err != nil {
		logger.Error("server stopped", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	logger.Info("server stopped")
}
