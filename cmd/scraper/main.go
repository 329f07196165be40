package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"infra-scraper/internal/agent"
	"infra-scraper/internal/config"
	"infra-scraper/internal/probe"
)

func main() {
	envFile := flag.String("env-file", "", "Path to a .env file (defaults to ./.env when present)")
	flag.Parse()

	if _, err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("load env file: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := agent.BuildLogger(cfg, os.Stderr)
	a, err := agent.New(cfg, logger, probe.NewExecRunner(cfg.ProbeDir), os.Stdout)
	if err != nil {
		logger.Error("scraper initialization failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("scrape failed", append(failureAttrs(err), "error", err)...)
		stop()
		os.Exit(1)
	}
}

// failureAttrs names the probe and stage that failed.
func failureAttrs(err error) []any {
	var execErr *probe.ExecutionError
	var parseErr *probe.ParseError
	var alignErr *probe.AlignmentError
	switch {
	case errors.As(err, &execErr):
		return []any{"stage", "execute", "probe", execErr.Probe}
	case errors.As(err, &parseErr):
		return []any{"stage", "parse", "probe", parseErr.Probe, "line", parseErr.Line}
	case errors.As(err, &alignErr):
		return []any{"stage", "align", slog.Int("absolute_lines", alignErr.AbsoluteLines), slog.Int("percent_lines", alignErr.PercentLines)}
	default:
		return []any{"stage", "emit"}
	}
}
