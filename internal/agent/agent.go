package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"infra-scraper/internal/collector"
	"infra-scraper/internal/config"
	"infra-scraper/internal/probe"
	"infra-scraper/internal/stream"
)

// Agent performs a single scrape pass and hands the report to its sinks.
type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	collector *collector.ClusterCollector
	sinks     []stream.Sink
}

func New(cfg config.Config, logger *slog.Logger, runner probe.Runner, out io.Writer) (*Agent, error) {
	probes, err := probeSetFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	c := collector.NewClusterCollector(
		logger,
		runner,
		probes,
		cfg.LoaderTotalCores,
		cfg.ParallelProbes,
		cfg.ProbeTimeout,
	)

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		collector: c,
		sinks:     stream.NewSinksFromConfig(cfg, out, tlsCfg, logger),
	}, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting infra-scraper pass",
		"hostname", a.cfg.Hostname,
		"loader_total_cores", a.cfg.LoaderTotalCores,
		"parallel_probes", a.cfg.ParallelProbes,
		"sinks", len(a.sinks),
	)
	defer a.shutdown()

	report, err := a.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect utilization: %w", err)
	}
	if err := a.emit(ctx, report); err != nil {
		return err
	}

	a.logger.Info("infra-scraper pass finished", "workers", report.Workers)
	return nil
}

func probeSetFromConfig(cfg config.Config) (collector.ProbeSet, error) {
	loader, err := probe.ParseCommand(probe.NameLoader, cfg.LoaderProbe)
	if err != nil {
		return collector.ProbeSet{}, err
	}
	abs, err := probe.ParseCommand(probe.NameAbsolute, cfg.AbsoluteProbe)
	if err != nil {
		return collector.ProbeSet{}, err
	}
	pct, err := probe.ParseCommand(probe.NamePercent, cfg.PercentProbe)
	if err != nil {
		return collector.ProbeSet{}, err
	}
	return collector.ProbeSet{Loader: loader, Absolute: abs, Percent: pct}, nil
}

// BuildLogger writes to w, which must not be the report output.
func BuildLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, hOpts))
	}
	return slog.New(slog.NewTextHandler(w, hOpts))
}
