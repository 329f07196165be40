package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"infra-scraper/internal/model"
	"infra-scraper/internal/probe"
)

// ProbeSet is the three probe invocations of one pass.
type ProbeSet struct {
	Loader   probe.Command
	Absolute probe.Command
	Percent  probe.Command
}

// ProbeOutputs holds the buffered stdout of each probe.
type ProbeOutputs struct {
	Loader   string
	Absolute string
	Percent  string
}

type ClusterCollector struct {
	logger           *slog.Logger
	runner           probe.Runner
	probes           ProbeSet
	loaderTotalCores float64
	parallel         bool
	timeout          time.Duration
}

func NewClusterCollector(
	logger *slog.Logger,
	runner probe.Runner,
	probes ProbeSet,
	loaderTotalCores float64,
	parallel bool,
	timeout time.Duration,
) *ClusterCollector {
	return &ClusterCollector{
		logger:           logger,
		runner:           runner,
		probes:           probes,
		loaderTotalCores: loaderTotalCores,
		parallel:         parallel,
		timeout:          timeout,
	}
}

// Collect runs one full pass: probes, parsing, loader correction, aggregation.
func (c *ClusterCollector) Collect(ctx context.Context) (model.UtilizationReport, error) {
	out, err := c.RunProbes(ctx)
	if err != nil {
		return model.UtilizationReport{}, err
	}

	loader, err := probe.ParseLoaderReading(out.Loader, c.loaderTotalCores)
	if err != nil {
		return model.UtilizationReport{}, err
	}
	c.logger.Debug("loader reading", "cpu_pct", loader.CPUPercent, "mem_pct", loader.MemPercent, "total_cores", c.loaderTotalCores)

	samples, err := probe.PairLines(out.Absolute, out.Percent)
	if err != nil {
		return model.UtilizationReport{}, err
	}

	report := Aggregate(loader, samples)
	c.logger.Debug("cluster utilization aggregated",
		"nodes", len(samples),
		"workers", report.Workers,
		"master_cpu_pct", report.MasterCPUPercent,
		"master_mem_pct", report.MasterMemPercent,
	)
	return report, nil
}

// RunProbes invokes the three probes and buffers their output.
func (c *ClusterCollector) RunProbes(ctx context.Context) (ProbeOutputs, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var out ProbeOutputs
	steps := []struct {
		cmd probe.Command
		dst *string
	}{
		{c.probes.Loader, &out.Loader},
		{c.probes.Absolute, &out.Absolute},
		{c.probes.Percent, &out.Percent},
	}

	if !c.parallel {
		for _, s := range steps {
			res, err := c.run(ctx, s.cmd)
			if err != nil {
				return ProbeOutputs{}, err
			}
			*s.dst = res
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range steps {
		s := s
		g.Go(func() error {
			res, err := c.run(gctx, s.cmd)
			if err != nil {
				return err
			}
			*s.dst = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ProbeOutputs{}, err
	}
	return out, nil
}

func (c *ClusterCollector) run(ctx context.Context, cmd probe.Command) (string, error) {
	start := time.Now()
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("run %s probe: %w", cmd.Name, err)
	}
	c.logger.Debug("probe finished", "probe", cmd.Name, "command", cmd.String(), "bytes", len(res), "took", time.Since(start))
	return res, nil
}
