package stream

import (
	"crypto/tls"
	"io"
	"log/slog"

	"infra-scraper/internal/config"
)

// NewSinksFromConfig returns the configured extras followed by the writer sink.
// The writer goes last so a failing extra leaves the primary output empty.
// The textfile follows the forwarder so a rejected forward leaves no file behind.
func NewSinksFromConfig(cfg config.Config, w io.Writer, tlsCfg *tls.Config, logger *slog.Logger) []Sink {
	var sinks []Sink
	if cfg.BackendGRPCAddr != "" {
		sinks = append(sinks, NewGRPCClient(
			cfg.BackendGRPCAddr,
			tlsCfg,
			cfg.BackendToken,
			cfg.GRPCReportMethod,
			cfg.Hostname,
			logger,
		))
	}
	if cfg.TextfilePath != "" {
		sinks = append(sinks, NewTextfileSink(cfg.TextfilePath))
	}
	return append(sinks, NewWriterSink(w))
}
