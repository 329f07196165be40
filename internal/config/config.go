package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLoaderTotalCores = 8
	DefaultLoaderProbe      = "bash scripts/metrics/get_loader_cpu_pct.sh"
	DefaultAbsoluteProbe    = "bash scripts/metrics/get_node_stats_abs.sh"
	DefaultPercentProbe     = "bash scripts/metrics/get_node_stats_percent.sh"
	DefaultGRPCReportMethod = "/infra.metrics.v1.UtilizationService/ReportUtilization"
)

type Config struct {
	Hostname         string
	LoaderTotalCores float64
	LoaderProbe      string
	AbsoluteProbe    string
	PercentProbe     string
	ProbeDir         string
	ProbeTimeout     time.Duration
	ParallelProbes   bool
	TextfilePath     string
	BackendGRPCAddr  string
	BackendToken     string
	GRPCReportMethod string
	EmitTimeout      time.Duration
	TLSEnabled       bool
	TLSSkipVerify    bool
	TLSCAPath        string
	TLSCertPath      string
	TLSKeyPath       string
	LogJSON          bool
	LogLevel         string
}

func Load() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	var p envParser
	cfg := Config{
		Hostname:         env("SCRAPER_HOSTNAME", hostname),
		LoaderTotalCores: p.float("SCRAPER_LOADER_TOTAL_CORES", DefaultLoaderTotalCores),
		LoaderProbe:      env("SCRAPER_LOADER_PROBE", DefaultLoaderProbe),
		AbsoluteProbe:    env("SCRAPER_ABS_PROBE", DefaultAbsoluteProbe),
		PercentProbe:     env("SCRAPER_PCT_PROBE", DefaultPercentProbe),
		ProbeDir:         env("SCRAPER_PROBE_DIR", ""),
		ProbeTimeout:     p.duration("SCRAPER_PROBE_TIMEOUT", 0),
		ParallelProbes:   p.bool("SCRAPER_PARALLEL_PROBES", false),
		TextfilePath:     env("SCRAPER_TEXTFILE_PATH", ""),
		BackendGRPCAddr:  env("SCRAPER_BACKEND_GRPC_ADDR", ""),
		BackendToken:     env("SCRAPER_BACKEND_TOKEN", ""),
		GRPCReportMethod: env("SCRAPER_GRPC_REPORT_METHOD", DefaultGRPCReportMethod),
		EmitTimeout:      p.duration("SCRAPER_EMIT_TIMEOUT", 10*time.Second),
		TLSEnabled:       p.bool("SCRAPER_TLS_ENABLED", false),
		TLSSkipVerify:    p.bool("SCRAPER_TLS_SKIP_VERIFY", false),
		TLSCAPath:        env("SCRAPER_TLS_CA_PATH", ""),
		TLSCertPath:      env("SCRAPER_TLS_CERT_PATH", ""),
		TLSKeyPath:       env("SCRAPER_TLS_KEY_PATH", ""),
		LogJSON:          p.bool("SCRAPER_LOG_JSON", false),
		LogLevel:         strings.ToLower(env("SCRAPER_LOG_LEVEL", "info")),
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.LoaderTotalCores <= 0 {
		return errors.New("SCRAPER_LOADER_TOTAL_CORES must be > 0")
	}
	if strings.TrimSpace(c.LoaderProbe) == "" {
		return errors.New("SCRAPER_LOADER_PROBE is required")
	}
	if strings.TrimSpace(c.AbsoluteProbe) == "" {
		return errors.New("SCRAPER_ABS_PROBE is required")
	}
	if strings.TrimSpace(c.PercentProbe) == "" {
		return errors.New("SCRAPER_PCT_PROBE is required")
	}
	if c.ProbeTimeout < 0 {
		return errors.New("SCRAPER_PROBE_TIMEOUT must be >= 0")
	}
	if c.EmitTimeout <= 0 {
		return errors.New("SCRAPER_EMIT_TIMEOUT must be > 0")
	}
	if c.BackendGRPCAddr != "" && strings.TrimSpace(c.GRPCReportMethod) == "" {
		return errors.New("SCRAPER_GRPC_REPORT_METHOD is required when SCRAPER_BACKEND_GRPC_ADDR is set")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// envParser reads typed variables and records every unparsable one.
// An unset or blank variable takes the fallback; a malformed one is an error.
type envParser struct {
	errs []error
}

func (p *envParser) float(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return fallback
	}
	return f
}

func (p *envParser) bool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return fallback
	}
}

func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}
