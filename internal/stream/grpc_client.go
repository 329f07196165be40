package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"infra-scraper/internal/model"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GRPCClient forwards each report to a backend as a unary JSON call.
type GRPCClient struct {
	mu sync.Mutex

	logger      *slog.Logger
	addr        string
	tlsConfig   *tls.Config
	token       string
	method      string
	hostname    string
	conn        *grpc.ClientConn
	callTimeout time.Duration
	now         func() time.Time
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, method, hostname string, logger *slog.Logger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	return &GRPCClient{
		logger:      logger,
		addr:        addr,
		tlsConfig:   tlsCfg,
		token:       token,
		method:      method,
		hostname:    hostname,
		callTimeout: 8 * time.Second,
		now:         time.Now,
	}
}

func (c *GRPCClient) SendReport(ctx context.Context, r model.UtilizationReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(); err != nil {
		return err
	}

	callCtx := c.decorateContext(ctx)
	if _, ok := callCtx.Deadline(); !ok {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, c.callTimeout)
		defer cancel()
	}

	envelope := NewReportEnvelope(r, c.hostname, c.now())
	var ack ReportAck
	if err := c.conn.Invoke(callCtx, c.method, envelope, &ack); err != nil {
		return fmt.Errorf("grpc report %s: %w", c.method, err)
	}
	if !ack.Accepted {
		return fmt.Errorf("grpc report rejected by %s: %s", c.addr, ack.Message)
	}
	c.logger.Debug("report forwarded", "addr", c.addr, "method", c.method)
	return nil
}

func (c *GRPCClient) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *GRPCClient) ensureConnLocked() error {
	if c.conn != nil {
		return nil
	}

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc client %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Debug("grpc client created", "addr", c.addr)
	return nil
}

func (c *GRPCClient) decorateContext(ctx context.Context) context.Context {
	if c.token != "" {
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return ctx
}
