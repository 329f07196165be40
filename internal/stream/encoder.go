package stream

import (
	"context"
	"encoding/json"
	"time"

	"infra-scraper/internal/model"
)

type Sink interface {
	SendReport(ctx context.Context, r model.UtilizationReport) error
	Close(ctx context.Context) error
}

// ReportAck is the backend's reply to a forwarded report.
type ReportAck struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// EncodeReport renders the report document. The output depends only on the report.
func EncodeReport(r model.UtilizationReport) ([]byte, error) {
	return json.Marshal(normalize(r))
}

func NewReportEnvelope(r model.UtilizationReport, hostname string, at time.Time) model.Envelope {
	return model.Envelope{
		Type:          model.MetricTypeUtilization,
		Hostname:      hostname,
		TimestampUnix: at.UTC().Unix(),
		Payload:       normalize(r),
	}
}

// normalize keeps cpu and memory encoded as arrays, never null.
func normalize(r model.UtilizationReport) model.UtilizationReport {
	if r.CPU == nil {
		r.CPU = []string{}
	}
	if r.Memory == nil {
		r.Memory = []string{}
	}
	return r
}
