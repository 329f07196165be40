package model

type MetricType string

const (
	MetricTypeUtilization MetricType = "cluster_utilization"
)

// Envelope is transport-agnostic framing for network sinks.
type Envelope struct {
	Type          MetricType `json:"type"`
	Hostname      string     `json:"hostname"`
	TimestampUnix int64      `json:"timestamp_unix"`
	Payload       any        `json:"payload"`
}
