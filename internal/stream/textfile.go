package stream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"infra-scraper/internal/model"
)

// TextfileSink writes the report in Prometheus text format for a node-exporter
// textfile collector. The file is replaced atomically on each report.
type TextfileSink struct {
	path string
}

func NewTextfileSink(path string) *TextfileSink {
	return &TextfileSink{path: path}
}

func (s *TextfileSink) SendReport(_ context.Context, r model.UtilizationReport) error {
	reg := prometheus.NewRegistry()

	utilization := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "infra_utilization_percent",
		Help: "Cluster utilization percentage by role and resource; master values exclude the load generator",
	}, []string{"role", "resource"})
	workers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "infra_worker_nodes",
		Help: "Number of worker nodes folded into the last report",
	})
	workerInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "infra_worker_usage_info",
		Help: "Raw per-worker usage readings as labels",
	}, []string{"worker", "cpu", "memory"})

	reg.MustRegister(utilization, workers, workerInfo)

	utilization.WithLabelValues(string(model.NodeRoleMaster), "cpu").Set(r.MasterCPUPercent)
	utilization.WithLabelValues(string(model.NodeRoleMaster), "memory").Set(r.MasterMemPercent)
	utilization.WithLabelValues(string(model.NodeRoleWorker), "cpu").Set(r.CPUPercent)
	utilization.WithLabelValues(string(model.NodeRoleWorker), "memory").Set(r.MemoryPercent)
	workers.Set(float64(r.Workers))
	for i := 0; i < r.Workers && i < len(r.CPU) && i < len(r.Memory); i++ {
		workerInfo.WithLabelValues(strconv.Itoa(i+1), r.CPU[i], r.Memory[i]).Set(1)
	}

	if err := prometheus.WriteToTextfile(s.path, reg); err != nil {
		return fmt.Errorf("write textfile %s: %w", s.path, err)
	}
	return nil
}

func (s *TextfileSink) Close(context.Context) error {
	return nil
}
