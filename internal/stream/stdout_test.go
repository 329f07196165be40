package stream

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"infra-scraper/internal/config"
	"infra-scraper/internal/model"
)

func oneWorkerReport() model.UtilizationReport {
	return model.UtilizationReport{
		MasterCPUPercent: 48.75,
		MasterMemPercent: 15,
		CPU:              []string{"3.3"},
		CPUPercent:       60,
		Memory:           []string{"4.4"},
		MemoryPercent:    30,
		Workers:          1,
	}
}

var _ = Describe("WriterSink", func() {
	var (
		ctx context.Context
		buf *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		buf = &bytes.Buffer{}
	})

	It("should write the report fields in order, newline terminated", func() {
		Expect(NewWriterSink(buf).SendReport(ctx, oneWorkerReport())).To(Succeed())

		Expect(buf.String()).To(Equal(
			`{"master_cpu_pct":48.75,"master_mem_pct":15,"cpu":["3.3"],"cpu_pct":60,"memory":["4.4"],"memory_pct":30}` + "\n",
		))
	})

	It("should keep the placeholder shape for a single-node cluster", func() {
		r := model.UtilizationReport{MasterCPUPercent: 1, CPU: []string{""}, Memory: []string{""}}

		Expect(NewWriterSink(buf).SendReport(ctx, r)).To(Succeed())

		Expect(buf.String()).To(Equal(
			`{"master_cpu_pct":1,"master_mem_pct":0,"cpu":[""],"cpu_pct":0,"memory":[""],"memory_pct":0}` + "\n",
		))
	})

	It("should never encode sequences as null", func() {
		b, err := EncodeReport(model.UtilizationReport{})

		Expect(err).ToNot(HaveOccurred())
		Expect(string(b)).To(ContainSubstring(`"cpu":[]`))
		Expect(string(b)).To(ContainSubstring(`"memory":[]`))
	})
})

var _ = Describe("TextfileSink", func() {
	It("should write utilization gauges in Prometheus text format", func() {
		path := filepath.Join(GinkgoT().TempDir(), "infra.prom")

		Expect(NewTextfileSink(path).SendReport(context.Background(), oneWorkerReport())).To(Succeed())

		raw, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		out := string(raw)
		Expect(out).To(ContainSubstring(`infra_utilization_percent{resource="cpu",role="master"} 48.75`))
		Expect(out).To(ContainSubstring(`infra_utilization_percent{resource="memory",role="master"} 15`))
		Expect(out).To(ContainSubstring(`infra_utilization_percent{resource="cpu",role="worker"} 60`))
		Expect(out).To(ContainSubstring(`infra_utilization_percent{resource="memory",role="worker"} 30`))
		Expect(out).To(ContainSubstring(`infra_worker_nodes 1`))
		Expect(out).To(ContainSubstring(`infra_worker_usage_info{cpu="3.3",memory="4.4",worker="1"} 1`))
	})

	It("should skip per-worker info for the placeholder entry", func() {
		path := filepath.Join(GinkgoT().TempDir(), "infra.prom")
		r := model.UtilizationReport{CPU: []string{""}, Memory: []string{""}}

		Expect(NewTextfileSink(path).SendReport(context.Background(), r)).To(Succeed())

		raw, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`infra_worker_nodes 0`))
		Expect(string(raw)).ToNot(ContainSubstring(`infra_worker_usage_info{`))
	})

	It("should fail when the target directory does not exist", func() {
		path := filepath.Join(GinkgoT().TempDir(), "missing", "infra.prom")

		err := NewTextfileSink(path).SendReport(context.Background(), oneWorkerReport())

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewSinksFromConfig", func() {
	It("should always include the writer sink", func() {
		sinks := NewSinksFromConfig(config.Config{}, &bytes.Buffer{}, nil, nil)

		Expect(sinks).To(HaveLen(1))
		Expect(sinks[0]).To(BeAssignableToTypeOf(&WriterSink{}))
	})

	It("should add the configured extras", func() {
		cfg := config.Config{
			TextfilePath:     "/tmp/infra.prom",
			BackendGRPCAddr:  "127.0.0.1:3001",
			GRPCReportMethod: config.DefaultGRPCReportMethod,
		}

		sinks := NewSinksFromConfig(cfg, &bytes.Buffer{}, nil, nil)

		Expect(sinks).To(HaveLen(3))
		Expect(sinks[0]).To(BeAssignableToTypeOf(&GRPCClient{}))
		Expect(sinks[1]).To(BeAssignableToTypeOf(&TextfileSink{}))
		Expect(sinks[2]).To(BeAssignableToTypeOf(&WriterSink{}))
	})
})
