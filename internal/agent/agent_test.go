package agent_test

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"infra-scraper/internal/agent"
	"infra-scraper/internal/config"
	"infra-scraper/internal/probe"
)

var _ = Describe("Agent", func() {
	var (
		ctx context.Context
		dir string
		out *bytes.Buffer
		cfg config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		cfg = config.Config{
			Hostname:         "master-0",
			LoaderTotalCores: 8,
			LoaderProbe:      "sh " + writeScript(dir, "loader.sh", `printf '10 5\n'`),
			AbsoluteProbe:    "sh " + writeScript(dir, "abs.sh", `printf '(1.1,2.2)\n(3.3,4.4)\n'`),
			PercentProbe:     "sh " + writeScript(dir, "pct.sh", `printf '50%%20%%.\n60%%30%%.\n'`),
			EmitTimeout:      time.Second,
			LogLevel:         "debug",
		}
	})

	run := func() error {
		logger := agent.BuildLogger(cfg, GinkgoWriter)
		a, err := agent.New(cfg, logger, probe.NewExecRunner(""), out)
		Expect(err).ToNot(HaveOccurred())
		return a.Run(ctx)
	}

	It("should write one report to the output", func() {
		Expect(run()).To(Succeed())

		// cpu and memory come from the two fields of "(3.3,4.4)".
		Expect(out.String()).To(Equal(
			`{"master_cpu_pct":48.75,"master_mem_pct":15,"cpu":["3.3"],"cpu_pct":60,"memory":["4.4"],"memory_pct":30}` + "\n",
		))
	})

	It("should produce the same bytes when run in parallel mode", func() {
		Expect(run()).To(Succeed())
		sequential := out.String()

		out.Reset()
		cfg.ParallelProbes = true
		Expect(run()).To(Succeed())

		Expect(out.String()).To(Equal(sequential))
	})

	It("should also write the textfile when configured", func() {
		cfg.TextfilePath = filepath.Join(dir, "infra.prom")

		Expect(run()).To(Succeed())

		raw, err := os.ReadFile(cfg.TextfilePath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring("infra_worker_nodes 1"))
	})

	It("should leave the output empty when an extra sink fails", func() {
		cfg.TextfilePath = filepath.Join(dir, "missing", "infra.prom")

		Expect(run()).ToNot(Succeed())

		Expect(out.Len()).To(BeZero())
	})

	It("should leave no textfile behind when forwarding fails", func() {
		cfg.TextfilePath = filepath.Join(dir, "infra.prom")
		cfg.BackendGRPCAddr = closedAddr()
		cfg.GRPCReportMethod = config.DefaultGRPCReportMethod

		Expect(run()).ToNot(Succeed())

		Expect(cfg.TextfilePath).ToNot(BeAnExistingFile())
		Expect(out.Len()).To(BeZero())
	})

	It("should emit nothing when a probe exits non-zero", func() {
		cfg.PercentProbe = "sh " + writeScript(dir, "fail.sh", "echo 'metrics server unavailable' >&2\nexit 1")

		err := run()

		var execErr *probe.ExecutionError
		Expect(errors.As(err, &execErr)).To(BeTrue())
		Expect(execErr.Probe).To(Equal(probe.NamePercent))
		Expect(execErr.Stderr).To(ContainSubstring("metrics server unavailable"))
		Expect(out.Len()).To(BeZero())
	})

	It("should emit nothing when probes disagree on node count", func() {
		cfg.PercentProbe = "sh " + writeScript(dir, "short.sh", `printf '50%%20%%.\n'`)

		err := run()

		var alignErr *probe.AlignmentError
		Expect(errors.As(err, &alignErr)).To(BeTrue())
		Expect(out.Len()).To(BeZero())
	})

	It("should reject an empty probe command", func() {
		cfg.AbsoluteProbe = "  "

		_, err := agent.New(cfg, agent.BuildLogger(cfg, GinkgoWriter), probe.NewExecRunner(""), out)

		Expect(err).To(HaveOccurred())
	})
})

// closedAddr returns a local address nothing listens on.
func closedAddr() string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	addr := lis.Addr().String()
	Expect(lis.Close()).To(Succeed())
	return addr
}

func writeScript(dir, name, body string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(body+"\n"), 0o755)).To(Succeed())
	return path
}
