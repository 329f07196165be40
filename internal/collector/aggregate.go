package collector

import "infra-scraper/internal/model"

// Aggregate folds paired node samples into a report.
// The master is corrected for the loader's own consumption and clamped at zero;
// worker percentages are averaged as reported.
func Aggregate(loader model.LoaderReading, samples []model.NodeSample) model.UtilizationReport {
	report := model.UtilizationReport{
		CPU:    []string{},
		Memory: []string{},
	}

	for _, s := range samples {
		if s.IsMaster() {
			report.MasterCPUPercent = max(0, s.CPUPercent-loader.CPUPercent)
			report.MasterMemPercent = max(0, s.MemPercent-loader.MemPercent)
			continue
		}
		report.CPU = append(report.CPU, s.CPU)
		report.Memory = append(report.Memory, s.Memory)
		report.CPUPercent += s.CPUPercent
		report.MemoryPercent += s.MemPercent
		report.Workers++
	}

	// Single-node clusters keep a fixed-shape output.
	if report.Workers == 0 {
		report.CPU = []string{""}
		report.Memory = []string{""}
		return report
	}
	report.CPUPercent /= float64(report.Workers)
	report.MemoryPercent /= float64(report.Workers)
	return report
}
