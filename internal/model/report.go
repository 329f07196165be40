package model

// LoaderReading is the background load generator's own consumption.
// CPUPercent is already normalized against the loader's total core count.
type LoaderReading struct {
	CPUPercent float64
	MemPercent float64
}

// UtilizationReport is the single document emitted per run.
// Field order is the wire order of the JSON output.
type UtilizationReport struct {
	MasterCPUPercent float64  `json:"master_cpu_pct"`
	MasterMemPercent float64  `json:"master_mem_pct"`
	CPU              []string `json:"cpu"`
	CPUPercent       float64  `json:"cpu_pct"`
	Memory           []string `json:"memory"`
	MemoryPercent    float64  `json:"memory_pct"`

	// Workers is the number of worker lines folded into the report.
	Workers int `json:"-"`
}
