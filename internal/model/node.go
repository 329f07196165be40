package model

// NodeRole tags a probe line by its position: the first line is the master.
type NodeRole string

const (
	NodeRoleMaster NodeRole = "master"
	NodeRoleWorker NodeRole = "worker"
)

// NodeSample is one node's paired reading from the absolute and percentage probes.
// CPU and Memory are passed through verbatim; only the percentages are numeric.
type NodeSample struct {
	Index      int
	Role       NodeRole
	CPU        string
	Memory     string
	CPUPercent float64
	MemPercent float64
}

func (s NodeSample) IsMaster() bool {
	return s.Role == NodeRoleMaster
}
