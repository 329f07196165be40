package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	NameLoader   = "loader"
	NameAbsolute = "absolute"
	NamePercent  = "percent"
)

// Command is a fixed probe invocation line.
type Command struct {
	Name string
	Argv []string
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(name, line string) (Command, error) {
	argv := strings.Fields(line)
	if len(argv) == 0 {
		return Command{}, fmt.Errorf("probe %s: empty command line", name)
	}
	return Command{Name: name, Argv: argv}, nil
}

// Runner executes a probe and returns its complete standard output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs probes as child processes.
type ExecRunner struct {
	// Dir is the working directory for probes; empty means the current one.
	Dir string
}

func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	if len(c.Argv) == 0 {
		return "", &ExecutionError{Probe: c.Name, Err: errors.New("empty command")}
	}
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &ExecutionError{Probe: c.Name, Err: err, Stderr: stderr.String()}
	}
	return stdout.String(), nil
}
