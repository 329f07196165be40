package probe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"infra-scraper/internal/model"
)

// wrapperPairs maps each opening delimiter the absolute probe may use to its closing one.
var wrapperPairs = map[byte]byte{
	'(':  ')',
	'[':  ']',
	'{':  '}',
	'<':  '>',
	'"':  '"',
	'\'': '\'',
	'`':  '`',
}

// ParseLoaderReading parses "<cpu> <mem>" and normalizes cpu against loaderTotalCores.
func ParseLoaderReading(out string, loaderTotalCores float64) (model.LoaderReading, error) {
	if loaderTotalCores <= 0 {
		return model.LoaderReading{}, fmt.Errorf("loader total cores must be > 0, got %v", loaderTotalCores)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return model.LoaderReading{}, &ParseError{
			Probe: NameLoader,
			Line:  -1,
			Err:   fmt.Errorf("%w: want 2 fields, got %d", ErrMalformed, len(fields)),
		}
	}
	cpu, err := parseNumber(fields[0])
	if err != nil {
		return model.LoaderReading{}, &ParseError{Probe: NameLoader, Line: -1, Err: fmt.Errorf("cpu: %w", err)}
	}
	mem, err := parseNumber(fields[1])
	if err != nil {
		return model.LoaderReading{}, &ParseError{Probe: NameLoader, Line: -1, Err: fmt.Errorf("memory: %w", err)}
	}
	return model.LoaderReading{CPUPercent: cpu / loaderTotalCores, MemPercent: mem}, nil
}

// ParseAbsoluteLine splits "<cpu>,<mem>" and strips the wrapping delimiters.
// Each field carries exactly one delimiter pair, e.g. "(3.3),(4.4)", or one pair
// encloses the whole line, e.g. "(3.3,4.4)". The values themselves are opaque.
func ParseAbsoluteLine(line string) (string, string, error) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: want 2 comma-separated fields, got %d in %q", ErrMalformed, len(parts), line)
	}
	cpu, cpuOK := unwrap(strings.TrimSpace(parts[0]))
	mem, memOK := unwrap(strings.TrimSpace(parts[1]))
	if !cpuOK || !memOK {
		inner, ok := unwrap(line)
		if !ok {
			return "", "", fmt.Errorf("%w: missing delimiters in %q", ErrMalformed, line)
		}
		parts = strings.Split(inner, ",")
		cpu, mem = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	if cpu == "" || mem == "" {
		return "", "", fmt.Errorf("%w: empty value in %q", ErrMalformed, line)
	}
	if hasWrapperEdge(cpu) || hasWrapperEdge(mem) {
		return "", "", fmt.Errorf("%w: nested delimiters in %q", ErrMalformed, line)
	}
	return cpu, mem, nil
}

// ParsePercentLine parses "<cpu>%<mem>%" with an optional one-character trailer,
// e.g. "50%20%" or "50%20%.".
func ParsePercentLine(line string) (float64, float64, error) {
	body := strings.TrimSpace(line)
	if !strings.HasSuffix(body, "%") {
		_, size := utf8.DecodeLastRuneInString(body)
		body = body[:len(body)-size]
	}
	if !strings.HasSuffix(body, "%") {
		return 0, 0, fmt.Errorf("%w: want a %%-terminated memory field in %q", ErrMalformed, line)
	}
	parts := strings.Split(strings.TrimSuffix(body, "%"), "%")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: want 2 %%-separated fields in %q", ErrMalformed, line)
	}
	cpu, err := parseNumber(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("cpu: %w", err)
	}
	mem, err := parseNumber(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("memory: %w", err)
	}
	return cpu, mem, nil
}

// SplitLines returns the non-blank lines of a probe output.
func SplitLines(out string) []string {
	raw := strings.Split(strings.TrimRightFunc(out, unicode.IsSpace), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// PairLines zips the absolute and percentage outputs into per-node samples.
// Line 0 is the master; the rest are workers in probe order.
func PairLines(absOut, pctOut string) ([]model.NodeSample, error) {
	absLines := SplitLines(absOut)
	pctLines := SplitLines(pctOut)
	if len(absLines) != len(pctLines) {
		return nil, &AlignmentError{AbsoluteLines: len(absLines), PercentLines: len(pctLines)}
	}
	if len(absLines) == 0 {
		return nil, &ParseError{Probe: NamePercent, Line: -1, Err: fmt.Errorf("%w: no master line", ErrMalformed)}
	}

	samples := make([]model.NodeSample, 0, len(absLines))
	for i := range absLines {
		cpu, mem, err := ParseAbsoluteLine(absLines[i])
		if err != nil {
			return nil, &ParseError{Probe: NameAbsolute, Line: i, Err: err}
		}
		cpuPct, memPct, err := ParsePercentLine(pctLines[i])
		if err != nil {
			return nil, &ParseError{Probe: NamePercent, Line: i, Err: err}
		}
		role := model.NodeRoleWorker
		if i == 0 {
			role = model.NodeRoleMaster
		}
		samples = append(samples, model.NodeSample{
			Index:      i,
			Role:       role,
			CPU:        cpu,
			Memory:     mem,
			CPUPercent: cpuPct,
			MemPercent: memPct,
		})
	}
	return samples, nil
}

func parseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformed, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrMalformed, raw)
	}
	return v, nil
}

// unwrap strips one matching delimiter pair from s.
func unwrap(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	closing, ok := wrapperPairs[s[0]]
	if !ok || s[len(s)-1] != closing {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func hasWrapperEdge(s string) bool {
	return isWrapper(s[0]) || isWrapper(s[len(s)-1])
}

func isWrapper(b byte) bool {
	for open, closing := range wrapperPairs {
		if b == open || b == closing {
			return true
		}
	}
	return false
}
