package stream

import (
	"context"
	"fmt"
	"io"
	"sync"

	"infra-scraper/internal/model"
)

// WriterSink writes one JSON document per report, newline terminated.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) SendReport(_ context.Context, r model.UtilizationReport) error {
	b, err := EncodeReport(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (s *WriterSink) Close(context.Context) error {
	return nil
}
