package report

import (
	"io"

	"github.com/chanscout/chanscout/internal/model"
)

// Writer defines the interface for report output.
// Implementations render crawl results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the aggregated level-2 report to the configured
	// destination. Returns the number of bytes written and any error
	// encountered.
	Write(report *model.CrawlReport) (int, error)

	// WriteLevel1 outputs only the level-1 channel list. Level-1 output is
	// never filtered, so the list mirrors what the platform returned.
	WriteLevel1(report *model.CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteLevel1 outputs the level-1 list to all configured Writers.
func (m *MultiWriter) WriteLevel1(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteLevel1(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
