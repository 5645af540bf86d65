package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// codec renders level-1 records as configured line-format lines.
	codec *lineformat.Codec

	// showEmpty controls whether sections with no rows are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithLineCodec sets the line format codec used for level-1 output.
func WithLineCodec(codec *lineformat.Codec) TextWriterOption {
	return func(w *TextWriter) {
		w.codec = codec
	}
}

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.codec == nil {
		w.codec = lineformat.New(lineformat.DefaultFormat)
	}

	return w
}

// Write outputs the aggregated report in human-readable format.
func (w *TextWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeChannels(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteLevel1 outputs the level-1 records as line-format lines, one per
// line. This rendering matches the on-disk level-1 file byte for byte.
func (w *TextWriter) WriteLevel1(report *model.CrawlReport) (int, error) {
	var sb strings.Builder
	for _, record := range report.Level1 {
		line, err := w.codec.Encode(record)
		if err != nil {
			return 0, fmt.Errorf("encode level 1 record: %w", err)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                     SIMILAR CHANNELS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed Channel:     @%s\n", report.Seed))
	sb.WriteString(fmt.Sprintf("Crawl Date:       %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", report.Duration))
	sb.WriteString(fmt.Sprintf("Level 1 Results:  %d\n", len(report.Level1)))
	sb.WriteString(fmt.Sprintf("Level 2 Fetched:  %d channels, %d raw results\n",
		report.Level2Attempted, report.Level2Found))
	sb.WriteString("\n")
}

// writeSummary writes the aggregation summary section.
func (w *TextWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("AGGREGATION SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  INPUT:        %d\n", report.Stats.Input))
	sb.WriteString(fmt.Sprintf("  KEPT:         %d\n", report.Stats.Kept))
	sb.WriteString(fmt.Sprintf("  FILTERED OUT: %d\n", report.Stats.FilteredOut))
	sb.WriteString(fmt.Sprintf("  DUPLICATES:   %d\n", report.Stats.Duplicates))
	sb.WriteString(fmt.Sprintf("  INVALID:      %d\n", report.Stats.Invalid))
	sb.WriteString("\n")
}

// writeChannels writes the aggregated channel rows.
func (w *TextWriter) writeChannels(sb *strings.Builder, report *model.CrawlReport) {
	if report.Empty() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CHANNELS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if report.Empty() {
		sb.WriteString("  No channels passed the filter\n\n")
		return
	}

	for _, row := range report.Rows {
		marker := " "
		if row.Notable {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s (%d)\n", marker, row.Record.Link(), row.Record.ParticipantsCount))
		sb.WriteString(fmt.Sprintf("      Title: %s\n", row.Record.Title))
		sb.WriteString(fmt.Sprintf("      Topic: %s\n", row.Topic))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      Source: @%s\n", row.Source))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by chanscout\n")
	sb.WriteString("https://github.com/chanscout/chanscout\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
