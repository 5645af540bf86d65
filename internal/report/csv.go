package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/chanscout/chanscout/internal/model"
)

// csvHeader is the column set of the level-2 CSV report. NotableLink is
// empty for rows below the notable threshold, so spreadsheet users can
// filter the highlight column directly.
var csvHeader = []string{"SourceChannel", "Link", "SubscriberCount", "Title", "Topic", "NotableLink"}

// level1CSVHeader is the column set of the level-1 CSV rendering.
var level1CSVHeader = []string{"Username", "SubscriberCount", "Title"}

// CSVWriter outputs reports in CSV format.
// This format is designed for spreadsheet import and downstream tooling.
//
// Design decision: We use standard encoding/csv rather than a third-party
// CSV library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It handles quoting of titles with commas and newlines correctly
// 3. It provides consistent behavior across Go versions
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the aggregated report as CSV with a header row.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, row := range report.Rows {
		record := []string{
			row.Source,
			row.Record.Link(),
			strconv.Itoa(row.Record.ParticipantsCount),
			row.Record.Title,
			row.Topic,
			row.NotableLink(),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}

// WriteLevel1 outputs the level-1 records as CSV with a header row.
func (w *CSVWriter) WriteLevel1(report *model.CrawlReport) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(level1CSVHeader); err != nil {
		return 0, err
	}
	for _, record := range report.Level1 {
		row := []string{
			record.Username,
			strconv.Itoa(record.ParticipantsCount),
			record.Title,
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}
