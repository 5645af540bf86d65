package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/chanscout/chanscout/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the aggregated report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeChannels(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteLevel1 outputs the level-1 list as a Markdown table.
func (w *MarkdownWriter) WriteLevel1(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Similar Channels: @" + report.Seed)
	md.PlainText("")

	if len(report.Level1) == 0 {
		md.PlainText("No similar channels found.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(report.Level1))
	for i, record := range report.Level1 {
		rows[i] = []string{
			"`" + record.Username + "`",
			strconv.Itoa(record.ParticipantsCount),
			record.Title,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Username", "Subscribers", "Title"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Similar Channels Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed Channel", "`@" + report.Seed + "`"},
			{"Crawl Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.String()},
			{"Level 1 Results", strconv.Itoa(len(report.Level1))},
			{"Level 2 Fetched", strconv.Itoa(report.Level2Attempted)},
			{"Level 2 Raw Results", strconv.Itoa(report.Level2Found)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the aggregation summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Aggregation Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Count"},
		Rows: [][]string{
			{"Input", strconv.Itoa(report.Stats.Input)},
			{"Kept", strconv.Itoa(report.Stats.Kept)},
			{"Filtered out", strconv.Itoa(report.Stats.FilteredOut)},
			{"Duplicates", strconv.Itoa(report.Stats.Duplicates)},
			{"Invalid", strconv.Itoa(report.Stats.Invalid)},
		},
	})
	md.PlainText("")

	if !report.Empty() {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the topic distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Topic Distribution"),
		piechart.WithShowData(true),
	)

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, row := range report.Rows {
		if _, seen := counts[row.Topic]; !seen {
			order = append(order, row.Topic)
		}
		counts[row.Topic]++
	}
	for _, topic := range order {
		chart.LabelAndIntValue(topic, uint64(counts[topic]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the aggregation outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	notable := 0
	for _, row := range report.Rows {
		if row.Notable {
			notable++
		}
	}

	switch {
	case notable > 0:
		md.Tip(fmt.Sprintf("%d notable channel(s) passed the subscriber threshold.", notable))
	case !report.Empty():
		md.Note(fmt.Sprintf("%d channel(s) kept after filtering and deduplication.", len(report.Rows)))
	case report.Level2Found > 0:
		md.Warningf(
			"All %d discovered channel(s) were removed by filtering and deduplication.",
			report.Level2Found,
		)
	default:
		md.Note("The crawl discovered no channels.")
	}
	md.PlainText("")
}

// writeChannels writes the aggregated channel rows.
func (w *MarkdownWriter) writeChannels(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Channels")
	md.PlainText("")

	if report.Empty() {
		md.PlainText("No channels passed the filter.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Rows))
	for i, row := range report.Rows {
		notable := "-"
		if row.Notable {
			notable = row.NotableLink()
		}
		rows[i] = []string{
			row.Record.Link(),
			strconv.Itoa(row.Record.ParticipantsCount),
			truncateString(row.Record.Title, 50),
			row.Topic,
			"`@" + row.Source + "`",
			notable,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Channel", "Subscribers", "Title", "Topic", "Source", "Notable"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [chanscout](https://github.com/chanscout/chanscout)*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
