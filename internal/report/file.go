package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/model"
)

// Level1FileName returns the file name of the level-1 channel list for the
// given seed.
func Level1FileName(seed string) string {
	return sanitizeSeed(seed) + "_level1.txt"
}

// CSVFileName returns the file name of the level-2 CSV report for the
// given seed.
func CSVFileName(seed string) string {
	return sanitizeSeed(seed) + "_level2_report.csv"
}

// sanitizeSeed maps a seed to a safe file name component. Platform
// usernames are ASCII word characters already, so anything else is user
// input and gets replaced.
func sanitizeSeed(seed string) string {
	seed = strings.TrimPrefix(strings.TrimSpace(seed), "@")
	if seed == "" {
		return "crawl"
	}

	var sb strings.Builder
	for _, r := range seed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// Save writes both crawl artifacts under dir: the level-1 channel list as
// line-format text and the aggregated level-2 report as CSV. The directory
// is created if it does not exist. It returns the paths written, in
// level-1, level-2 order.
func Save(dir string, report *model.CrawlReport, codec *lineformat.Codec) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	level1Path := filepath.Join(dir, Level1FileName(report.Seed))
	if err := writeFile(level1Path, func(f *os.File) error {
		_, err := NewTextWriter(f, WithLineCodec(codec)).WriteLevel1(report)
		return err
	}); err != nil {
		return nil, fmt.Errorf("write level 1 list: %w", err)
	}

	csvPath := filepath.Join(dir, CSVFileName(report.Seed))
	if err := writeFile(csvPath, func(f *os.File) error {
		_, err := NewCSVWriter(f).Write(report)
		return err
	}); err != nil {
		return nil, fmt.Errorf("write level 2 report: %w", err)
	}

	return []string{level1Path, csvPath}, nil
}

// writeFile creates path, runs write against it, and propagates the first
// error including the close error.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path) //nolint:gosec // paths are built from sanitized seeds
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
