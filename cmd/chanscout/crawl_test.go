package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chanscout/chanscout/internal/config"
	"github.com/chanscout/chanscout/internal/lineformat"
	"github.com/chanscout/chanscout/internal/log"
	"github.com/chanscout/chanscout/internal/model"
	"github.com/chanscout/chanscout/internal/report"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [seed-channel]..." {
			t.Errorf("expected use 'crawl [seed-channel]...', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	flagSpecs := []struct {
		name      string
		shorthand string
	}{
		{"gateway", "g"},
		{"token", ""},
		{"proxy", ""},
		{"timeout", "t"},
		{"rate", "r"},
		{"delay", "d"},
		{"filter-threshold", ""},
		{"notable-threshold", ""},
		{"line-format", ""},
		{"batch", "b"},
		{"config", "c"},
		{"json", "j"},
		{"markdown", "m"},
		{"output", "o"},
		{"dir", ""},
	}
	for _, spec := range flagSpecs {
		t.Run("has "+spec.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(spec.name)
			if flag == nil {
				t.Fatalf("expected %s flag", spec.name)
			}
			if flag.Shorthand != spec.shorthand {
				t.Errorf("expected shorthand %q, got %q", spec.shorthand, flag.Shorthand)
			}
		})
	}

	t.Run("delay flag defaults to 1.5s", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("delay")
		if flag == nil {
			t.Fatal("expected delay flag")
		}
		if flag.DefValue != "1.5s" {
			t.Errorf("expected default '1.5s', got %q", flag.DefValue)
		}
	})
}

// TestBuildCrawlConfig tests configuration building from flags.
func TestBuildCrawlConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "testchannel" {
			t.Errorf("expected seeds [testchannel], got %v", cfg.Seeds)
		}
		if cfg.Delay != config.DefaultDelay {
			t.Errorf("expected delay %v, got %v", config.DefaultDelay, cfg.Delay)
		}
		if cfg.FilterThreshold != config.DefaultFilterThreshold {
			t.Errorf("expected filter threshold %d, got %d", config.DefaultFilterThreshold, cfg.FilterThreshold)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
	})

	t.Run("strips @ prefix from seeds", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd, []string{"@alpha", " @beta ", "gamma"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"alpha", "beta", "gamma"}
		if !reflect.DeepEqual(cfg.Seeds, want) {
			t.Errorf("expected seeds %v, got %v", want, cfg.Seeds)
		}
	})

	t.Run("builds config with custom delay", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("delay", "3s")
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Delay != 3*time.Second {
			t.Errorf("expected delay 3s, got %v", cfg.Delay)
		}
	})

	t.Run("builds config with custom batch size", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("batch", "5")
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 5 {
			t.Errorf("expected BatchSize 5, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "chanscout.yaml")

		content := []byte(`
gateway:
  url: "http://gateway.example:9000"
  token: "file-token"
delay: "4s"
filterThreshold: 2500
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.GatewayURL != "http://gateway.example:9000" {
			t.Errorf("expected gateway from file, got %q", cfg.GatewayURL)
		}
		if cfg.GatewayToken != "file-token" {
			t.Errorf("expected token from file, got %q", cfg.GatewayToken)
		}
		if cfg.Delay != 4*time.Second {
			t.Errorf("expected delay 4s from file, got %v", cfg.Delay)
		}
		if cfg.FilterThreshold != 2500 {
			t.Errorf("expected filter threshold 2500 from file, got %d", cfg.FilterThreshold)
		}
	})

	t.Run("command line flags override config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "chanscout.yaml")

		content := []byte(`
delay: "4s"
filterThreshold: 2500
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_ = cmd.Flags().Set("delay", "10s")
		cfg, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Delay != 10*time.Second {
			t.Errorf("expected flag delay 10s to win, got %v", cfg.Delay)
		}
		if cfg.FilterThreshold != 2500 {
			t.Errorf("expected file threshold 2500 to survive, got %d", cfg.FilterThreshold)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := buildCrawlConfig(cmd, []string{"testchannel"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})
}

// TestNormalizeSeeds tests seed argument normalization.
func TestNormalizeSeeds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "plain usernames pass through",
			args: []string{"alpha", "beta"},
			want: []string{"alpha", "beta"},
		},
		{
			name: "at prefix is stripped",
			args: []string{"@alpha"},
			want: []string{"alpha"},
		},
		{
			name: "whitespace is trimmed",
			args: []string{"  alpha  "},
			want: []string{"alpha"},
		},
		{
			name: "empty arguments are dropped",
			args: []string{"", "@", "alpha"},
			want: []string{"alpha"},
		},
		{
			name: "no arguments",
			args: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeSeeds(tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeSeeds(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

// TestGetVerboseFlag tests verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	t.Run("returns false by default", func(t *testing.T) {
		t.Parallel()
		root := NewRootCmd()
		crawl, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}
		if getVerboseFlag(crawl) {
			t.Error("expected false by default")
		}
	})

	t.Run("returns true when set on root", func(t *testing.T) {
		t.Parallel()
		root := NewRootCmd()
		if err := root.PersistentFlags().Set("verbose", "true"); err != nil {
			t.Fatalf("failed to set verbose: %v", err)
		}
		if !getVerboseFlag(root) {
			t.Error("expected true from root verbose flag")
		}
	})
}

// TestOutputReport tests report output in each format.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	newReport := func() *model.CrawlReport {
		crawlReport := model.NewCrawlReport("seedchannel")
		crawlReport.Level1 = []model.ChannelRecord{
			{Username: "alpha", ParticipantsCount: 5000, Title: "Alpha"},
		}
		crawlReport.Rows = []model.ReportRow{
			{
				Source:  "alpha",
				Record:  model.ChannelRecord{Username: "gamma", ParticipantsCount: 60000, Title: "Gamma"},
				Topic:   "Технологии/IT",
				Notable: true,
			},
		}
		crawlReport.Stats = model.AggregateStats{Input: 2, Kept: 1, FilteredOut: 1}
		return crawlReport
	}

	codec := lineformat.New(lineformat.DefaultFormat)

	t.Run("writes text report to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out", "report.txt")
		cfg := config.NewConfig()
		cfg.ReportFile = path

		if err := outputReport(cfg, newReport(), codec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "SIMILAR CHANNELS REPORT") {
			t.Error("expected text report header")
		}
		if !strings.Contains(string(content), "https://t.me/gamma") {
			t.Error("expected discovered channel link in report")
		}
	})

	t.Run("writes JSON report to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.json")
		cfg := config.NewConfig()
		cfg.ReportFile = path
		cfg.JSONReport = true

		if err := outputReport(cfg, newReport(), codec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), `"seed": "seedchannel"`) {
			t.Error("expected pretty-printed JSON with seed field")
		}
	})

	t.Run("writes Markdown report to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "report.md")
		cfg := config.NewConfig()
		cfg.ReportFile = path
		cfg.MarkdownReport = true

		if err := outputReport(cfg, newReport(), codec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Similar Channels Report") {
			t.Error("expected Markdown heading")
		}
	})
}

// newCrawlTestGateway starts an httptest gateway that serves an authorized
// session and canned recommendations per channel.
func newCrawlTestGateway(t *testing.T, recommendations map[string]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/session", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"authorized": true}`))
	})
	mux.HandleFunc("/channels/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 3 {
			http.NotFound(w, r)
			return
		}
		body, ok := recommendations[parts[1]]
		if !ok {
			_, _ = w.Write([]byte(`{"chats": []}`))
			return
		}
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestRunCrawl runs a full two-level crawl against a fake gateway and
// checks the written artifacts.
func TestRunCrawl(t *testing.T) {
	t.Parallel()

	chat := func(username string, count int, title string) string {
		return fmt.Sprintf(`{"kind": "channel", "username": %q, "participants_count": %d, "title": %q}`,
			username, count, title)
	}

	srv := newCrawlTestGateway(t, map[string]string{
		"seedchan": `{"chats": [` + chat("alpha", 5000, "Alpha News") + `, ` + chat("beta", 60000, "Beta Crypto") + `]}`,
		"alpha":    `{"chats": [` + chat("gamma", 2000, "Gamma Dev") + `, ` + chat("tiny", 100, "Tiny") + `]}`,
		"beta":     `{"chats": [` + chat("gamma", 2000, "Gamma Dev") + `, ` + chat("delta", 75000, "Delta Invest") + `]}`,
	})

	saveDir := t.TempDir()
	reportPath := filepath.Join(saveDir, "report.txt")

	cfg := config.NewConfig()
	cfg.GatewayURL = srv.URL
	cfg.GatewayToken = "test-token"
	cfg.RequestsPerSecond = 1000
	cfg.Delay = time.Millisecond
	cfg.SavingDirectory = saveDir
	cfg.ReportFile = reportPath
	cfg.Seeds = []string{"seedchan"}
	cfg.SaveToDB = false

	logger := log.NewSecureLogger(io.Discard, false)

	if err := runCrawl(context.Background(), cfg, logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Level-1 text list: both first-hop channels, unfiltered
	level1Path := filepath.Join(saveDir, report.Level1FileName("seedchan"))
	level1, err := os.ReadFile(level1Path)
	if err != nil {
		t.Fatalf("failed to read level-1 file: %v", err)
	}
	wantLevel1 := "alpha:5000:Alpha News\nbeta:60000:Beta Crypto\n"
	if string(level1) != wantLevel1 {
		t.Errorf("level-1 file = %q, want %q", string(level1), wantLevel1)
	}

	// Level-2 CSV: gamma deduplicated, tiny filtered, delta notable
	csvPath := filepath.Join(saveDir, report.CSVFileName("seedchan"))
	csvContent, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("failed to read CSV file: %v", err)
	}
	csvStr := string(csvContent)
	if strings.Count(csvStr, "gamma") != 1 {
		t.Errorf("expected gamma exactly once in CSV, got:\n%s", csvStr)
	}
	if strings.Contains(csvStr, "tiny") {
		t.Errorf("expected tiny to be filtered out, got:\n%s", csvStr)
	}
	if !strings.Contains(csvStr, "https://t.me/delta") {
		t.Errorf("expected delta notable link in CSV, got:\n%s", csvStr)
	}

	// Terminal report written to the output file
	reportContent, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("failed to read report file: %v", err)
	}
	if !strings.Contains(string(reportContent), "AGGREGATION SUMMARY") {
		t.Error("expected aggregation summary in report")
	}
}

// TestRunCrawlNoSeeds tests that a crawl without seeds fails fast.
func TestRunCrawlNoSeeds(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SaveToDB = false
	logger := log.NewSecureLogger(io.Discard, false)

	err := runCrawl(context.Background(), cfg, logger)
	if err == nil {
		t.Fatal("expected error for missing seeds")
	}
	if !strings.Contains(err.Error(), "no seed channels") {
		t.Errorf("expected 'no seed channels' error, got %v", err)
	}
}
