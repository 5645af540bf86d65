package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chanscout/chanscout/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*CrawlDB, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	db, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// testReport builds a crawl report with sample data for storage tests.
func testReport(seed string) *model.CrawlReport {
	report := model.NewCrawlReport(seed)
	report.Level1 = []model.ChannelRecord{
		{Username: "first", ParticipantsCount: 10000, Title: "First"},
	}
	report.Level2Attempted = 1
	report.Level2Found = 2
	report.Rows = []model.ReportRow{
		{
			Source:  "first",
			Record:  model.ChannelRecord{Username: "found", ParticipantsCount: 8000, Title: "Found"},
			Topic:   "Новости/Медиа",
			Notable: false,
		},
		{
			Source:  "first",
			Record:  model.ChannelRecord{Username: "bignews", ParticipantsCount: 90000, Title: "Big News"},
			Topic:   "Новости/Медиа",
			Notable: true,
		},
	}
	report.Stats = model.AggregateStats{Input: 2, Kept: 2}
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		dbDir := filepath.Join(tmpDir, "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "chanscout.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "nonexistent-db")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected informative error, got %q", err.Error())
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "existing-db")

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}

		ctx := context.Background()
		if err := db1.SaveCrawlReport(ctx, testReport("persist")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		db1.Close()

		openOpts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}
		db2, err := Open(dbDir, openOpts)
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		retrieved, err := db2.GetLatestCrawlReport(ctx, "persist")
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if retrieved == nil {
			t.Error("expected report to persist across reopen")
		}
	})

	t.Run("CreateIfNotExists=false with directory but no db file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "empty-dir")

		if err := os.MkdirAll(dbDir, 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		if _, err := Open(dbDir, opts); err == nil {
			t.Fatal("expected error when directory exists but database file does not")
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestUpsertAndGetChannel tests channel row operations.
func TestUpsertAndGetChannel(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("insert and retrieve channel", func(t *testing.T) {
		row := &ChannelRow{
			Username:          "cryptodigest",
			Title:             "Crypto Digest",
			ParticipantsCount: 12000,
			Topic:             "Криптовалюты/Финансы",
			Notable:           false,
			Source:            "cryptonews",
			Seed:              "seedchannel",
		}

		if err := db.UpsertChannel(ctx, row); err != nil {
			t.Fatalf("failed to upsert channel: %v", err)
		}

		retrieved, err := db.GetChannel(ctx, "cryptodigest")
		if err != nil {
			t.Fatalf("failed to get channel: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected channel, got nil")
		}

		if retrieved.Title != "Crypto Digest" {
			t.Errorf("expected title 'Crypto Digest', got %q", retrieved.Title)
		}
		if retrieved.ParticipantsCount != 12000 {
			t.Errorf("expected 12000 subscribers, got %d", retrieved.ParticipantsCount)
		}
		if retrieved.FirstSeen.IsZero() {
			t.Error("expected first_seen to be set")
		}
	})

	t.Run("upsert updates existing channel", func(t *testing.T) {
		row := &ChannelRow{
			Username:          "growing",
			Title:             "Growing Channel",
			ParticipantsCount: 40000,
			Topic:             "Технологии/IT",
			Seed:              "seedchannel",
		}

		if err := db.UpsertChannel(ctx, row); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}

		row.ParticipantsCount = 60000
		row.Notable = true

		if err := db.UpsertChannel(ctx, row); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		retrieved, err := db.GetChannel(ctx, "growing")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if retrieved.ParticipantsCount != 60000 {
			t.Errorf("expected updated count 60000, got %d", retrieved.ParticipantsCount)
		}
		if !retrieved.Notable {
			t.Error("expected notable flag to be updated")
		}
	})

	t.Run("returns nil for non-existent channel", func(t *testing.T) {
		retrieved, err := db.GetChannel(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if retrieved != nil {
			t.Error("expected nil for non-existent channel")
		}
	})
}

// TestTopChannels tests the subscriber-ordered channel listing.
func TestTopChannels(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	counts := map[string]int{"small": 2000, "medium": 20000, "large": 200000}
	for username, count := range counts {
		row := &ChannelRow{Username: username, Title: username, ParticipantsCount: count}
		if err := db.UpsertChannel(ctx, row); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
	}

	top, err := db.TopChannels(ctx, 2)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].Username != "large" || top[1].Username != "medium" {
		t.Errorf("expected subscriber-count order, got %s then %s", top[0].Username, top[1].Username)
	}
}

// TestHasRecentCrawl tests recent crawl checking.
func TestHasRecentCrawl(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if err := db.SaveCrawlReport(ctx, testReport("recentseed")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	t.Run("returns true for recent crawl", func(t *testing.T) {
		hasRecent, err := db.HasRecentCrawl(ctx, "recentseed", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hasRecent {
			t.Error("expected true for recently saved crawl")
		}
	})

	t.Run("returns false for unknown seed", func(t *testing.T) {
		hasRecent, err := db.HasRecentCrawl(ctx, "neverseen", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hasRecent {
			t.Error("expected false for unknown seed")
		}
	})
}

// TestCrawlReports tests crawl report storage operations.
func TestCrawlReports(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("save and retrieve report", func(t *testing.T) {
		if err := db.SaveCrawlReport(ctx, testReport("saveseed")); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		retrieved, err := db.GetLatestCrawlReport(ctx, "saveseed")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected report, got nil")
		}
		if len(retrieved.Rows) != 2 {
			t.Errorf("expected 2 rows, got %d", len(retrieved.Rows))
		}
	})

	t.Run("saving a report upserts its channels", func(t *testing.T) {
		if err := db.SaveCrawlReport(ctx, testReport("channelseed")); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		channel, err := db.GetChannel(ctx, "bignews")
		if err != nil {
			t.Fatalf("failed to get channel: %v", err)
		}
		if channel == nil {
			t.Fatal("expected channel row from saved report")
		}
		if !channel.Notable {
			t.Error("expected notable flag to be stored")
		}
		if channel.Seed != "channelseed" {
			t.Errorf("expected seed 'channelseed', got %q", channel.Seed)
		}
	})

	t.Run("returns nil for unknown seed", func(t *testing.T) {
		retrieved, err := db.GetLatestCrawlReport(ctx, "unknown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if retrieved != nil {
			t.Error("expected nil for unknown seed")
		}
	})

	t.Run("list crawled seeds", func(t *testing.T) {
		for _, seed := range []string{"seed1", "seed2"} {
			if err := db.SaveCrawlReport(ctx, testReport(seed)); err != nil {
				t.Fatalf("failed to save: %v", err)
			}
		}

		seeds, err := db.ListSeeds(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(seeds) < 2 {
			t.Errorf("expected at least 2 seeds, got %d", len(seeds))
		}
	})
}

// TestGetCrawlHistory tests retrieval of crawl history for a seed.
func TestGetCrawlHistory(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("returns empty list for unknown seed", func(t *testing.T) {
		history, err := db.GetCrawlHistory(ctx, "unknown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d reports", len(history))
		}
	})

	t.Run("returns all crawl reports for seed", func(t *testing.T) {
		for i := range 3 {
			report := testReport("historyseed")
			report.Level2Found = i
			if err := db.SaveCrawlReport(ctx, report); err != nil {
				t.Fatalf("failed to save report %d: %v", i, err)
			}
			// Small delay to ensure different timestamps
			time.Sleep(10 * time.Millisecond)
		}

		history, err := db.GetCrawlHistory(ctx, "historyseed")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("expected 3 reports, got %d", len(history))
		}

		for _, report := range history {
			if report.Seed != "historyseed" {
				t.Errorf("expected seed 'historyseed', got %q", report.Seed)
			}
		}
	})
}

// TestGetCrawlHistoryWithMetadata tests retrieval of crawl history metadata.
func TestGetCrawlHistoryWithMetadata(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("returns empty list for unknown seed", func(t *testing.T) {
		history, err := db.GetCrawlHistoryWithMetadata(ctx, "unknown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d records", len(history))
		}
	})

	t.Run("returns metadata for all crawls", func(t *testing.T) {
		for i := range 3 {
			report := testReport("metaseed")
			report.Stats.Kept = i + 1
			if err := db.SaveCrawlReport(ctx, report); err != nil {
				t.Fatalf("failed to save report %d: %v", i, err)
			}
			time.Sleep(10 * time.Millisecond)
		}

		history, err := db.GetCrawlHistoryWithMetadata(ctx, "metaseed")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("expected 3 records, got %d", len(history))
		}

		for _, meta := range history {
			if meta.ID == 0 {
				t.Error("expected non-zero ID")
			}
			if meta.Seed != "metaseed" {
				t.Errorf("expected 'metaseed', got %q", meta.Seed)
			}
			if meta.Stats.Kept == 0 {
				t.Error("expected stats summary to be populated")
			}
		}
	})
}

// TestGetCrawlReportByID tests retrieval of crawl report by ID.
func TestGetCrawlReportByID(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("returns nil for non-existent ID", func(t *testing.T) {
		report, err := db.GetCrawlReportByID(ctx, 99999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report != nil {
			t.Error("expected nil for non-existent ID")
		}
	})

	t.Run("retrieves report by ID", func(t *testing.T) {
		if err := db.SaveCrawlReport(ctx, testReport("byidseed")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		metadata, err := db.GetCrawlHistoryWithMetadata(ctx, "byidseed")
		if err != nil {
			t.Fatalf("failed to get metadata: %v", err)
		}
		if len(metadata) == 0 {
			t.Fatal("expected at least one metadata record")
		}

		retrieved, err := db.GetCrawlReportByID(ctx, metadata[0].ID)
		if err != nil {
			t.Fatalf("failed to get report by ID: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected report, got nil")
		}
		if retrieved.Seed != "byidseed" {
			t.Errorf("expected 'byidseed', got %q", retrieved.Seed)
		}
	})
}
