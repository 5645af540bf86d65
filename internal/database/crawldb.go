package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chanscout/chanscout/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all seeds rather
// than separate files per seed. This lets channel rows discovered by
// different crawls accumulate in one place, so repeated crawls show
// subscriber growth over time.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "chanscout.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Channel rows accumulate every channel any crawl has discovered
	CREATE TABLE IF NOT EXISTS channels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		title TEXT,
		participants_count INTEGER DEFAULT 0,
		topic TEXT,
		notable INTEGER DEFAULT 0,
		source TEXT,
		seed TEXT,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_channels_topic ON channels(topic);
	CREATE INDEX IF NOT EXISTS idx_channels_seed ON channels(seed);
	CREATE INDEX IF NOT EXISTS idx_channels_last_seen ON channels(last_seen);

	-- Crawl reports store complete crawl results as JSON
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		stats_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_seed ON crawl_reports(seed);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON crawl_reports(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// ChannelRow represents a stored channel discovery.
type ChannelRow struct {
	ID                int64
	Username          string
	Title             string
	ParticipantsCount int
	Topic             string
	Notable           bool
	Source            string
	Seed              string
	FirstSeen         time.Time
	LastSeen          time.Time
}

// UpsertChannel inserts or updates a channel row.
// A username already present keeps its first_seen while subscriber count,
// topic, and last_seen move forward.
func (cdb *CrawlDB) UpsertChannel(ctx context.Context, row *ChannelRow) error {
	query := `
	INSERT INTO channels (username, title, participants_count, topic, notable, source, seed)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(username) DO UPDATE SET
		title = excluded.title,
		participants_count = excluded.participants_count,
		topic = excluded.topic,
		notable = excluded.notable,
		source = excluded.source,
		seed = excluded.seed,
		last_seen = CURRENT_TIMESTAMP
	`

	_, err := cdb.db.ExecContext(ctx, query,
		row.Username,
		row.Title,
		row.ParticipantsCount,
		row.Topic,
		boolToInt(row.Notable),
		row.Source,
		row.Seed,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}

	return nil
}

// GetChannel retrieves a channel row by username.
// Returns nil without error when the username is unknown.
func (cdb *CrawlDB) GetChannel(ctx context.Context, username string) (*ChannelRow, error) {
	query := `
	SELECT id, username, title, participants_count, topic, notable, source, seed, first_seen, last_seen
	FROM channels
	WHERE username = ?
	`

	var row ChannelRow
	var notable int
	var firstSeen, lastSeen string

	err := cdb.db.QueryRowContext(ctx, query, username).Scan(
		&row.ID,
		&row.Username,
		&row.Title,
		&row.ParticipantsCount,
		&row.Topic,
		&notable,
		&row.Source,
		&row.Seed,
		&firstSeen,
		&lastSeen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	row.Notable = notable != 0
	row.FirstSeen = parseTimestamp(firstSeen)
	row.LastSeen = parseTimestamp(lastSeen)

	return &row, nil
}

// TopChannels returns the largest stored channels ordered by subscriber
// count, limited to at most limit rows.
func (cdb *CrawlDB) TopChannels(ctx context.Context, limit int) ([]ChannelRow, error) {
	query := `
	SELECT id, username, title, participants_count, topic, notable, source, seed, first_seen, last_seen
	FROM channels
	ORDER BY participants_count DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var results []ChannelRow
	for rows.Next() {
		var row ChannelRow
		var notable int
		var firstSeen, lastSeen string

		err := rows.Scan(
			&row.ID,
			&row.Username,
			&row.Title,
			&row.ParticipantsCount,
			&row.Topic,
			&notable,
			&row.Source,
			&row.Seed,
			&firstSeen,
			&lastSeen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}

		row.Notable = notable != 0
		row.FirstSeen = parseTimestamp(firstSeen)
		row.LastSeen = parseTimestamp(lastSeen)
		results = append(results, row)
	}

	return results, rows.Err()
}

// HasRecentCrawl checks if a seed was crawled within the specified duration.
func (cdb *CrawlDB) HasRecentCrawl(ctx context.Context, seed string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM crawl_reports
	WHERE seed = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := cdb.db.QueryRowContext(ctx, query, seed, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent crawl: %w", err)
	}

	return count > 0, nil
}

// SaveCrawlReport saves a complete crawl report as JSON and upserts every
// aggregated row into the channels table.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	statsJSON, _ := json.Marshal(report.Stats) //nolint:errcheck,errchkjson // Stats is a flat struct of ints; Marshal won't fail

	query := `
	INSERT INTO crawl_reports (seed, report_json, stats_summary)
	VALUES (?, ?, ?)
	`

	if _, err := cdb.db.ExecContext(ctx, query,
		report.Seed,
		string(reportJSON),
		string(statsJSON),
	); err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	for _, row := range report.Rows {
		channel := &ChannelRow{
			Username:          row.Record.Username,
			Title:             row.Record.Title,
			ParticipantsCount: row.Record.ParticipantsCount,
			Topic:             row.Topic,
			Notable:           row.Notable,
			Source:            row.Source,
			Seed:              report.Seed,
		}
		if err := cdb.UpsertChannel(ctx, channel); err != nil {
			return err
		}
	}

	return nil
}

// GetLatestCrawlReport retrieves the most recent crawl report for a seed.
// Returns nil without error when the seed was never crawled.
func (cdb *CrawlDB) GetLatestCrawlReport(ctx context.Context, seed string) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE seed = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, seed).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListSeeds returns all seeds that have at least one stored crawl.
func (cdb *CrawlDB) ListSeeds(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed FROM crawl_reports
	ORDER BY seed
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// GetCrawlHistory retrieves all crawl reports for a seed, newest first.
func (cdb *CrawlDB) GetCrawlHistory(ctx context.Context, seed string) ([]*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE seed = ?
	ORDER BY timestamp DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var reports []*model.CrawlReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.CrawlReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// CrawlReportMetadata contains summary information about a crawl report.
// This is used for displaying crawl history without loading the full report.
type CrawlReportMetadata struct {
	// ID is the unique identifier of the crawl report in the database.
	ID int64

	// Seed is the channel the crawl started from.
	Seed string

	// Timestamp is when the crawl was performed.
	Timestamp time.Time

	// Stats is the aggregation outcome of the crawl.
	Stats model.AggregateStats
}

// GetCrawlHistoryWithMetadata retrieves crawl report metadata for a seed.
// This is more efficient than GetCrawlHistory when only metadata is needed.
func (cdb *CrawlDB) GetCrawlHistoryWithMetadata(ctx context.Context, seed string) ([]CrawlReportMetadata, error) {
	query := `
	SELECT id, seed, timestamp, stats_summary
	FROM crawl_reports
	WHERE seed = ?
	ORDER BY timestamp DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var results []CrawlReportMetadata
	for rows.Next() {
		var meta CrawlReportMetadata
		var timestamp string
		var statsJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Seed, &timestamp, &statsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		if statsJSON.Valid && statsJSON.String != "" {
			if err := json.Unmarshal([]byte(statsJSON.String), &meta.Stats); err != nil {
				meta.Stats = model.AggregateStats{}
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetCrawlReportByID retrieves a crawl report by its database ID.
func (cdb *CrawlDB) GetCrawlReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE id = ?
	`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// boolToInt maps a bool to its SQLite integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
