package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/chanscout/chanscout/internal/lineformat"
)

// Default configuration values.
// These values are chosen to stay well inside the platform's flood
// control limits while keeping crawls reasonably fast.
const (
	// DefaultGatewayURL is the default address of the session gateway that
	// holds the authorized account session. We use 127.0.0.1 instead of
	// localhost to avoid DNS resolution overhead and potential issues with
	// IPv6 resolution on some systems.
	DefaultGatewayURL = "http://127.0.0.1:8081"

	// DefaultTimeout is the connection timeout for each gateway request.
	// Recommendation fetches are small; 30 seconds covers slow proxies
	// without hanging a crawl for minutes on a dead gateway.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay is the pause observed after every level-2 fetch.
	// This is a politeness setting against the platform's flood control:
	// going faster invites FLOOD_WAIT penalties that cost far more time
	// than the delay saves.
	DefaultDelay = 1500 * time.Millisecond

	// DefaultRequestsPerSecond caps the gateway request rate across all
	// concurrent crawls sharing one session.
	DefaultRequestsPerSecond = 1.0

	// DefaultBatchSize of 2 concurrent crawls balances throughput with the
	// shared per-session rate budget. Higher values do not finish faster
	// because the rate limiter serializes the requests anyway.
	DefaultBatchSize = 2

	// DefaultFilterThreshold is the minimum subscriber count a level-2
	// discovery needs to appear in the report.
	DefaultFilterThreshold = 1000

	// DefaultNotableThreshold is the subscriber count at which a channel
	// is highlighted as notable in the report.
	DefaultNotableThreshold = 50000

	// AppName is the application name used for XDG directory paths.
	AppName = "chanscout"
)

// Config holds all configuration options for chanscout.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// GatewayURL is the base URL of the session gateway holding the
	// authorized account session. All platform traffic goes through it.
	GatewayURL string

	// GatewayToken is the bearer token for the session gateway.
	// Never logged; the log handler masks it if it leaks into attributes.
	GatewayToken string

	// ProxyURL is an optional SOCKS5 proxy URL for gateway connections,
	// e.g. "socks5://127.0.0.1:1080". Empty means a direct connection.
	ProxyURL string

	// Timeout is the connection timeout for each gateway request.
	Timeout time.Duration

	// RequestsPerSecond caps the gateway request rate. The budget is
	// shared by every crawl on the session, not per crawl.
	RequestsPerSecond float64

	// LineFormat is the template for level-1 output lines. Placeholders
	// {username}, {participants_count}, and {title} are substituted per
	// record; the same template drives parsing lines back.
	LineFormat string

	// Delay is the pause after every level-2 fetch, including the last.
	Delay time.Duration

	// SavingDirectory is where the level-1 list and the level-2 CSV are
	// written. Empty means the current working directory.
	SavingDirectory string

	// FilterThreshold is the minimum subscriber count for report rows.
	FilterThreshold int

	// NotableThreshold is the subscriber count for the notable highlight.
	NotableThreshold int

	// BatchSize is the number of concurrent crawls when processing
	// multiple seeds.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the terminal report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .chanscout in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// FileConfig holds settings loaded from the config file.
	// This is populated by LoadConfigFile and applied before flag overrides.
	FileConfig *File

	// DBDir is the directory path for storing the SQLite database.
	// When set, crawl results are saved to the database for historical
	// comparison. When empty, crawl results are not persisted.
	// Defaults to XDG data directory (~/.local/share/chanscout on Linux).
	DBDir string

	// SaveToDB indicates whether to save crawl results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// Seeds is the list of seed channels to crawl.
	// Must contain at least one username, with or without the "@" prefix.
	Seeds []string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, thresholds).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		GatewayURL:        DefaultGatewayURL,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		LineFormat:        lineformat.DefaultFormat,
		Delay:             DefaultDelay,
		FilterThreshold:   DefaultFilterThreshold,
		NotableThreshold:  DefaultNotableThreshold,
		BatchSize:         DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for chanscout.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/chanscout
// On macOS: ~/Library/Application Support/chanscout
// On Windows: %LOCALAPPDATA%\chanscout
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for chanscout.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/chanscout
// On macOS: ~/Library/Application Support/chanscout
// On Windows: %APPDATA%\chanscout
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	if c.GatewayURL == "" {
		return ErrNoGateway
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestsPerSecond <= 0 {
		return ErrInvalidRate
	}

	// BatchSize must be positive; zero would mean no crawling
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// Delay must be non-negative
	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.FilterThreshold < 0 || c.NotableThreshold < 0 {
		return ErrInvalidThreshold
	}

	return nil
}
