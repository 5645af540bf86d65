package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSeed is returned when no seed channel is specified.
	// Seeds come from positional arguments only; there is no flag for them.
	ErrNoSeed = errors.New("no seed specified: provide one or more channel usernames as arguments")

	// ErrNoGateway is returned when the gateway URL is empty.
	// Every platform request goes through the session gateway, so a crawl
	// cannot start without one.
	ErrNoGateway = errors.New("no gateway URL specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRate is returned when the request rate is not positive.
	// A zero rate would block the first request forever.
	ErrInvalidRate = errors.New("invalid request rate: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent crawls, effectively
	// stopping the crawling process.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDelay is returned when the inter-request delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidThreshold is returned when a subscriber threshold is
	// negative. Use 0 to disable the filter or the notable highlight.
	ErrInvalidThreshold = errors.New("invalid threshold: must be non-negative")
)
