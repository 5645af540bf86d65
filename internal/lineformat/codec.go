package lineformat

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/chanscout/chanscout/internal/model"
)

// DefaultFormat is the format specification used when none is configured.
const DefaultFormat = "{username}:{participants_count}:{title}"

// Recognized placeholder names. Any other placeholder in a format
// specification degrades to a wildcard match rather than failing
// construction; configuration typos must never take down the codec.
const (
	placeholderUsername     = "username"
	placeholderParticipants = "participants_count"
	placeholderTitle        = "title"
)

// placeholderRe matches a single {name} placeholder inside a raw format
// specification.
var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// FormatError reports that a record could not be encoded with the
// configured format specification.
type FormatError struct {
	// Format is the format specification in use.
	Format string

	// Placeholder is the placeholder that could not be filled.
	Placeholder string

	// Reason describes why the substitution failed.
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("line format %q: placeholder {%s}: %s", e.Format, e.Placeholder, e.Reason)
}

// Codec encodes and decodes channel records using one format specification.
//
// The matcher is compiled once in New and queried read-only afterwards, so a
// single Codec is safe for concurrent use by multiple crawls.
type Codec struct {
	// format is the raw format specification.
	format string

	// re is the compiled line matcher with named capture groups.
	re *regexp.Regexp

	// usernameIdx, participantsIdx and titleIdx are subexpression indexes
	// into re, or -1 when the format omits the placeholder.
	usernameIdx     int
	participantsIdx int
	titleIdx        int

	// logger records decode misses and configuration degradation.
	logger *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets a custom logger for the codec.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// New compiles the format specification into a Codec.
//
// Construction never fails: recognized placeholders become named capture
// groups, unrecognized ones become non-greedy wildcards, and literal text is
// quoted. Matching is case-insensitive and the title group is open-ended so
// that titles containing delimiter characters or newlines still match.
func New(format string, opts ...Option) *Codec {
	if format == "" {
		format = DefaultFormat
	}

	c := &Codec{format: format}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.re = compilePattern(format, c.logger)
	c.usernameIdx = c.re.SubexpIndex(placeholderUsername)
	c.participantsIdx = c.re.SubexpIndex(placeholderParticipants)
	c.titleIdx = c.re.SubexpIndex(placeholderTitle)

	return c
}

// compilePattern builds the anchored line matcher for a format
// specification.
func compilePattern(format string, logger *slog.Logger) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("(?is)^")

	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(format, -1) {
		// Literal segment before the placeholder.
		sb.WriteString(regexp.QuoteMeta(format[last:loc[0]]))

		switch name := format[loc[2]:loc[3]]; name {
		case placeholderUsername:
			sb.WriteString(`(?P<username>\w+)`)
		case placeholderParticipants:
			sb.WriteString(`(?P<participants_count>\d*)`)
		case placeholderTitle:
			// Greedy and open-ended: the title is free text and may
			// contain the delimiter itself.
			sb.WriteString(`(?P<title>.*)`)
		default:
			logger.Warn("unrecognized placeholder in line format, matching as wildcard",
				"placeholder", name,
				"format", format,
			)
			sb.WriteString(`.*?`)
		}
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(format[last:]))
	sb.WriteString("$")

	// The pattern is assembled from quoted literals and fixed group
	// fragments, so compilation cannot fail on user input.
	return regexp.MustCompile(sb.String())
}

// Format returns the raw format specification the codec was built from.
func (c *Codec) Format() string {
	return c.format
}

// Encode renders a record as one line according to the format
// specification.
//
// It returns a *FormatError when the format references an unrecognized
// placeholder or when the record is missing its username. A title falling
// back to the sentinel is not an error.
func (c *Codec) Encode(record model.ChannelRecord) (string, error) {
	var encodeErr error

	line := placeholderRe.ReplaceAllStringFunc(c.format, func(ph string) string {
		name := strings.Trim(ph, "{}")
		switch name {
		case placeholderUsername:
			if record.Username == "" {
				encodeErr = &FormatError{Format: c.format, Placeholder: name, Reason: "record has no username"}
			}
			return record.Username
		case placeholderParticipants:
			return strconv.Itoa(record.ParticipantsCount)
		case placeholderTitle:
			if record.Title == "" {
				return model.TitleUnknown
			}
			return record.Title
		default:
			if encodeErr == nil {
				encodeErr = &FormatError{Format: c.format, Placeholder: name, Reason: "unknown placeholder"}
			}
			return ph
		}
	})
	if encodeErr != nil {
		return "", encodeErr
	}

	return line, nil
}

// DecodeUsername extracts only the username group from a line.
//
// The second return value is false when the line does not match the format
// or the format has no username placeholder. A miss is a normal outcome,
// not an error; callers should skip the line and continue.
func (c *Codec) DecodeUsername(line string) (string, bool) {
	if c.usernameIdx < 0 {
		return "", false
	}

	m := c.re.FindStringSubmatch(line)
	if m == nil || m[c.usernameIdx] == "" {
		c.logger.Debug("line does not match format", "line", line, "format", c.format)
		return "", false
	}

	return m[c.usernameIdx], true
}

// DecodeRecord parses a full record from a line.
//
// The participants count coerces to 0 on any parse failure and the title
// defaults to the sentinel when empty. A record with an empty username is
// still returned (ok=true) when the line matched; callers decide whether an
// identity-less record is usable. ok=false means the line did not match the
// format at all.
func (c *Codec) DecodeRecord(line string) (model.ChannelRecord, bool) {
	m := c.re.FindStringSubmatch(line)
	if m == nil {
		c.logger.Debug("line does not match format", "line", line, "format", c.format)
		return model.ChannelRecord{}, false
	}

	var record model.ChannelRecord

	if c.usernameIdx >= 0 {
		record.Username = m[c.usernameIdx]
	}

	if c.participantsIdx >= 0 {
		if n, err := strconv.Atoi(m[c.participantsIdx]); err == nil && n >= 0 {
			record.ParticipantsCount = n
		}
	}

	record.Title = model.TitleUnknown
	if c.titleIdx >= 0 && m[c.titleIdx] != "" {
		record.Title = m[c.titleIdx]
	}

	return record, true
}
