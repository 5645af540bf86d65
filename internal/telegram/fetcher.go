package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chanscout/chanscout/internal/model"
)

// floodWaitPadding is added to every server-mandated flood wait.
// The server value is a lower bound; the extra second keeps us clear of it.
const floodWaitPadding = 1 * time.Second

// Fetcher wraps one recommendation call over a Client and normalizes the
// response into ChannelRecords.
//
// Every failure mode is non-fatal and absorbing: Fetch never returns an
// error, it degrades to zero results with a diagnostic. The orchestrator
// above it only ever observes "this call produced N records".
type Fetcher struct {
	// client is the shared transport handle.
	client Client

	// logger records the absorbed failures.
	logger *slog.Logger

	// sleep waits out flood-wait signals. Overridable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets a custom logger for the fetcher.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher over the given transport handle.
func NewFetcher(client Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: client,
		sleep:  ctxSleep,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// ctxSleep waits for d or until the context is cancelled.
func ctxSleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Fetch returns the similar channels recommended for one channel
// identifier. The identifier may carry a leading "@"; it is normalized
// away before the RPC.
//
// Exactly one RPC is issued per call. On a flood-wait signal the fetcher
// sleeps for the server duration plus padding and returns an empty slice;
// it does not retry the same call. All other failures degrade to an empty
// slice immediately.
func (f *Fetcher) Fetch(ctx context.Context, channel string) []model.ChannelRecord {
	peer := strings.TrimPrefix(strings.TrimSpace(channel), "@")

	f.logger.Info("fetching similar channels", "channel", peer)

	list, err := f.client.ChannelRecommendations(ctx, peer)
	switch {
	case err == nil:
		// fall through to entry normalization
	case errors.Is(err, ErrInvalidPeer):
		f.logger.Error("invalid channel identifier", "channel", peer, "error", err)
		return nil
	case errors.Is(err, ErrPrivateChannel):
		f.logger.Warn("cannot access recommendations", "channel", peer, "error", err)
		return nil
	default:
		var floodWait *FloodWaitError
		if errors.As(err, &floodWait) {
			wait := time.Duration(floodWait.Seconds)*time.Second + floodWaitPadding
			f.logger.Warn("flood wait signaled", "channel", peer, "wait", wait)
			f.sleep(ctx, wait)
			return nil
		}
		f.logger.Error("recommendation request failed", "channel", peer, "error", err)
		return nil
	}

	records := make([]model.ChannelRecord, 0, len(list.Chats))
	for _, chat := range list.Chats {
		record, ok := normalize(chat)
		if !ok {
			f.logger.Warn("skipping entry that is not a full channel",
				"channel", peer,
				"kind", chat.Kind,
				"title", chat.Title,
			)
			continue
		}
		records = append(records, record)
	}

	if list.Count > len(records) {
		// The platform may withhold part of the list behind a premium
		// entitlement; informational only, not a failure.
		f.logger.Info("partial recommendation list",
			"channel", peer,
			"returned", len(records),
			"total", list.Count,
		)
	}

	f.logger.Info("parsed similar channels",
		"channel", peer,
		"found", len(records),
	)

	return records
}

// normalize converts a raw entry into a ChannelRecord.
// Entries that are not genuine channels (wrong kind, missing username,
// missing subscriber count, missing title) are rejected.
func normalize(chat Chat) (model.ChannelRecord, bool) {
	if chat.Kind != ChatKindChannel {
		return model.ChannelRecord{}, false
	}
	if chat.Username == "" || chat.Title == "" || chat.ParticipantsCount == nil {
		return model.ChannelRecord{}, false
	}

	count := *chat.ParticipantsCount
	if count < 0 {
		count = 0
	}

	return model.ChannelRecord{
		Username:          chat.Username,
		ParticipantsCount: count,
		Title:             chat.Title,
	}, true
}
