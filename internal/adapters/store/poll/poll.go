// Package poll turns an append-only record log into a listen loop for
// stores that cannot push.
package poll

import (
	"context"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
)

// DefaultInterval is used when the caller asked for push delivery.
const DefaultInterval = 100 * time.Millisecond

// Fetcher returns the records appended after cursor, in append order,
// together with the cursor of the last one.
type Fetcher func(ctx context.Context, cursor uint64) ([]domain.Record, uint64, error)

// Listen polls fetch from cursor until the handler ends the listen, ctx
// is done, or fetch fails. Idle ticks reach the handler as empty records
// only in the timed variant.
func Listen(ctx context.Context, cursor uint64, fetch Fetcher, matcher *domain.Matcher, opts ports.ListenOptions, handler ports.ListenHandler) error {
	interval := DefaultInterval
	if opts.Timed() {
		interval = opts.PollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		records, next, err := fetch(ctx, cursor)
		if err != nil {
			return err
		}
		cursor = next

		matched := matcher.Filter(records)
		if len(matched) == 0 {
			if !opts.Timed() {
				continue
			}
			if end, err := handler.Deliver(domain.Record{}); end || err != nil {
				return err
			}
			continue
		}

		for _, rec := range matched {
			if end, err := handler.Deliver(rec); end || err != nil {
				return err
			}
		}
	}
}
