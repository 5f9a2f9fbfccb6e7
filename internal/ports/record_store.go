package ports

import (
	"context"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
)

// ListenHandler is invoked once per delivered record, in delivery order.
// Calls are serialized, one at a time, but may come from goroutines other
// than the one that called Listen. In the timed variant it also runs with
// an empty record on a poll tick that found nothing new.
type ListenHandler func(rec domain.Record) domain.Directive

// Deliver runs the handler and validates its directive. It reports
// whether the listen should end.
func (h ListenHandler) Deliver(rec domain.Record) (bool, error) {
	directive := h(rec)
	if err := domain.CheckDirective(directive); err != nil {
		return true, err
	}

	return directive == domain.DirectiveEndListen, nil
}

type ListenOptions struct {
	// PollInterval selects the timed variant when positive.
	PollInterval time.Duration
}

func (o ListenOptions) Timed() bool {
	return o.PollInterval > 0
}

// RecordStore is the narrow client API of the record store.
//
// Listen blocks until the handler returns domain.DirectiveEndListen, the
// context is done, or the store fails. Only records published after the
// subscription is established are delivered. A handler result that is not
// a valid directive ends the listen with domain.ErrInvalidDirective.
type RecordStore interface {
	Publish(ctx context.Context, rec domain.Record) error
	Query(ctx context.Context, pattern domain.Pattern) ([]domain.Record, error)
	Listen(ctx context.Context, pattern domain.Pattern, opts ListenOptions, handler ListenHandler) error
	Close() error
}
