// Package memory is an in-process record store with push delivery.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
)

var errClosed = fmt.Errorf("%w: memory store closed", domain.ErrStoreUnavailable)

type Store struct {
	mu      sync.Mutex
	records []domain.Record
	subs    map[uint64]*subscriber
	nextSub uint64
	closed  bool
	done    chan struct{}
}

var _ ports.RecordStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		subs: map[uint64]*subscriber{},
		done: make(chan struct{}),
	}
}

// subscriber buffers matching records without bound so a slow handler
// never blocks publishers or loses records.
type subscriber struct {
	matcher *domain.Matcher
	mu      sync.Mutex
	queue   []domain.Record
	notify  chan struct{}
}

func (s *subscriber) push(rec domain.Record) {
	s.mu.Lock()
	s.queue = append(s.queue, rec)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued := s.queue
	s.queue = nil
	return queued
}

func (s *Store) Publish(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	s.records = append(s.records, rec)
	for _, sub := range s.subs {
		if sub.matcher.Match(rec) {
			sub.push(rec)
		}
	}

	return nil
}

func (s *Store) Query(ctx context.Context, pattern domain.Pattern) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matcher, err := pattern.Compile()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errClosed
	}

	return matcher.Filter(s.records), nil
}

// Listen pushes matching records to handler as they are published. Records
// already queued for this subscription when the handler ends the listen are
// discarded with the subscription.
func (s *Store) Listen(ctx context.Context, pattern domain.Pattern, opts ports.ListenOptions, handler ports.ListenHandler) error {
	matcher, err := pattern.Compile()
	if err != nil {
		return err
	}

	sub, id, err := s.subscribe(matcher)
	if err != nil {
		return err
	}
	defer s.unsubscribe(id)

	var tick <-chan time.Time
	if opts.Timed() {
		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	delivered := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return errClosed
		case <-sub.notify:
			for _, rec := range sub.drain() {
				delivered = true
				if end, err := handler.Deliver(rec); end || err != nil {
					return err
				}
			}
		case <-tick:
			if delivered {
				delivered = false
				continue
			}
			if end, err := handler.Deliver(domain.Record{}); end || err != nil {
				return err
			}
		}
	}
}

func (s *Store) subscribe(matcher *domain.Matcher) (*subscriber, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, 0, errClosed
	}

	s.nextSub++
	sub := &subscriber{matcher: matcher, notify: make(chan struct{}, 1)}
	s.subs[s.nextSub] = sub
	return sub, s.nextSub, nil
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subs, id)
}

// Len reports how many records have been published.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Close ends every active listen with ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)
	return nil
}
