// Package fanout spreads the record store API over several backends.
// Publishes reach every backend, queries concatenate every backend's
// result, and listens multiplex every backend onto one handler.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
)

type Backend struct {
	Name  string
	Store ports.RecordStore
}

type Store struct {
	backends []Backend
}

var _ ports.RecordStore = (*Store)(nil)

var errNoBackends = errors.New("fanout store needs at least one backend")

func NewStore(backends ...Backend) *Store {
	store, err := NewStoreChecked(backends...)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("backend %d (%s) is nil", i, backend.Name)
		}
	}

	return &Store{backends: append([]Backend(nil), backends...)}, nil
}

func (s *Store) Publish(ctx context.Context, rec domain.Record) error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Store.Publish(ctx, rec); err != nil {
			if shouldAbort(err) {
				return err
			}
			errs = append(errs, fmt.Errorf("%s backend publish failed: %w", backend.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Query asks every backend concurrently. Results keep backend order, so
// a record held by two backends shows up twice.
func (s *Store) Query(ctx context.Context, pattern domain.Pattern) ([]domain.Record, error) {
	if _, err := pattern.Compile(); err != nil {
		return nil, err
	}

	results := make([][]domain.Record, len(s.backends))
	errs := make([]error, len(s.backends))

	var wg sync.WaitGroup
	for i, backend := range s.backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := backend.Store.Query(ctx, pattern)
			if err != nil {
				errs[i] = fmt.Errorf("%s backend query failed: %w", backend.Name, err)
				return
			}
			results[i] = records
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	merged := []domain.Record{}
	for _, records := range results {
		merged = append(merged, records...)
	}

	return merged, nil
}

// Listen runs one listen per backend. Handler calls are serialized and
// the first EndListen or failure ends every listen. Timed idle ticks
// are forwarded from each backend as they come.
func (s *Store) Listen(ctx context.Context, pattern domain.Pattern, opts ports.ListenOptions, handler ports.ListenHandler) error {
	if _, err := pattern.Compile(); err != nil {
		return err
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		ended bool
	)
	serialized := func(rec domain.Record) domain.Directive {
		mu.Lock()
		defer mu.Unlock()

		if ended {
			return domain.DirectiveEndListen
		}

		directive := handler(rec)
		if directive != domain.DirectiveContinue {
			ended = true
			cancel()
		}
		return directive
	}

	errs := make([]error, len(s.backends))
	var wg sync.WaitGroup
	for i, backend := range s.backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := backend.Store.Listen(ctx, pattern, opts, serialized)
			if err != nil {
				errs[i] = fmt.Errorf("%s backend listen failed: %w", backend.Name, err)
			}
			cancel()
		}()
	}
	wg.Wait()

	mu.Lock()
	handlerEnded := ended
	mu.Unlock()

	var failures []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			continue
		}
		failures = append(failures, err)
	}

	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	if !handlerEnded {
		return parent.Err()
	}

	return nil
}

func (s *Store) Close() error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s backend close failed: %w", backend.Name, err))
		}
	}

	return errors.Join(errs...)
}

func shouldAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
