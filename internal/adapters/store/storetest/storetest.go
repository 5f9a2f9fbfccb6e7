// Package storetest holds the behavior every ports.RecordStore must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) ports.RecordStore

const (
	tickInterval  = 5 * time.Millisecond
	listenTimeout = 5 * time.Second
)

func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("query returns published records", func(t *testing.T) { testPublishThenQuery(t, newStore) })
	t.Run("query matches unanchored case-insensitive regex", func(t *testing.T) { testQueryRegex(t, newStore) })
	t.Run("query requires every pattern field", func(t *testing.T) { testQueryRequiresAllFields(t, newStore) })
	t.Run("query keeps duplicates", func(t *testing.T) { testQueryKeepsDuplicates(t, newStore) })
	t.Run("query rejects invalid pattern", func(t *testing.T) { testQueryInvalidPattern(t, newStore) })
	t.Run("listen delivers only new records in order", func(t *testing.T) { testListenNewRecordsInOrder(t, newStore) })
	t.Run("listen ends on context cancel", func(t *testing.T) { testListenContextCancel(t, newStore) })
	t.Run("listen rejects invalid directive", func(t *testing.T) { testListenInvalidDirective(t, newStore) })
}

func open(t *testing.T, newStore Factory) ports.RecordStore {
	t.Helper()

	store := newStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func publishAll(t *testing.T, store ports.RecordStore, records ...domain.Record) {
	t.Helper()

	for _, rec := range records {
		require.NoError(t, store.Publish(context.Background(), rec))
	}
}

func testPublishThenQuery(t *testing.T, newStore Factory) {
	store := open(t, newStore)
	publishAll(t, store,
		domain.ConnectRecord("alice"),
		domain.MessageRecord("alice", "hello"),
		domain.ConnectRecord("bob"),
	)

	connects, err := store.Query(context.Background(), domain.ConnectPattern())
	require.NoError(t, err)
	require.Len(t, connects, 2)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string{
		connects[0].Value(domain.FieldUsername),
		connects[1].Value(domain.FieldUsername),
	})

	messages, err := store.Query(context.Background(), domain.MessagePattern())
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Equal(domain.MessageRecord("alice", "hello")))
}

func testQueryRegex(t *testing.T, newStore Factory) {
	store := open(t, newStore)
	publishAll(t, store,
		domain.NewRecord(map[string]string{domain.FieldAction: "CONNECT", domain.FieldUsername: "upper"}),
		domain.NewRecord(map[string]string{domain.FieldAction: "reconnected", domain.FieldUsername: "sub"}),
		domain.LeaveRecord("carol"),
	)

	got, err := store.Query(context.Background(), domain.ConnectPattern())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func testQueryRequiresAllFields(t *testing.T, newStore Factory) {
	store := open(t, newStore)
	publishAll(t, store,
		domain.NewRecord(map[string]string{domain.FieldAction: "connect"}),
		domain.NewRecord(map[string]string{"topic": "weather", "city": "Lyon"}),
	)

	got, err := store.Query(context.Background(), domain.ConnectPattern())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.Query(context.Background(), domain.NewPattern(map[string]string{"city": "^Ly"}))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testQueryKeepsDuplicates(t *testing.T, newStore Factory) {
	store := open(t, newStore)
	publishAll(t, store, domain.ConnectRecord("dave"), domain.ConnectRecord("dave"))

	got, err := store.Query(context.Background(), domain.ConnectPattern())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, domain.Dedupe(got), 1)
}

func testQueryInvalidPattern(t *testing.T, newStore Factory) {
	store := open(t, newStore)

	_, err := store.Query(context.Background(), domain.NewPattern(map[string]string{domain.FieldAction: "(unclosed"}))
	require.ErrorIs(t, err, domain.ErrInvalidPattern)
}

func testListenNewRecordsInOrder(t *testing.T, newStore Factory) {
	store := open(t, newStore)
	publishAll(t, store, domain.ConnectRecord("before"))

	ready := make(chan struct{})
	received := make(chan domain.Record, 16)
	const want = 4

	ctx, cancel := context.WithTimeout(context.Background(), listenTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		readySent := false
		count := 0
		done <- store.Listen(ctx, domain.AnyActionPattern(), ports.ListenOptions{PollInterval: tickInterval}, func(rec domain.Record) domain.Directive {
			if rec.IsEmpty() {
				if !readySent {
					readySent = true
					close(ready)
				}
				return domain.DirectiveContinue
			}
			received <- rec
			count++
			if count == want {
				return domain.DirectiveEndListen
			}
			return domain.DirectiveContinue
		})
	}()

	select {
	case <-ready:
	case <-ctx.Done():
		t.Fatal("listen never reported an idle tick")
	}

	for i := range want {
		publishAll(t, store, domain.MessageRecord("erin", fmt.Sprintf("message %d", i)))
	}
	publishAll(t, store, domain.NewRecord(map[string]string{"topic": "ignored"}))

	require.NoError(t, <-done)
	close(received)

	var got []string
	for rec := range received {
		got = append(got, rec.Value(domain.FieldMessage))
	}
	assert.Equal(t, []string{"message 0", "message 1", "message 2", "message 3"}, got)
}

func testListenContextCancel(t *testing.T, newStore Factory) {
	store := open(t, newStore)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- store.Listen(ctx, domain.AnyActionPattern(), ports.ListenOptions{}, func(domain.Record) domain.Directive {
			return domain.DirectiveContinue
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(listenTimeout):
		t.Fatal("listen ignored context cancellation")
	}
}

func testListenInvalidDirective(t *testing.T, newStore Factory) {
	store := open(t, newStore)

	ctx, cancel := context.WithTimeout(context.Background(), listenTimeout)
	defer cancel()

	err := store.Listen(ctx, domain.AnyActionPattern(), ports.ListenOptions{PollInterval: tickInterval}, func(domain.Record) domain.Directive {
		return domain.Directive(0)
	})
	require.ErrorIs(t, err, domain.ErrInvalidDirective)
}
