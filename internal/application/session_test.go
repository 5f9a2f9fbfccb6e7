package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/bnema/dindex-chat/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, store ports.RecordStore, sink EventSink) *Session {
	t.Helper()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(testNow).Maybe()

	return NewSession(store, SessionConfig{
		Username: "me",
		Listen:   ListenConfig{PollInterval: time.Millisecond},
	}, sink, clock, discardLogger())
}

func TestSessionStartReconcilesAndAnnounces(t *testing.T) {
	store := mocks.NewMockRecordStore(t)
	store.EXPECT().Query(mock.Anything, domain.ConnectPattern()).Return([]domain.Record{
		domain.ConnectRecord("a"),
		domain.ConnectRecord("b"),
		domain.ConnectRecord("b"),
	}, nil).Once()
	store.EXPECT().Query(mock.Anything, domain.LeavePattern()).Return([]domain.Record{
		domain.LeaveRecord("a"),
	}, nil).Once()
	store.EXPECT().Publish(mock.Anything, domain.ConnectRecord("me")).Return(nil).Once()

	session := newTestSession(t, store, nil)
	active, err := session.Start(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "me"}, usernames(active))
	assert.Equal(t, "me", session.Username())
	assert.NotEmpty(t, session.ID())
}

func TestSessionStartFailsWhenQueriesFail(t *testing.T) {
	queryErr := errors.Join(domain.ErrStoreUnavailable, errors.New("dial tcp: refused"))

	t.Run("connect query", func(t *testing.T) {
		store := mocks.NewMockRecordStore(t)
		store.EXPECT().Query(mock.Anything, domain.ConnectPattern()).Return(nil, queryErr).Once()

		_, err := newTestSession(t, store, nil).Start(context.Background())
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "query connect records")
	})

	t.Run("leave query", func(t *testing.T) {
		store := mocks.NewMockRecordStore(t)
		store.EXPECT().Query(mock.Anything, domain.ConnectPattern()).Return(nil, nil).Once()
		store.EXPECT().Query(mock.Anything, domain.LeavePattern()).Return(nil, queryErr).Once()

		_, err := newTestSession(t, store, nil).Start(context.Background())
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "query leave records")
	})
}

func TestSessionStartSurfacesConnectPublishError(t *testing.T) {
	store := mocks.NewMockRecordStore(t)
	publishErr := errors.New("publish rejected")
	store.EXPECT().Query(mock.Anything, mock.Anything).Return(nil, nil).Twice()
	store.EXPECT().Publish(mock.Anything, domain.ConnectRecord("me")).Return(publishErr).Once()

	session := newTestSession(t, store, nil)
	_, err := session.Start(context.Background())

	require.ErrorIs(t, err, publishErr)
	assert.Empty(t, session.ActiveUsers())
}

func TestSessionSay(t *testing.T) {
	store := mocks.NewMockRecordStore(t)
	store.EXPECT().Publish(mock.Anything, domain.MessageRecord("me", "hello there")).Return(nil).Once()

	session := newTestSession(t, store, nil)

	require.NoError(t, session.Say(context.Background(), "hello there"))
	require.ErrorIs(t, session.Say(context.Background(), "   "), domain.ErrEmptyMessage)
}

func TestSessionSaySurfacesPublishError(t *testing.T) {
	store := mocks.NewMockRecordStore(t)
	publishErr := errors.New("broken pipe")
	store.EXPECT().Publish(mock.Anything, mock.Anything).Return(publishErr)

	err := newTestSession(t, store, nil).Say(context.Background(), "hi")
	require.ErrorIs(t, err, publishErr)
}

func TestSessionLeavePublishesBeforeListenLoopReturns(t *testing.T) {
	store := mocks.NewMockRecordStore(t)

	var mu sync.Mutex
	var order []string
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}

	store.EXPECT().Query(mock.Anything, mock.Anything).Return(nil, nil).Twice()
	store.EXPECT().Publish(mock.Anything, domain.ConnectRecord("me")).Return(nil).Once()
	store.EXPECT().Publish(mock.Anything, domain.LeaveRecord("me")).
		RunAndReturn(func(context.Context, domain.Record) error {
			time.Sleep(20 * time.Millisecond)
			record("leave published")
			return nil
		}).Once()

	listening := make(chan struct{})
	store.EXPECT().Listen(mock.Anything, domain.AnyActionPattern(), ports.ListenOptions{PollInterval: time.Millisecond}, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ domain.Pattern, opts ports.ListenOptions, handler ports.ListenHandler) error {
			close(listening)
			ticker := time.NewTicker(opts.PollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if handler(domain.Record{}) == domain.DirectiveEndListen {
						record("listen returned")
						return nil
					}
				}
			}
		}).Once()

	session := newTestSession(t, store, nil)
	_, err := session.Start(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()
	<-listening

	require.NoError(t, session.Leave(context.Background()))
	require.NoError(t, session.Leave(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listen loop did not end after leave")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"leave published", "listen returned"}, order)
	assert.Empty(t, session.ActiveUsers())
}

func TestSessionLeaveStopsListeningEvenWhenPublishFails(t *testing.T) {
	store := mocks.NewMockRecordStore(t)
	publishErr := errors.Join(domain.ErrStoreUnavailable, errors.New("timeout"))
	store.EXPECT().Publish(mock.Anything, domain.LeaveRecord("me")).Return(publishErr).Once()

	session := newTestSession(t, store, nil)

	err := session.Leave(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "publish leave record")

	require.ErrorIs(t, session.Leave(context.Background()), domain.ErrStoreUnavailable)
	require.NoError(t, session.Run(context.Background()))
}
