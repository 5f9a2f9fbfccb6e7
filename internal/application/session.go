package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/google/uuid"
)

type SessionConfig struct {
	Username string
	Listen   ListenConfig
}

// Session is one chat participant: it announces itself, keeps the presence
// view current from the listen stream, and announces its departure.
type Session struct {
	id       string
	username string
	store    ports.RecordStore
	presence *Presence
	listener *ListenController
	logger   *slog.Logger

	leaveOnce sync.Once
	leaveErr  error
}

func NewSession(store ports.RecordStore, cfg SessionConfig, sink EventSink, clock ports.Clock, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("session_id", id, "username", cfg.Username)
	presence := NewPresence(clock)

	return &Session{
		id:       id,
		username: cfg.Username,
		store:    store,
		presence: presence,
		listener: NewListenController(store, presence, sink, cfg.Listen, logger),
		logger:   logger,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Username() string {
	return s.username
}

// Start reconciles the current presence from the store and announces the
// local user. Query and publish failures are returned.
func (s *Session) Start(ctx context.Context) ([]ActiveUser, error) {
	active, err := s.presence.Reconcile(ctx, s.store)
	if err != nil {
		return nil, err
	}
	s.logger.Info("presence initialized", "active_users", len(active))

	connect := domain.ConnectRecord(s.username)
	if err := s.store.Publish(ctx, connect); err != nil {
		return nil, fmt.Errorf("publish connect record: %w", err)
	}
	s.presence.Apply(connect)

	return s.presence.Snapshot(), nil
}

// Run blocks in the listen loop until Leave is called, the handler gives
// up after repeated faults, or the store fails.
func (s *Session) Run(ctx context.Context) error {
	return s.listener.Run(ctx)
}

func (s *Session) Say(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyMessage
	}

	if err := s.store.Publish(ctx, domain.MessageRecord(s.username, text)); err != nil {
		return fmt.Errorf("publish message record: %w", err)
	}

	return nil
}

// Leave publishes the leave record and waits for the store to accept it
// before the listen loop is told to stop. The loop is stopped even when
// the publish fails. Calls after the first return the first result.
func (s *Session) Leave(ctx context.Context) error {
	s.leaveOnce.Do(func() {
		defer s.listener.Stop()

		leave := domain.LeaveRecord(s.username)
		if err := s.store.Publish(ctx, leave); err != nil {
			s.leaveErr = fmt.Errorf("publish leave record: %w", err)
			s.logger.Error("failed to announce departure", "error", err)
			return
		}

		s.presence.Apply(leave)
		s.logger.Info("departure announced")
	})

	return s.leaveErr
}

func (s *Session) ActiveUsers() []ActiveUser {
	return s.presence.Snapshot()
}
