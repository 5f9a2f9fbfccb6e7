package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
)

const DefaultMaxConsecutiveFaults = 3

var (
	ErrListenerRunning = errors.New("listener already running")
	ErrListenerDone    = errors.New("listener already finished")
)

// EventSink receives every non-ignored presence event, on the listen
// goroutine. An error or panic counts as a handler fault.
type EventSink func(Event) error

type ListenConfig struct {
	// PollInterval selects the timed listen variant when positive.
	PollInterval         time.Duration
	MaxConsecutiveFaults int
}

const (
	listenerIdle int32 = iota
	listenerRunning
	listenerDone
)

// ListenController drives one chat subscription and ends it through the
// handler's EndListen directive once Stop has been called.
type ListenController struct {
	store    ports.RecordStore
	presence *Presence
	sink     EventSink
	logger   *slog.Logger
	cfg      ListenConfig

	stop     chan struct{}
	stopOnce sync.Once
	state    atomic.Int32

	// only touched by handle, whose calls are serialized, until Run returns
	faults   int
	faultErr error
}

func NewListenController(store ports.RecordStore, presence *Presence, sink EventSink, cfg ListenConfig, logger *slog.Logger) *ListenController {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConsecutiveFaults <= 0 {
		cfg.MaxConsecutiveFaults = DefaultMaxConsecutiveFaults
	}

	return &ListenController{
		store:    store,
		presence: presence,
		sink:     sink,
		logger:   logger,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}
}

// Stop asks the listen loop to end at the next delivery or poll tick.
func (c *ListenController) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *ListenController) stopped() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// Run blocks until the subscription ends. It can be called once.
func (c *ListenController) Run(ctx context.Context) error {
	if !c.state.CompareAndSwap(listenerIdle, listenerRunning) {
		if c.state.Load() == listenerRunning {
			return ErrListenerRunning
		}
		return ErrListenerDone
	}
	defer c.state.Store(listenerDone)

	if c.stopped() {
		return nil
	}

	opts := ports.ListenOptions{PollInterval: c.cfg.PollInterval}
	c.logger.Debug("listening for chat records", "timed", opts.Timed(), "poll_interval", opts.PollInterval)

	var listenErr error
	if err := c.store.Listen(ctx, domain.AnyActionPattern(), opts, c.handle); err != nil {
		listenErr = fmt.Errorf("listen for chat records: %w", err)
	}

	return errors.Join(listenErr, c.faultErr)
}

func (c *ListenController) handle(rec domain.Record) domain.Directive {
	if c.stopped() {
		c.logger.Debug("stop requested, ending listen")
		return domain.DirectiveEndListen
	}

	event := c.presence.Apply(rec)
	if event.Kind == EventIgnored {
		if event.Err != nil {
			c.logger.Warn("ignoring malformed record", "record", rec.String(), "error", event.Err)
		}
		return domain.DirectiveContinue
	}

	if err := c.deliver(event); err != nil {
		c.faults++
		c.logger.Error("listen handler fault",
			"event", event.Kind.String(),
			"username", event.Username,
			"consecutive_faults", c.faults,
			"error", err,
		)
		if c.faults >= c.cfg.MaxConsecutiveFaults {
			c.faultErr = fmt.Errorf("%w: %d consecutive faults: %w", domain.ErrHandlerFault, c.faults, err)
			return domain.DirectiveEndListen
		}
		return domain.DirectiveContinue
	}

	c.faults = 0
	return domain.DirectiveContinue
}

func (c *ListenController) deliver(event Event) (err error) {
	if c.sink == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event sink panic: %v", r)
		}
	}()

	return c.sink(event)
}
