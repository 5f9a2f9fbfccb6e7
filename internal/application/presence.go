package application

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
)

type ActiveUser struct {
	Username string
	Record   domain.Record
	Since    time.Time
}

type EventKind int

const (
	EventIgnored EventKind = iota
	EventUserJoined
	EventUserLeft
	EventMessageReceived
)

func (k EventKind) String() string {
	switch k {
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventMessageReceived:
		return "message_received"
	default:
		return "ignored"
	}
}

// Event is the outcome of applying one record to the presence state.
type Event struct {
	Kind     EventKind
	Username string
	Message  string
	Record   domain.Record
	// Changed is true when the active set was mutated.
	Changed bool
	At      time.Time
	// Err is set when the record was ignored for being malformed.
	Err error
}

// Presence is the set of currently active users, keyed by username. It is
// safe for concurrent use; Apply must still be called in delivery order.
type Presence struct {
	mu     sync.RWMutex
	active map[string]ActiveUser
	clock  ports.Clock
}

func NewPresence(clock ports.Clock) *Presence {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Presence{
		active: map[string]ActiveUser{},
		clock:  clock,
	}
}

// Initialize replaces the active set with every connect record that has no
// leave record for the same username. Both inputs are deduplicated first.
// When distinct connect records share a username the first one wins.
func (p *Presence) Initialize(connects, leaves []domain.Record) map[string]ActiveUser {
	left := make(map[string]struct{}, len(leaves))
	for _, rec := range domain.Dedupe(leaves) {
		if username := rec.Value(domain.FieldUsername); username != "" {
			left[username] = struct{}{}
		}
	}

	now := p.clock.Now()
	active := make(map[string]ActiveUser)
	for _, rec := range domain.Dedupe(connects) {
		username := rec.Value(domain.FieldUsername)
		if username == "" {
			continue
		}
		if _, gone := left[username]; gone {
			continue
		}
		if _, seen := active[username]; seen {
			continue
		}

		active[username] = ActiveUser{Username: username, Record: rec, Since: now}
	}

	p.mu.Lock()
	p.active = active
	p.mu.Unlock()

	return maps.Clone(active)
}

// Reconcile queries every connect and leave record and initializes the
// active set from them.
func (p *Presence) Reconcile(ctx context.Context, store ports.RecordStore) (map[string]ActiveUser, error) {
	connects, err := store.Query(ctx, domain.ConnectPattern())
	if err != nil {
		return nil, fmt.Errorf("query connect records: %w", err)
	}

	leaves, err := store.Query(ctx, domain.LeavePattern())
	if err != nil {
		return nil, fmt.Errorf("query leave records: %w", err)
	}

	return p.Initialize(connects, leaves), nil
}

// Apply folds one newly observed record into the active set.
func (p *Presence) Apply(rec domain.Record) Event {
	event := Event{Kind: EventIgnored, Record: rec, At: p.clock.Now()}

	action := domain.ParseAction(rec)
	if action == domain.ActionUnrecognized {
		return event
	}

	username := rec.Value(domain.FieldUsername)
	if username == "" {
		event.Err = fmt.Errorf("%w: %s record without %s", domain.ErrMalformedRecord, action, domain.FieldUsername)
		return event
	}
	event.Username = username

	switch action {
	case domain.ActionConnect:
		event.Kind = EventUserJoined
		event.Changed = p.join(username, rec, event.At)
	case domain.ActionLeave:
		event.Kind = EventUserLeft
		event.Changed = p.leave(username)
	case domain.ActionMessage:
		event.Kind = EventMessageReceived
		event.Message = rec.Value(domain.FieldMessage)
	}

	return event
}

func (p *Presence) join(username string, rec domain.Record, at time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.active[username]
	if ok && current.Record.Equal(rec) {
		return false
	}

	since := at
	if ok {
		since = current.Since
	}
	p.active[username] = ActiveUser{Username: username, Record: rec, Since: since}
	return true
}

func (p *Presence) leave(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.active[username]; !ok {
		return false
	}

	delete(p.active, username)
	return true
}

// Snapshot returns a copy of the active set sorted by username.
func (p *Presence) Snapshot() []ActiveUser {
	p.mu.RLock()
	users := slices.Collect(maps.Values(p.active))
	p.mu.RUnlock()

	slices.SortFunc(users, func(a, b ActiveUser) int {
		return strings.Compare(a.Username, b.Username)
	})

	return users
}

func (p *Presence) IsActive(username string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.active[username]
	return ok
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.active)
}
