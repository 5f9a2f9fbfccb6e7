package domain

import "strings"

// Action is the closed set of record kinds the chat protocol knows about.
type Action int

const (
	ActionUnrecognized Action = iota
	ActionConnect
	ActionLeave
	ActionMessage
)

const (
	actionConnect = "connect"
	actionLeaving = "leaving"
	actionMessage = "msg"
)

// ParseAction classifies rec by a case-insensitive substring search of its
// action field. "connect" is checked before "leaving"; any other non-empty
// action is a message.
func ParseAction(rec Record) Action {
	raw, ok := rec.Get(FieldAction)
	if !ok || strings.TrimSpace(raw) == "" {
		return ActionUnrecognized
	}

	action := strings.ToLower(raw)
	switch {
	case strings.Contains(action, actionConnect):
		return ActionConnect
	case strings.Contains(action, actionLeaving):
		return ActionLeave
	default:
		return ActionMessage
	}
}

func (a Action) String() string {
	switch a {
	case ActionConnect:
		return "connect"
	case ActionLeave:
		return "leave"
	case ActionMessage:
		return "message"
	default:
		return "unrecognized"
	}
}
