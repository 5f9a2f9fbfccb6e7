package presence

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bnema/dindex-chat/internal/application"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderActiveUsers(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]application.ActiveUser{
		{Username: "alice", Record: domain.ConnectRecord("alice"), Since: now.Add(-90 * time.Minute)},
		{Username: "bob", Record: domain.ConnectRecord("bob"), Since: now.Add(-12 * time.Minute)},
		{Username: "me", Record: domain.ConnectRecord("me"), Since: now},
	}, RenderOptions{Now: now, Self: "me"})

	require.NoError(t, err)
	assert.Contains(t, output, "Active users")
	assert.Contains(t, output, "users: 3")
	assert.Contains(t, output, "alice")
	assert.Contains(t, output, "here for 1h30m")
	assert.Contains(t, output, "here for 12m")
	assert.Contains(t, output, "me (you)")
	assert.Contains(t, output, "here just now")
}

func TestRenderPinsSelfThenLongestPresent(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]application.ActiveUser{
		{Username: "alice", Since: now.Add(-5 * time.Minute)},
		{Username: "bob", Since: now.Add(-2 * time.Hour)},
		{Username: "dave"},
		{Username: "me", Since: now},
	}, RenderOptions{Now: now, Self: "me"})
	require.NoError(t, err)

	order := []string{"me (you)", "bob", "alice", "dave"}
	last := -1
	for _, name := range order {
		idx := strings.Index(output, name)
		require.GreaterOrEqual(t, idx, 0, name)
		assert.Greater(t, idx, last, name)
		last = idx
	}
}

func TestRosterOrderKeepsInput(t *testing.T) {
	users := []application.ActiveUser{{Username: "b"}, {Username: "a"}}

	ordered := rosterOrder(users, "")

	assert.Equal(t, "a", ordered[0].Username)
	assert.Equal(t, "b", users[0].Username)
}

func TestRenderNoActiveUsers(t *testing.T) {
	output, err := Render(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "users: 0")
	assert.Contains(t, output, "Nobody is connected.")
}

func TestRenderWithoutClockOmitsDurations(t *testing.T) {
	output, err := Render([]application.ActiveUser{{Username: "carol"}}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "carol")
	assert.NotContains(t, output, "here")
}

func TestRenderEvent(t *testing.T) {
	tests := []struct {
		name  string
		event application.Event
		want  string
	}{
		{
			name:  "join",
			event: application.Event{Kind: application.EventUserJoined, Username: "alice", Changed: true},
			want:  "→ alice joined",
		},
		{
			name:  "repeated join is silent",
			event: application.Event{Kind: application.EventUserJoined, Username: "alice"},
		},
		{
			name:  "leave",
			event: application.Event{Kind: application.EventUserLeft, Username: "bob", Changed: true},
			want:  "← bob left",
		},
		{
			name:  "leave of unknown user is silent",
			event: application.Event{Kind: application.EventUserLeft, Username: "bob"},
		},
		{
			name:  "message",
			event: application.Event{Kind: application.EventMessageReceived, Username: "carol", Message: "hi all"},
			want:  "carol: hi all",
		},
		{
			name:  "ignored",
			event: application.Event{Kind: application.EventIgnored, Err: domain.ErrMalformedRecord},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderEvent(tt.event, RenderOptions{Self: "me"}))
		})
	}
}

func TestRenderError(t *testing.T) {
	assert.Equal(t, "! store unavailable", RenderError(errors.New("store unavailable")))
}
