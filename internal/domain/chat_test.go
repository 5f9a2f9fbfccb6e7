package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   Action
	}{
		{name: "connect", record: ConnectRecord("a"), want: ActionConnect},
		{name: "connect any case", record: NewRecord(map[string]string{"action": "Connect"}), want: ActionConnect},
		{name: "leaving", record: LeaveRecord("a"), want: ActionLeave},
		{name: "leaving substring", record: NewRecord(map[string]string{"action": "user-LEAVING-now"}), want: ActionLeave},
		{name: "message", record: MessageRecord("a", "hi"), want: ActionMessage},
		{name: "unknown action is a message", record: NewRecord(map[string]string{"action": "wave"}), want: ActionMessage},
		{name: "empty record", record: Record{}, want: ActionUnrecognized},
		{name: "missing action", record: NewRecord(map[string]string{"username": "a"}), want: ActionUnrecognized},
		{name: "blank action", record: NewRecord(map[string]string{"action": "  "}), want: ActionUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAction(tt.record))
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "connect", ActionConnect.String())
	assert.Equal(t, "leave", ActionLeave.String())
	assert.Equal(t, "message", ActionMessage.String())
	assert.Equal(t, "unrecognized", ActionUnrecognized.String())
}

func TestDirective(t *testing.T) {
	assert.True(t, DirectiveContinue.Valid())
	assert.True(t, DirectiveEndListen.Valid())
	assert.False(t, Directive(0).Valid())

	assert.NoError(t, CheckDirective(DirectiveContinue))
	require.ErrorIs(t, CheckDirective(Directive(7)), ErrInvalidDirective)

	d, err := ParseDirective("EndListen")
	require.NoError(t, err)
	assert.Equal(t, DirectiveEndListen, d)
	assert.Equal(t, "Continue", DirectiveContinue.String())

	_, err = ParseDirective("Stop")
	require.ErrorIs(t, err, ErrInvalidDirective)
}

func TestChatRecordShapes(t *testing.T) {
	assert.Equal(t, map[string]string{"action": "connect", "username": "a"}, ConnectRecord("a").Fields())
	assert.Equal(t, map[string]string{"action": "leaving", "username": "a"}, LeaveRecord("a").Fields())
	assert.Equal(t, map[string]string{"action": "msg", "username": "a", "message": "m"}, MessageRecord("a", "m").Fields())
}
