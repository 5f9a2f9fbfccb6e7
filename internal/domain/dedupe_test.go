package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeEmpty(t *testing.T) {
	got := Dedupe(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDedupeWithoutDuplicatesKeepsOrder(t *testing.T) {
	in := []Record{ConnectRecord("c"), ConnectRecord("a"), LeaveRecord("b")}

	got := Dedupe(in)

	require.Len(t, got, 3)
	for i := range in {
		assert.True(t, in[i].Equal(got[i]))
	}
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	a := NewRecord(map[string]string{"a": "a"})
	b := NewRecord(map[string]string{"b": "b"})
	aAgain := NewRecord(map[string]string{"a": "a"})

	got := Dedupe([]Record{a, b, aAgain, b})

	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(a))
	assert.True(t, got[1].Equal(b))
}

func TestDedupeIsStructural(t *testing.T) {
	first := NewRecord(map[string]string{"action": "connect", "username": "alice"})
	second := NewRecord(map[string]string{"username": "alice", "action": "connect"})
	different := NewRecord(map[string]string{"username": "alice", "action": "connect", "host": "x"})

	got := Dedupe([]Record{first, second, different})

	assert.Len(t, got, 2)
}

func TestDedupeIsIdempotent(t *testing.T) {
	in := []Record{
		ConnectRecord("a"), MessageRecord("a", "hi"), ConnectRecord("a"),
		{}, LeaveRecord("a"), {}, MessageRecord("a", "hi"),
	}

	once := Dedupe(in)
	twice := Dedupe(once)

	require.Len(t, once, 4)
	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Equal(twice[i]))
	}

	for i := range once {
		for j := i + 1; j < len(once); j++ {
			assert.False(t, once[i].Equal(once[j]), "records %d and %d are equal", i, j)
		}
	}
}
