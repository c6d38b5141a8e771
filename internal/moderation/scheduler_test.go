package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(server, player string, kind Kind, expiry time.Time) *Entry {
	return &Entry{Server: server, Player: player, Kind: kind, Expiry: expiry}
}

func TestSchedulerPopsInFireOrder(t *testing.T) {
	s := NewScheduler()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	late := entryAt("S1", "carol", KindTempmute, base.Add(3*time.Hour))
	early := entryAt("S1", "alice", KindTempmute, base.Add(time.Minute))
	mid := entryAt("S2", "bob", KindTempban, base.Add(time.Hour))
	s.Schedule(late, late.Expiry)
	s.Schedule(early, early.Expiry)
	s.Schedule(mid, mid.Expiry)

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, early.Expiry, next)

	due := s.PopDue(base.Add(2 * time.Hour))
	require.Len(t, due, 2)
	assert.Same(t, early, due[0])
	assert.Same(t, mid, due[1])
	assert.Equal(t, 1, s.Len())
}

func TestSchedulerReplacesSameSlot(t *testing.T) {
	s := NewScheduler()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first := entryAt("S1", "alice", KindTempmute, base.Add(time.Minute))
	second := entryAt("S1", "alice", KindTempmute, base.Add(time.Hour))
	s.Schedule(first, first.Expiry)
	s.Schedule(second, second.Expiry)

	assert.Equal(t, 1, s.Len())
	due := s.PopDue(base.Add(2 * time.Hour))
	require.Len(t, due, 1)
	assert.Same(t, second, due[0])
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	e := entryAt("S1", "alice", KindTempmute, base.Add(time.Minute))
	s.Schedule(e, e.Expiry)
	s.Cancel(e)

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.PopDue(base.Add(time.Hour)))

	// Cancelling again is a no-op.
	s.Cancel(e)
}

func TestSchedulerNextEmpty(t *testing.T) {
	s := NewScheduler()
	_, ok := s.Next()
	assert.False(t, ok)
}

func TestSchedulerMuteAndBanSlotsAreIndependent(t *testing.T) {
	s := NewScheduler()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mute := entryAt("S1", "alice", KindTempmute, base.Add(time.Minute))
	ban := entryAt("S1", "alice", KindTempban, base.Add(time.Hour))
	s.Schedule(mute, mute.Expiry)
	s.Schedule(ban, ban.Expiry)

	assert.Equal(t, 2, s.Len())
}
