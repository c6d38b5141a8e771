package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(clock.Now), clock
}

func TestApplyTempSetsExpiry(t *testing.T) {
	s, clock := newTestStore()

	e, err := s.ApplyTemp("S1", "alice", KindTempmute, 10*time.Minute, 2*time.Hour, "")
	require.NoError(t, err)
	assert.Equal(t, clock.t, e.IssuedAt)
	assert.Equal(t, clock.t.Add(10*time.Minute), e.Expiry)
	assert.False(t, e.Permanent())
	assert.Equal(t, 1, s.Len())
}

func TestApplyTempRejectsBadDurations(t *testing.T) {
	s, _ := newTestStore()

	for _, d := range []time.Duration{0, -time.Minute, 2*time.Hour + time.Second} {
		_, err := s.ApplyTemp("S1", "alice", KindTempmute, d, 2*time.Hour, "")
		var durErr *DurationError
		require.ErrorAs(t, err, &durErr)
	}
	assert.Equal(t, 0, s.Len(), "failed applies must not mutate state")
}

func TestApplyTempReplacesNotStacks(t *testing.T) {
	s, clock := newTestStore()

	_, err := s.ApplyTemp("S1", "alice", KindTempmute, 10*time.Minute, 2*time.Hour, "")
	require.NoError(t, err)
	second, err := s.ApplyTemp("S1", "alice", KindTempmute, time.Hour, 2*time.Hour, "")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	assert.Same(t, second, s.Get("S1", "alice", ClassMute))
	assert.Equal(t, clock.t.Add(time.Hour), s.Get("S1", "alice", ClassMute).Expiry)
}

func TestMuteAndBanClassesCoexist(t *testing.T) {
	s, _ := newTestStore()

	s.ApplyMute("S1", "alice")
	_, err := s.ApplyTemp("S1", "alice", KindTempban, time.Hour, 30*24*time.Hour, "spam")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.IsRestricted("S1", "alice", ClassMute))
	assert.True(t, s.IsRestricted("S1", "alice", ClassBan))
}

func TestPermanentMuteNeverExpires(t *testing.T) {
	s, clock := newTestStore()

	e := s.ApplyMute("S1", "alice")
	assert.True(t, e.Permanent())

	clock.Advance(1000 * time.Hour)
	assert.True(t, s.IsRestricted("S1", "alice", ClassMute))
}

func TestIsRestrictedHonorsExpiry(t *testing.T) {
	s, clock := newTestStore()

	_, err := s.ApplyTemp("S1", "alice", KindTempmute, 10*time.Minute, 2*time.Hour, "")
	require.NoError(t, err)

	assert.True(t, s.IsRestricted("S1", "alice", ClassMute))
	clock.Advance(11 * time.Minute)
	assert.False(t, s.IsRestricted("S1", "alice", ClassMute))
}

func TestUnmuteIsIdempotent(t *testing.T) {
	s, _ := newTestStore()

	s.ApplyMute("S1", "alice")
	assert.NotNil(t, s.Unmute("S1", "alice"))
	assert.Nil(t, s.Unmute("S1", "alice"))
	assert.Equal(t, 0, s.Len())
}

func TestRemoveGuardsAgainstReplacedEntries(t *testing.T) {
	s, _ := newTestStore()

	old, err := s.ApplyTemp("S1", "alice", KindTempmute, 10*time.Minute, 2*time.Hour, "")
	require.NoError(t, err)
	replacement, err := s.ApplyTemp("S1", "alice", KindTempmute, time.Hour, 2*time.Hour, "")
	require.NoError(t, err)

	// A stale expiry for the replaced entry must not delete the replacement.
	assert.False(t, s.Remove(old))
	assert.Same(t, replacement, s.Get("S1", "alice", ClassMute))
	assert.True(t, s.Remove(replacement))
}

func TestDropServerRemovesOnlyThatServer(t *testing.T) {
	s, _ := newTestStore()

	s.ApplyMute("S1", "alice")
	s.ApplyMute("S2", "alice")
	dropped := s.DropServer("S1")

	assert.Len(t, dropped, 1)
	assert.Nil(t, s.Get("S1", "alice", ClassMute))
	assert.NotNil(t, s.Get("S2", "alice", ClassMute))
}
