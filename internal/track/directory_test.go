package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClock() func() time.Time {
	t := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestRecordJoinIsIdempotent(t *testing.T) {
	d := NewDirectory(testClock(), 2)

	first := d.RecordJoin("S1", "alice")
	first.Warnings = 1
	again := d.RecordJoin("S1", "alice")

	assert.Same(t, first, again, "rejoin without part keeps the sighting")
	assert.Equal(t, 1, again.Warnings, "warning count survives a rejoin")
	assert.Equal(t, []string{"alice"}, d.Players("S1"))
}

func TestRecordPartIsNoOpWhenAbsent(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordPart("S1", "ghost")
	assert.Empty(t, d.Players("S1"))
}

func TestRecordServerDownInvalidatesAllSightings(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordJoin("S1", "alice")
	d.RecordJoin("S1", "bob")
	d.RecordJoin("S2", "alice")

	d.RecordServerDown("S1")

	assert.Empty(t, d.Players("S1"))
	assert.Equal(t, []string{"alice"}, d.Players("S2"))
}

func TestSyncRoster(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordJoin("S1", "alice")
	d.RecordJoin("S1", "bob")

	added, removed := d.SyncRoster("S1", []string{"alice", "carol"})

	assert.Equal(t, []string{"carol"}, added)
	assert.Equal(t, []string{"bob"}, removed)
	assert.Equal(t, []string{"alice", "carol"}, d.Players("S1"))
}

func TestResolveSingleMatch(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordJoin("S1", "alice")

	s, err := d.Resolve("alice")
	require.NoError(t, err)
	assert.Equal(t, "S1", s.Server)
	assert.Equal(t, "alice", s.Name)
}

func TestResolveNotFound(t *testing.T) {
	d := NewDirectory(testClock(), 2)

	_, err := d.Resolve("nobody")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nobody", notFound.Ref)
}

func TestResolveAmbiguous(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordJoin("S2", "bob")
	d.RecordJoin("S1", "bob")

	_, err := d.Resolve("bob")
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"S1", "S2"}, ambiguous.Servers)
}

func TestResolveQualifiedSkipsAmbiguityLogic(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordJoin("S1", "bob")
	d.RecordJoin("S2", "bob")

	s, err := d.Resolve("bob@S2")
	require.NoError(t, err)
	assert.Equal(t, "S2", s.Server)

	_, err = d.Resolve("bob@S3")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolveIsCaseSensitiveOnNames(t *testing.T) {
	d := NewDirectory(testClock(), 2)
	d.RecordJoin("S1", "Alice")

	_, err := d.Resolve("alice")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
