package moderation

import "time"

// Store holds the active moderation entries. At most one mute-class and one
// ban-class entry exists per (server, player); applying a new entry of the
// same class replaces the old one. The store is not safe for concurrent use;
// all mutations are serialized by the owning core loop.
type Store struct {
	now     func() time.Time
	entries map[key]*Entry
}

// NewStore creates an empty store. A nil clock defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, entries: make(map[key]*Entry)}
}

// ApplyMute creates or replaces a permanent mute-class entry. Permanent
// entries carry no expiry and never reach the scheduler.
func (s *Store) ApplyMute(server, player string) *Entry {
	e := &Entry{
		Server:   server,
		Player:   player,
		Kind:     KindMute,
		IssuedAt: s.now(),
	}
	s.entries[e.storeKey()] = e
	return e
}

// ApplyTemp creates or replaces a timed entry of the given kind. The duration
// must be positive and within the ceiling; otherwise no state is mutated and
// a DurationError is returned.
func (s *Store) ApplyTemp(server, player string, kind Kind, d, ceiling time.Duration, reason string) (*Entry, error) {
	if err := CheckDuration(d, ceiling); err != nil {
		return nil, err
	}
	now := s.now()
	e := &Entry{
		Server:   server,
		Player:   player,
		Kind:     kind,
		IssuedAt: now,
		Expiry:   now.Add(d),
		Reason:   reason,
	}
	s.entries[e.storeKey()] = e
	return e, nil
}

// Unmute deletes the mute-class entry for (server, player) if present and
// returns it. Idempotent.
func (s *Store) Unmute(server, player string) *Entry {
	return s.remove(key{server: server, player: player, class: ClassMute})
}

// Unban deletes the ban-class entry for (server, player) if present and
// returns it. Idempotent.
func (s *Store) Unban(server, player string) *Entry {
	return s.remove(key{server: server, player: player, class: ClassBan})
}

func (s *Store) remove(k key) *Entry {
	e := s.entries[k]
	delete(s.entries, k)
	return e
}

// Remove deletes the given entry, but only if it is still the active one for
// its slot. A replaced entry whose expiry fires late must not delete its
// replacement.
func (s *Store) Remove(e *Entry) bool {
	k := e.storeKey()
	if s.entries[k] != e {
		return false
	}
	delete(s.entries, k)
	return true
}

// Get returns the active entry of the given class, or nil.
func (s *Store) Get(server, player string, class Class) *Entry {
	return s.entries[key{server: server, player: player, class: class}]
}

// IsRestricted reports whether (server, player) has an active entry of the
// given class at the current time. Used on the chat relay path to suppress
// muted players.
func (s *Store) IsRestricted(server, player string, class Class) bool {
	e := s.Get(server, player, class)
	if e == nil {
		return false
	}
	return e.Permanent() || s.now().Before(e.Expiry)
}

// DropServer removes every entry for a server and returns them. This is for
// servers removed from configuration, not for transient disconnects: a
// disconnect leaves entries in place so only the live enforcement is lost.
func (s *Store) DropServer(server string) []*Entry {
	var dropped []*Entry
	for k, e := range s.entries {
		if k.server == server {
			dropped = append(dropped, e)
			delete(s.entries, k)
		}
	}
	return dropped
}

// Len returns the number of active entries.
func (s *Store) Len() int { return len(s.entries) }
