package track

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// NotFoundError reports a player reference that matched nothing.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown player %q", e.Ref)
}

// AmbiguousError reports a bare player name present on more than one server.
// The caller must re-issue the reference as name@server.
type AmbiguousError struct {
	Name    string
	Servers []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q is on multiple servers (%s), use %s@server",
		e.Name, strings.Join(e.Servers, ", "), e.Name)
}

// Sighting is a player currently present on a server. Player names are
// case-sensitive and server-namespaced; the same name may be sighted on any
// number of servers at once.
type Sighting struct {
	Server    string
	Name      string
	FirstSeen time.Time
	LastSeen  time.Time
	// Warnings is the number of warnings left before the automatic tempmute.
	Warnings int
}

// Directory is a derived index of current sightings, name by server. It is
// rebuilt incrementally from join/part/roster events; the registry remains
// authoritative for server state. Not safe for concurrent use.
type Directory struct {
	now           func() time.Time
	warnAllowance int
	servers       map[string]map[string]*Sighting
}

// NewDirectory creates an empty directory. New sightings start with
// warnAllowance warnings. A nil clock defaults to time.Now.
func NewDirectory(now func() time.Time, warnAllowance int) *Directory {
	if now == nil {
		now = time.Now
	}
	return &Directory{
		now:           now,
		warnAllowance: warnAllowance,
		servers:       make(map[string]map[string]*Sighting),
	}
}

// RecordJoin adds a sighting. Rejoining without a prior part keeps the
// existing sighting (and its warning count) and only refreshes last-seen.
func (d *Directory) RecordJoin(server, name string) *Sighting {
	players := d.servers[server]
	if players == nil {
		players = make(map[string]*Sighting)
		d.servers[server] = players
	}
	now := d.now()
	if s := players[name]; s != nil {
		s.LastSeen = now
		return s
	}
	s := &Sighting{
		Server:    server,
		Name:      name,
		FirstSeen: now,
		LastSeen:  now,
		Warnings:  d.warnAllowance,
	}
	players[name] = s
	return s
}

// RecordPart removes a sighting. No-op if absent.
func (d *Directory) RecordPart(server, name string) {
	delete(d.servers[server], name)
}

// RecordServerDown removes all sightings for a server.
func (d *Directory) RecordServerDown(server string) {
	delete(d.servers, server)
}

// SyncRoster reconciles a server's sightings to a full roster line, adding
// missing players and dropping absent ones. Returns what changed.
func (d *Directory) SyncRoster(server string, names []string) (added, removed []string) {
	current := lo.Keys(d.servers[server])
	added, removed = lo.Difference(names, current)
	for _, name := range added {
		d.RecordJoin(server, name)
	}
	for _, name := range removed {
		d.RecordPart(server, name)
	}
	return added, removed
}

// Lookup returns the sighting for an exact (server, name) pair, or nil.
func (d *Directory) Lookup(server, name string) *Sighting {
	return d.servers[server][name]
}

// Players returns the sorted player names sighted on a server.
func (d *Directory) Players(server string) []string {
	names := lo.Keys(d.servers[server])
	sort.Strings(names)
	return names
}

// Resolve maps a player reference to a single sighting. A name@server
// reference looks up that exact pair and never triggers ambiguity logic. A
// bare name succeeds only when exactly one server has it: zero matches is a
// NotFoundError, two or more an AmbiguousError.
func (d *Directory) Resolve(ref string) (*Sighting, error) {
	if name, server, ok := strings.Cut(ref, "@"); ok {
		if s := d.Lookup(server, name); s != nil {
			return s, nil
		}
		return nil, &NotFoundError{Ref: ref}
	}

	var found *Sighting
	var matches []string
	for server, players := range d.servers {
		if s := players[ref]; s != nil {
			found = s
			matches = append(matches, server)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Ref: ref}
	case 1:
		return found, nil
	default:
		sort.Strings(matches)
		return nil, &AmbiguousError{Name: ref, Servers: matches}
	}
}
