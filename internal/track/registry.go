// Package track maintains the configured server set and the players
// currently sighted on each server.
package track

import (
	"sort"
	"strings"
	"time"
)

// Server is one configured game server connection. Servers are created at
// startup and never destroyed while the process runs; they only flip between
// up and down as the underlying link connects and drops.
type Server struct {
	Name     string
	Up       bool
	LoggedIn bool
	LastSeen time.Time
}

// Registry holds the configured servers. Lookups by name are
// case-insensitive; the configured spelling is canonical.
type Registry struct {
	now     func() time.Time
	servers map[string]*Server
	order   []string
}

// NewRegistry creates a registry for the configured server names. A nil
// clock defaults to time.Now.
func NewRegistry(now func() time.Time, names []string) *Registry {
	if now == nil {
		now = time.Now
	}
	r := &Registry{now: now, servers: make(map[string]*Server, len(names))}
	for _, name := range names {
		k := strings.ToLower(name)
		if _, ok := r.servers[k]; ok {
			continue
		}
		r.servers[k] = &Server{Name: name}
		r.order = append(r.order, name)
	}
	return r
}

// Lookup returns the server with the given name, or nil.
func (r *Registry) Lookup(name string) *Server {
	return r.servers[strings.ToLower(name)]
}

// MarkUp records a connect. Logged-in status is reset; the login handshake
// runs again on every connect.
func (r *Registry) MarkUp(name string) {
	if s := r.Lookup(name); s != nil {
		s.Up = true
		s.LoggedIn = false
		s.LastSeen = r.now()
	}
}

// MarkDown records a disconnect.
func (r *Registry) MarkDown(name string) {
	if s := r.Lookup(name); s != nil {
		s.Up = false
		s.LoggedIn = false
	}
}

// MarkLoggedIn records the outcome of the login handshake.
func (r *Registry) MarkLoggedIn(name string, ok bool) {
	if s := r.Lookup(name); s != nil {
		s.LoggedIn = ok
		s.LastSeen = r.now()
	}
}

// Touch updates the last-seen timestamp for a server.
func (r *Registry) Touch(name string) {
	if s := r.Lookup(name); s != nil {
		s.LastSeen = r.now()
	}
}

// IsUp reports whether the server is currently connected.
func (r *Registry) IsUp(name string) bool {
	s := r.Lookup(name)
	return s != nil && s.Up
}

// Usable reports whether moderation actions can currently reach the server.
func (r *Registry) Usable(name string) bool {
	s := r.Lookup(name)
	return s != nil && s.Up && s.LoggedIn
}

// UpCount returns how many servers are currently connected.
func (r *Registry) UpCount() int {
	n := 0
	for _, s := range r.servers {
		if s.Up {
			n++
		}
	}
	return n
}

// Names returns the configured server names in configuration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Bad returns the servers that are down or not logged in, sorted
// case-insensitively.
func (r *Registry) Bad() []string {
	var bad []string
	for _, name := range r.order {
		if !r.Usable(name) {
			bad = append(bad, name)
		}
	}
	sort.Slice(bad, func(i, j int) bool {
		return strings.ToLower(bad[i]) < strings.ToLower(bad[j])
	})
	return bad
}
