// Package moderation tracks active restrictions per (server, player) and the
// pending expirations of the timed ones.
package moderation

import "time"

// Kind identifies a restriction kind.
type Kind string

const (
	KindMute     Kind = "mute"
	KindTempmute Kind = "tempmute"
	KindTempban  Kind = "tempban"
)

// Class groups kinds that mutually exclude each other per (server, player).
// A new tempmute replaces an existing mute-class entry rather than stacking.
type Class int

const (
	ClassMute Class = iota
	ClassBan
)

// Class returns the class a kind belongs to.
func (k Kind) Class() Class {
	if k == KindTempban {
		return ClassBan
	}
	return ClassMute
}

func (c Class) String() string {
	if c == ClassBan {
		return "ban"
	}
	return "mute"
}

// Entry is one active restriction.
type Entry struct {
	Server   string
	Player   string
	Kind     Kind
	IssuedAt time.Time
	// Expiry is the zero time for permanent entries.
	Expiry time.Time
	Reason string
}

// Permanent reports whether the entry never expires on its own.
func (e *Entry) Permanent() bool { return e.Expiry.IsZero() }

type key struct {
	server string
	player string
	class  Class
}

func (e *Entry) storeKey() key {
	return key{server: e.Server, player: e.Player, class: e.Kind.Class()}
}
