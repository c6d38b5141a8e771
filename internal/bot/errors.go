package bot

import (
	"errors"
	"fmt"

	"github.com/edgy1net/trackd/internal/moderation"
	"github.com/edgy1net/trackd/internal/track"
)

// ErrPermission is returned when a non-operator issues a moderation command.
var ErrPermission = errors.New("permission denied")

// ServerDownError reports a target server that is not currently usable.
type ServerDownError struct {
	Server string
	// Connected distinguishes "link down" from "link up but not logged in".
	Connected bool
}

func (e *ServerDownError) Error() string {
	if e.Connected {
		return fmt.Sprintf("not logged into %s", e.Server)
	}
	return fmt.Sprintf("not connected to %s", e.Server)
}

// AdapterError wraps a failed live action against a server.
type AdapterError struct {
	Server string
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("action on %s failed: %v", e.Server, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// replyError surfaces any command error as a single chat line. Every error
// in the taxonomy is recovered here; nothing crashes the process.
func (c *Core) replyError(nick string, err error) {
	var notFound *track.NotFoundError
	var ambiguous *track.AmbiguousError
	var badDuration *moderation.DurationError
	var badFormat *moderation.FormatError
	var down *ServerDownError
	var adapter *AdapterError

	switch {
	case errors.Is(err, ErrPermission):
		c.reply(nick, "Permission denied!")
	case errors.As(err, &notFound):
		c.reply(nick, "Unknown player %q!", notFound.Ref)
	case errors.As(err, &ambiguous):
		c.reply(nick, "Error: %s is on multiple servers (%s) - use %s@server.",
			ambiguous.Name, joinComma(ambiguous.Servers), ambiguous.Name)
	case errors.As(err, &badDuration):
		c.reply(nick, "Error: %s!", badDuration.Error())
	case errors.As(err, &badFormat):
		c.reply(nick, "Invalid duration!")
	case errors.As(err, &down):
		if down.Connected {
			c.reply(nick, "I am not logged into %s!", down.Server)
		} else {
			c.reply(nick, "I am not connected to %s!", down.Server)
		}
	case errors.As(err, &adapter):
		c.reply(nick, "Error: %s could not be reached (%v).", adapter.Server, adapter.Err)
	default:
		c.reply(nick, "Error: %v", err)
	}
}
