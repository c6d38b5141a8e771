package irc

import (
	"crypto/sha512"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/edgy1net/trackd/internal/config"
	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
)

// ServerHandler receives tracked events from a server bridge link.
type ServerHandler interface {
	HandlePlayerJoin(server, name string)
	HandlePlayerPart(server, name string)
	HandlePlayerChat(server, name, text string)
	HandleRoster(server string, names []string)
	HandleServerUp(server string)
	HandleServerDown(server string)
	HandleLogin(server string, ok bool)
}

// ServerLink is the connection to one game server's IRC-style bridge. It
// feeds join/part/chat/roster events into the core and doubles as the
// server's moderation action adapter.
type ServerLink struct {
	conn    *ircevent.Connection
	handler ServerHandler

	name   string
	addr   string
	bridge string
	nick   string
	secret string
}

// NewServerLink creates the link for one configured server.
func NewServerLink(cfg *config.Config, sc config.ServerConfig, handler ServerHandler) *ServerLink {
	l := &ServerLink{
		handler: handler,
		name:    sc.Name,
		addr:    sc.Addr,
		bridge:  sc.Channel,
		nick:    cfg.Nick,
		secret:  cfg.Secret,
	}

	conn := &ircevent.Connection{
		Server:        fmt.Sprintf("%s:%d", sc.Addr, sc.Port),
		Nick:          cfg.Nick,
		User:          cfg.Username,
		RealName:      cfg.IRCName,
		QuitMessage:   "Shutting down",
		UseTLS:        sc.TLS,
		TLSConfig:     &tls.Config{InsecureSkipVerify: true},
		ReconnectFreq: time.Minute,
	}
	l.conn = conn

	conn.AddConnectCallback(l.onConnect)
	conn.AddDisconnectCallback(l.onDisconnect)
	conn.AddCallback("PRIVMSG", l.onPrivMsg)
	return l
}

// Name returns the configured server identity.
func (l *ServerLink) Name() string { return l.name }

// Connect initiates the bridge connection.
func (l *ServerLink) Connect() error { return l.conn.Connect() }

// Loop runs the link's event loop (blocking, reconnects on failure).
func (l *ServerLink) Loop() { l.conn.Loop() }

// Quit disconnects the link.
func (l *ServerLink) Quit() { l.conn.Quit() }

func (l *ServerLink) onConnect(e ircmsg.Message) {
	l.handler.HandleServerUp(l.name)
	if err := l.conn.Join(l.bridge); err != nil {
		log.Printf("[%s] join %s failed: %v", l.name, l.bridge, err)
		return
	}
	// Ask for the roster, then authenticate. The handshake runs on every
	// connect; logged-in status never survives a drop.
	_ = l.send("players")
	_ = l.send("login %s %s", l.nick, l.password())
}

func (l *ServerLink) onDisconnect(e ircmsg.Message) {
	l.handler.HandleServerDown(l.name)
}

func (l *ServerLink) onPrivMsg(e ircmsg.Message) {
	if len(e.Params) < 2 {
		return
	}
	msg := e.Params[1]

	switch {
	case strings.HasPrefix(msg, "*** "):
		// "*** <name> joined" / "*** <name> left"
		fields := strings.Fields(msg)
		if len(fields) < 3 {
			return
		}
		switch fields[2] {
		case "joined":
			l.handler.HandlePlayerJoin(l.name, fields[1])
		case "left":
			l.handler.HandlePlayerPart(l.name, fields[1])
		}

	case strings.HasPrefix(msg, "Connected players: "):
		raw := strings.ReplaceAll(strings.TrimPrefix(msg, "Connected players: "), " ", "")
		var names []string
		for _, n := range strings.Split(raw, ",") {
			if n != "" {
				names = append(names, n)
			}
		}
		l.handler.HandleRoster(l.name, names)

	case strings.HasPrefix(msg, "You are now logged in"):
		l.handler.HandleLogin(l.name, true)

	case strings.HasPrefix(msg, "Incorrect password"):
		l.handler.HandleLogin(l.name, false)

	default:
		if name, text, ok := parseChat(msg); ok {
			l.handler.HandlePlayerChat(l.name, name, text)
		}
	}
}

// parseChat splits a "<name> text" bridge line.
func parseChat(msg string) (name, text string, ok bool) {
	if !strings.HasPrefix(msg, "<") {
		return "", "", false
	}
	head, rest, found := strings.Cut(msg[1:], "> ")
	if !found || head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}

// password derives the per-server login password from the shared secret, so
// no per-server credentials need to be configured.
func (l *ServerLink) password() string {
	sum := sha512.Sum512([]byte(fmt.Sprintf("%s@%s, secret: %s", l.name, l.addr, l.secret)))
	return hex.EncodeToString(sum[:])
}

// Moderation actions, encoded as bridge console commands.

func (l *ServerLink) Mute(player string) error {
	return l.command("revoke %s shout", player)
}

func (l *ServerLink) Unmute(player string) error {
	return l.command("grant %s shout", player)
}

func (l *ServerLink) Kick(player, reason string) error {
	return l.command("kick %s %s", player, reason)
}

func (l *ServerLink) Warn(player, message string) error {
	return l.send("msg %s -!- WARNING: %s", player, message)
}

func (l *ServerLink) TempBan(player, reason string, until time.Time) error {
	// The scheduler owns the expiry; the until stamp is informational.
	return l.command("xban %s %s (until %s)", player, reason, until.UTC().Format("2006-01-02 15:04 MST"))
}

func (l *ServerLink) Unban(player string) error {
	return l.command("xunban %s", player)
}

// Say relays one line of channel chat into the server.
func (l *ServerLink) Say(sender, text string) error {
	return l.send("<%s@irc> %s", sender, text)
}

func (l *ServerLink) command(format string, args ...any) error {
	return l.send("cmd "+format, args...)
}

func (l *ServerLink) send(format string, args ...any) error {
	return l.conn.Privmsg(l.bridge, fmt.Sprintf(format, args...))
}
