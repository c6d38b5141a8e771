// Package irc provides the IRC transports: the operators' channel link and
// one bridge link per game server.
package irc

import (
	"crypto/tls"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/edgy1net/trackd/internal/config"
	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// ChannelHandler receives chat lines from the operators' channel.
type ChannelHandler interface {
	HandleChannelMessage(nick, text string)
}

// Channel is the link to the operators' channel. It tracks which nicks hold
// channel-operator status so the core can authorize moderation commands.
type Channel struct {
	conn    *ircevent.Connection
	cfg     *config.Config
	handler ChannelHandler

	mu  sync.RWMutex
	ops map[string]bool // lowercased nick -> op or higher
}

// NewChannel creates the channel link.
func NewChannel(cfg *config.Config, handler ChannelHandler) *Channel {
	ch := &Channel{
		cfg:     cfg,
		handler: handler,
		ops:     make(map[string]bool),
	}

	conn := &ircevent.Connection{
		Server:      fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		Nick:        cfg.Nick,
		User:        cfg.Username,
		RealName:    cfg.IRCName,
		Password:    cfg.ServerPass,
		QuitMessage: "Shutting down",
		UseTLS:      cfg.TLS,
		TLSConfig:   &tls.Config{InsecureSkipVerify: true},
	}
	ch.conn = conn
	ch.registerHandlers()
	return ch
}

func (ch *Channel) registerHandlers() {
	// Connected (end of MOTD)
	ch.conn.AddCallback("376", ch.onConnect)
	ch.conn.AddCallback("422", ch.onConnect) // MOTD missing is also "connected"

	ch.conn.AddCallback("PRIVMSG", ch.onPrivMsg)

	// Operator tracking
	ch.conn.AddCallback("353", ch.onNames) // RPL_NAMREPLY
	ch.conn.AddCallback("MODE", ch.onMode)
	ch.conn.AddCallback("PART", ch.onGone)
	ch.conn.AddCallback("QUIT", ch.onGone)
	ch.conn.AddCallback("KICK", ch.onKick)
	ch.conn.AddCallback("NICK", ch.onNick)

	// Nick issues
	ch.conn.AddCallback("432", ch.onNickTrouble) // ERR_ERRONEUSNICKNAME
	ch.conn.AddCallback("433", ch.onNickTrouble) // ERR_NICKNAMEINUSE

	ch.conn.AddCallback("CTCP_VERSION", ch.onCtcpVersion)
}

// Connect initiates the IRC connection.
func (ch *Channel) Connect() error { return ch.conn.Connect() }

// Loop runs the IRC event loop (blocking, reconnects on failure).
func (ch *Channel) Loop() { ch.conn.Loop() }

// Quit disconnects from IRC.
func (ch *Channel) Quit() { ch.conn.Quit() }

// Send delivers one message line to the operators' channel.
func (ch *Channel) Send(message string) {
	if err := ch.conn.Privmsg(ch.cfg.Channel, message); err != nil {
		log.Printf("channel send failed: %v", err)
	}
}

// IsOperator reports whether a nick currently holds op (or higher) in the
// operators' channel.
func (ch *Channel) IsOperator(nick string) bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.ops[strings.ToLower(nick)]
}

func (ch *Channel) onConnect(e ircmsg.Message) {
	log.Println("connected to IRC server")

	if ch.cfg.NickPass != "" {
		_ = ch.conn.Privmsg("NickServ", fmt.Sprintf("IDENTIFY %s %s", ch.cfg.Nick, ch.cfg.NickPass))
	}
	if err := ch.conn.Join(ch.cfg.Channel); err != nil {
		log.Printf("join %s failed: %v", ch.cfg.Channel, err)
	}
}

func (ch *Channel) onPrivMsg(e ircmsg.Message) {
	if len(e.Params) < 2 {
		return
	}
	target := e.Params[0]
	if !strings.EqualFold(target, ch.cfg.Channel) {
		return
	}
	ch.handler.HandleChannelMessage(e.Nick(), e.Params[1])
}

// onNames seeds the op map from a NAMES reply: 353 <me> <symbol> <channel>
// :[prefixes]nick ...
func (ch *Channel) onNames(e ircmsg.Message) {
	if len(e.Params) < 4 || !strings.EqualFold(e.Params[2], ch.cfg.Channel) {
		return
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for _, entry := range strings.Fields(e.Params[3]) {
		nick := strings.TrimLeft(entry, "~&@%+")
		prefixes := entry[:len(entry)-len(nick)]
		ch.ops[strings.ToLower(nick)] = strings.ContainsAny(prefixes, "~&@")
	}
}

func (ch *Channel) onMode(e ircmsg.Message) {
	if len(e.Params) < 3 || !strings.EqualFold(e.Params[0], ch.cfg.Channel) {
		return
	}
	modes := e.Params[1]
	args := e.Params[2:]

	adding := true
	idx := 0
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for _, m := range modes {
		switch m {
		case '+':
			adding = true
		case '-':
			adding = false
		case 'o', 'a', 'q':
			if idx < len(args) {
				ch.ops[strings.ToLower(args[idx])] = adding
				idx++
			}
		case 'h', 'v', 'b', 'e', 'I', 'k':
			// argument modes we do not track
			if idx < len(args) {
				idx++
			}
		case 'l':
			if adding && idx < len(args) {
				idx++
			}
		}
	}
}

func (ch *Channel) onGone(e ircmsg.Message) {
	ch.mu.Lock()
	delete(ch.ops, strings.ToLower(e.Nick()))
	ch.mu.Unlock()
}

func (ch *Channel) onKick(e ircmsg.Message) {
	// KICK <channel> <nick> [:reason]
	if len(e.Params) < 2 || !strings.EqualFold(e.Params[0], ch.cfg.Channel) {
		return
	}
	ch.mu.Lock()
	delete(ch.ops, strings.ToLower(e.Params[1]))
	ch.mu.Unlock()
}

func (ch *Channel) onNick(e ircmsg.Message) {
	if len(e.Params) < 1 {
		return
	}
	old := strings.ToLower(e.Nick())
	ch.mu.Lock()
	if ch.ops[old] {
		ch.ops[strings.ToLower(e.Params[0])] = true
	}
	delete(ch.ops, old)
	ch.mu.Unlock()
}

func (ch *Channel) onNickTrouble(e ircmsg.Message) {
	if ch.conn.CurrentNick() == ch.cfg.Alternate {
		return
	}
	log.Printf("nick unavailable, switching to alternate: %s", ch.cfg.Alternate)
	ch.conn.SetNick(ch.cfg.Alternate)

	// Schedule nick recovery
	go func() {
		time.Sleep(15 * time.Second)
		_ = ch.conn.Privmsg("NickServ", fmt.Sprintf("GHOST %s %s", ch.cfg.Nick, ch.cfg.NickPass))
		time.Sleep(2 * time.Second)
		ch.conn.SetNick(ch.cfg.Nick)
	}()
}

func (ch *Channel) onCtcpVersion(e ircmsg.Message) {
	reply := fmt.Sprintf("trackd %s (built %s, commit %s)", Version, BuildDate, GitCommit)
	_ = ch.conn.SendRaw(fmt.Sprintf("NOTICE %s :\x01VERSION %s\x01", e.Nick(), reply))
}
