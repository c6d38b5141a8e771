// Package bot is the moderation core: a single event loop owning the server
// registry, the player directory, the moderation store and the expiry
// scheduler. Server links and the channel link feed events in; adapter calls
// that perform network I/O run asynchronously and their results rejoin the
// loop as completion events.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/edgy1net/trackd/internal/config"
	"github.com/edgy1net/trackd/internal/metrics"
	"github.com/edgy1net/trackd/internal/moderation"
	"github.com/edgy1net/trackd/internal/storage"
	"github.com/edgy1net/trackd/internal/track"
)

// ChatLink is the operators' channel transport.
type ChatLink interface {
	// Send delivers one message line to the channel.
	Send(message string)
	// IsOperator reports whether a nick currently has operator status.
	IsOperator(nick string) bool
}

// ServerAdapter executes moderation actions against one game server. Calls
// perform network I/O and are invoked off the core loop; results come back
// as completion events.
type ServerAdapter interface {
	Mute(player string) error
	Unmute(player string) error
	Kick(player, reason string) error
	Warn(player, message string) error
	TempBan(player, reason string, until time.Time) error
	Unban(player string) error
	// Say relays one line of channel chat into the server.
	Say(sender, text string) error
}

// Core owns all mutable relay state. All mutations happen on the Run loop.
type Core struct {
	cfg       *config.Config
	registry  *track.Registry
	directory *track.Directory
	store     *moderation.Store
	scheduler *moderation.Scheduler
	audit     *storage.Audit
	metrics   *metrics.Metrics

	channel  ChatLink
	adapters map[string]ServerAdapter

	events   chan event
	now      func() time.Time
	lastList time.Time
}

// New creates the core for the configured servers.
func New(cfg *config.Config, audit *storage.Audit, m *metrics.Metrics) *Core {
	names := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		names = append(names, s.Name)
	}

	now := time.Now
	return &Core{
		cfg:       cfg,
		registry:  track.NewRegistry(now, names),
		directory: track.NewDirectory(now, cfg.WarnAllowance),
		store:     moderation.NewStore(now),
		scheduler: moderation.NewScheduler(),
		audit:     audit,
		metrics:   m,
		adapters:  make(map[string]ServerAdapter),
		events:    make(chan event, 64),
		now:       now,
	}
}

// AttachChannel wires the operators' channel link. Must be called before Run.
func (c *Core) AttachChannel(ch ChatLink) { c.channel = ch }

// RegisterAdapter wires the action adapter for a configured server.
func (c *Core) RegisterAdapter(server string, a ServerAdapter) {
	c.adapters[strings.ToLower(server)] = a
}

func (c *Core) adapter(server string) ServerAdapter {
	return c.adapters[strings.ToLower(server)]
}

// Run processes events until the context is cancelled. Expiry fires are
// driven by a timer that is re-armed to the scheduler's earliest deadline
// after every event, so a newly scheduled earlier deadline takes effect
// immediately.
func (c *Core) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		c.rearm(timer)
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.handle(ev)
		case <-timer.C:
			c.fireDue()
		}
	}
}

func (c *Core) rearm(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	next, ok := c.scheduler.Next()
	if !ok {
		return
	}
	d := next.Sub(c.now())
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}

// fireDue expires every entry whose deadline has passed. The entry is
// removed regardless of whether the reversal can be delivered; when the
// server is down the reversal is skipped and logged, never retried, so a
// later reconnect does not re-arm it.
func (c *Core) fireDue() {
	for _, e := range c.scheduler.PopDue(c.now()) {
		if !c.store.Remove(e) {
			// Entry was replaced after this expiry was queued.
			continue
		}
		c.metrics.ExpiriesFired.Inc()

		if !c.registry.IsUp(e.Server) {
			log.Printf("expiry: %s for %s@%s ended while the server is down, reversal skipped",
				e.Kind, e.Player, e.Server)
			c.metrics.ReversalsSkipped.Inc()
			continue
		}

		adapter := c.adapter(e.Server)
		if adapter == nil {
			continue
		}
		entry := e
		go func() {
			var err error
			if entry.Kind.Class() == moderation.ClassBan {
				err = adapter.Unban(entry.Player)
			} else {
				err = adapter.Unmute(entry.Player)
			}
			if err != nil {
				log.Printf("expiry: reversal of %s for %s@%s failed: %v",
					entry.Kind, entry.Player, entry.Server, err)
			}
		}()
	}
}

// post delivers an event into the loop, preserving per-caller ordering.
func (c *Core) post(ev event) { c.events <- ev }

func (c *Core) reply(nick, format string, args ...any) {
	if c.channel == nil {
		return
	}
	c.channel.Send(nick + ": " + fmt.Sprintf(format, args...))
}

func (c *Core) say(format string, args ...any) {
	if c.channel == nil {
		return
	}
	c.channel.Send(fmt.Sprintf(format, args...))
}

func (c *Core) logAction(nick, line string) {
	if c.audit == nil {
		return
	}
	timestamp := c.now().UTC().Format("Mon Jan 02, 2006 at 15:04:05 GMT")
	if err := c.audit.Record(timestamp + ": " + nick + " -> " + line); err != nil {
		log.Printf("audit: %v", err)
	}
}
