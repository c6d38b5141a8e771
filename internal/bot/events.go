package bot

import (
	"log"

	"github.com/edgy1net/trackd/internal/moderation"
)

// Events delivered into the core loop. Join/part/chat/roster come from the
// server links, channel messages from the channel link, action results from
// the adapter goroutines.
type event any

type joinEvent struct{ server, name string }

type partEvent struct{ server, name string }

type chatEvent struct{ server, name, text string }

type rosterEvent struct {
	server string
	names  []string
}

type serverUpEvent struct{ server string }

type serverDownEvent struct{ server string }

type loginEvent struct {
	server string
	ok     bool
}

type channelMessageEvent struct{ nick, text string }

type actionDoneEvent struct {
	act *pendingAction
	err error
}

// HandlePlayerJoin records a join event from a server link.
func (c *Core) HandlePlayerJoin(server, name string) {
	c.post(joinEvent{server: server, name: name})
}

// HandlePlayerPart records a part event from a server link.
func (c *Core) HandlePlayerPart(server, name string) {
	c.post(partEvent{server: server, name: name})
}

// HandlePlayerChat records a chat line from a player on a server.
func (c *Core) HandlePlayerChat(server, name, text string) {
	c.post(chatEvent{server: server, name: name, text: text})
}

// HandleRoster records a full player roster reported by a server.
func (c *Core) HandleRoster(server string, names []string) {
	c.post(rosterEvent{server: server, names: names})
}

// HandleServerUp records a server link connect.
func (c *Core) HandleServerUp(server string) {
	c.post(serverUpEvent{server: server})
}

// HandleServerDown records a server link disconnect.
func (c *Core) HandleServerDown(server string) {
	c.post(serverDownEvent{server: server})
}

// HandleLogin records the outcome of a server login handshake.
func (c *Core) HandleLogin(server string, ok bool) {
	c.post(loginEvent{server: server, ok: ok})
}

// HandleChannelMessage records a chat line from the operators' channel.
func (c *Core) HandleChannelMessage(nick, text string) {
	c.post(channelMessageEvent{nick: nick, text: text})
}

func (c *Core) handle(ev event) {
	switch ev := ev.(type) {
	case joinEvent:
		c.onJoin(ev)
	case partEvent:
		c.onPart(ev)
	case chatEvent:
		c.onChat(ev)
	case rosterEvent:
		c.onRoster(ev)
	case serverUpEvent:
		c.onServerUp(ev)
	case serverDownEvent:
		c.onServerDown(ev)
	case loginEvent:
		c.onLogin(ev)
	case channelMessageEvent:
		c.onChannelMessage(ev)
	case actionDoneEvent:
		c.onActionDone(ev)
	}
}

func (c *Core) onJoin(ev joinEvent) {
	c.registry.Touch(ev.server)
	c.directory.RecordJoin(ev.server, ev.name)
	c.metrics.EventsRelayed.WithLabelValues(ev.server, "join").Inc()
	c.say("[%s] *** %s joined", ev.server, ev.name)
}

func (c *Core) onPart(ev partEvent) {
	c.registry.Touch(ev.server)
	c.directory.RecordPart(ev.server, ev.name)
	c.metrics.EventsRelayed.WithLabelValues(ev.server, "part").Inc()
	c.say("[%s] *** %s left", ev.server, ev.name)
}

func (c *Core) onChat(ev chatEvent) {
	c.registry.Touch(ev.server)
	c.directory.RecordJoin(ev.server, ev.name)
	if c.store.IsRestricted(ev.server, ev.name, moderation.ClassMute) {
		c.metrics.ChatSuppressed.WithLabelValues(ev.server).Inc()
		return
	}
	c.metrics.EventsRelayed.WithLabelValues(ev.server, "chat").Inc()
	c.say("<%s@%s> %s", ev.name, ev.server, ev.text)
}

func (c *Core) onRoster(ev rosterEvent) {
	c.registry.Touch(ev.server)
	added, removed := c.directory.SyncRoster(ev.server, ev.names)
	if len(added) > 0 || len(removed) > 0 {
		log.Printf("roster: %s now has %d players (%d joined, %d dropped)",
			ev.server, len(c.directory.Players(ev.server)), len(added), len(removed))
	}
}

func (c *Core) onServerUp(ev serverUpEvent) {
	c.registry.MarkUp(ev.server)
	c.metrics.ServersUp.Set(float64(c.registry.UpCount()))
	log.Printf("server %s connected", ev.server)
}

func (c *Core) onServerDown(ev serverDownEvent) {
	c.registry.MarkDown(ev.server)
	c.directory.RecordServerDown(ev.server)
	c.metrics.ServersUp.Set(float64(c.registry.UpCount()))
	log.Printf("server %s disconnected", ev.server)
}

func (c *Core) onLogin(ev loginEvent) {
	c.registry.MarkLoggedIn(ev.server, ev.ok)
	if !ev.ok {
		log.Printf("WARNING: incorrect password for server %s", ev.server)
	}
}

// relayToServers mirrors one line of channel chat into every usable server.
func (c *Core) relayToServers(nick, text string) {
	for _, name := range c.registry.Names() {
		if !c.registry.Usable(name) {
			continue
		}
		adapter := c.adapter(name)
		if adapter == nil {
			continue
		}
		server := name
		go func() {
			if err := adapter.Say(nick, text); err != nil {
				log.Printf("relay to %s failed: %v", server, err)
			}
		}()
	}
}
