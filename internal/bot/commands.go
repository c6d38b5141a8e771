package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/edgy1net/trackd/internal/moderation"
)

const day = 24 * time.Hour

var usages = map[string]string{
	"mute":     "mute <player>",
	"unmute":   "unmute <player>",
	"unban":    "unban <player>",
	"tempmute": "tempmute <player> [duration]",
	"warn":     "warn <player> <message>",
	"kick":     "kick <player> <reason>",
	"tempban":  "tempban <player> [duration] <reason>",
}

// pendingAction carries a moderation command across its asynchronous adapter
// call. State is only committed once the live action has succeeded.
type pendingAction struct {
	command  string
	server   string
	player   string
	nick     string
	duration time.Duration
	reason   string
	// auto marks the tempmute that follows an exhausted warning ladder.
	auto bool
}

func (c *Core) onChannelMessage(ev channelMessageEvent) {
	text := strings.TrimSpace(ev.text)
	if !strings.HasPrefix(text, c.cfg.Trigger) {
		c.relayToServers(ev.nick, ev.text)
		return
	}

	line := strings.TrimSpace(strings.TrimPrefix(text, c.cfg.Trigger))
	if line == "" {
		return
	}
	cmd, args, _ := strings.Cut(line, " ")
	cmd = strings.ToLower(cmd)
	args = strings.TrimSpace(args)

	switch cmd {
	case "mute", "unmute", "unban", "tempmute", "warn", "kick", "tempban":
		c.metrics.Commands.WithLabelValues(cmd).Inc()
		c.logAction(ev.nick, line)
		if err := c.runModeration(ev.nick, cmd, args); err != nil {
			c.replyError(ev.nick, err)
		}
	case "badservers":
		c.metrics.Commands.WithLabelValues(cmd).Inc()
		c.cmdBadServers(ev.nick)
	case "players":
		c.metrics.Commands.WithLabelValues(cmd).Inc()
		c.cmdPlayers(ev.nick)
	default:
		// Not one of ours. Other bots may share the channel.
	}
}

// runModeration walks a command through resolve, validate and execute. The
// live adapter action runs off-loop; state is committed in onActionDone when
// it succeeds, so a failed action stores nothing.
func (c *Core) runModeration(nick, cmd, args string) error {
	if !c.channel.IsOperator(nick) {
		return ErrPermission
	}

	ref, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	if ref == "" {
		c.usageReply(nick, cmd)
		return nil
	}

	// Canonicalize the @server part before resolving, so S1 and s1 name the
	// same configured server.
	if name, server, ok := strings.Cut(ref, "@"); ok {
		srv := c.registry.Lookup(server)
		if srv == nil {
			c.reply(nick, "The server %q does not exist!", server)
			return nil
		}
		ref = name + "@" + srv.Name
	}

	sighting, err := c.directory.Resolve(ref)
	if err != nil {
		return err
	}
	server, player := sighting.Server, sighting.Name

	if srv := c.registry.Lookup(server); srv == nil || !srv.Up {
		return &ServerDownError{Server: server}
	} else if !srv.LoggedIn {
		return &ServerDownError{Server: server, Connected: true}
	}

	switch cmd {
	case "mute":
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick}
		c.execute(act, func(a ServerAdapter) error { return a.Mute(player) })

	case "unmute":
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick}
		c.execute(act, func(a ServerAdapter) error { return a.Unmute(player) })

	case "unban":
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick}
		c.execute(act, func(a ServerAdapter) error { return a.Unban(player) })

	case "tempmute":
		d := c.cfg.DefaultDuration.Std()
		if rest != "" {
			if d, err = moderation.ParseDuration(rest); err != nil {
				return err
			}
		}
		if err := moderation.CheckDuration(d, c.cfg.TempmuteMax.Std()); err != nil {
			return err
		}
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick, duration: d}
		c.execute(act, func(a ServerAdapter) error { return a.Mute(player) })

	case "warn":
		if rest == "" {
			c.usageReply(nick, cmd)
			return nil
		}
		message := fmt.Sprintf("%s -- %s", rest, nick)
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick, reason: rest}
		c.execute(act, func(a ServerAdapter) error { return a.Warn(player, message) })

	case "kick":
		if rest == "" {
			c.usageReply(nick, cmd)
			return nil
		}
		reason := fmt.Sprintf("By %s: %s", nick, rest)
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick, reason: rest}
		c.execute(act, func(a ServerAdapter) error { return a.Kick(player, reason) })

	case "tempban":
		if rest == "" {
			c.usageReply(nick, cmd)
			return nil
		}
		d := c.cfg.DefaultDuration.Std()
		reason := rest
		if tok, after, _ := strings.Cut(rest, " "); moderation.LooksLikeDuration(tok) {
			after = strings.TrimSpace(after)
			if after == "" {
				c.usageReply(nick, cmd)
				return nil
			}
			d, _ = moderation.ParseDuration(tok)
			reason = after
		}
		if err := moderation.CheckDuration(d, c.cfg.TempbanMax.Std()); err != nil {
			return err
		}
		until := c.now().Add(d)
		act := &pendingAction{command: cmd, server: server, player: player, nick: nick, duration: d, reason: reason}
		c.execute(act, func(a ServerAdapter) error { return a.TempBan(player, reason, until) })
	}
	return nil
}

// execute runs the live adapter call off the loop; the result rejoins the
// loop as an actionDoneEvent. Calls are fire-and-forget, never cancelled.
func (c *Core) execute(act *pendingAction, call func(ServerAdapter) error) {
	adapter := c.adapter(act.server)
	if adapter == nil {
		c.replyError(act.nick, &ServerDownError{Server: act.server})
		return
	}
	go func() {
		c.post(actionDoneEvent{act: act, err: call(adapter)})
	}()
}

func (c *Core) onActionDone(ev actionDoneEvent) {
	act := ev.act
	target := act.player + "@" + act.server

	if ev.err != nil {
		log.Printf("%s %s failed: %v", act.command, target, ev.err)
		c.replyError(act.nick, &AdapterError{Server: act.server, Err: ev.err})
		return
	}

	switch act.command {
	case "mute":
		e := c.store.ApplyMute(act.server, act.player)
		// A replaced tempmute must not fire and undo the permanent mute.
		c.scheduler.Cancel(e)
		c.metrics.Actions.WithLabelValues(string(moderation.KindMute)).Inc()
		c.reply(act.nick, "Muted %s.", target)

	case "tempmute":
		e, err := c.store.ApplyTemp(act.server, act.player, moderation.KindTempmute,
			act.duration, c.cfg.TempmuteMax.Std(), act.reason)
		if err != nil {
			c.replyError(act.nick, err)
			return
		}
		c.scheduler.Schedule(e, e.Expiry)
		c.metrics.Actions.WithLabelValues(string(moderation.KindTempmute)).Inc()
		if act.auto {
			c.reply(act.nick, "%s has been temporarily muted for %s.", target, formatDuration(act.duration))
		} else {
			c.reply(act.nick, "Temporarily muted %s for %s.", target, formatDuration(act.duration))
		}

	case "tempban":
		e, err := c.store.ApplyTemp(act.server, act.player, moderation.KindTempban,
			act.duration, c.cfg.TempbanMax.Std(), act.reason)
		if err != nil {
			c.replyError(act.nick, err)
			return
		}
		c.scheduler.Schedule(e, e.Expiry)
		c.metrics.Actions.WithLabelValues(string(moderation.KindTempban)).Inc()
		c.reply(act.nick, "Temporarily banned %s for %s (%s).", target, formatDuration(act.duration), act.reason)

	case "unmute":
		if e := c.store.Unmute(act.server, act.player); e != nil {
			c.scheduler.Cancel(e)
		}
		c.reply(act.nick, "Attempted to unmute %s.", target)

	case "unban":
		if e := c.store.Unban(act.server, act.player); e != nil {
			c.scheduler.Cancel(e)
		}
		c.reply(act.nick, "Attempted to unban %s.", target)

	case "kick":
		c.reply(act.nick, "Attempted to kick %s.", target)

	case "warn":
		c.finishWarn(act, target)
	}
}

// finishWarn advances the warning ladder once the in-game warning has been
// delivered. An exhausted ladder escalates to an automatic tempmute.
func (c *Core) finishWarn(act *pendingAction, target string) {
	s := c.directory.Lookup(act.server, act.player)
	if s == nil {
		// Player left while the warning was in flight.
		c.reply(act.nick, "Attempted to warn %s.", target)
		return
	}

	if s.Warnings > 0 {
		left := s.Warnings
		s.Warnings--
		c.reply(act.nick, "%s has %d warning%s left until they get temp-muted.", target, left, plural(left))
		return
	}

	s.Warnings = c.cfg.WarnAllowance
	auto := &pendingAction{
		command:  "tempmute",
		server:   act.server,
		player:   act.player,
		nick:     act.nick,
		duration: c.cfg.WarnMuteFor.Std(),
		reason:   "warning limit reached",
		auto:     true,
	}
	c.execute(auto, func(a ServerAdapter) error { return a.Mute(act.player) })
}

func (c *Core) cmdBadServers(nick string) {
	bad := c.registry.Bad()
	if len(bad) == 0 {
		bad = []string{"(none)"}
	}
	c.reply(nick, "Servers I am not logged into: %s", strings.Join(bad, ", "))
}

func (c *Core) cmdPlayers(nick string) {
	now := c.now()
	cooldown := c.cfg.ListCooldown.Std()
	if now.Before(c.lastList.Add(cooldown)) {
		c.reply(nick, "You can only run %splayers once every %s.", c.cfg.Trigger, formatDuration(cooldown))
		return
	}
	c.lastList = now

	total, active, inactive := 0, 0, 0
	for _, server := range c.registry.Names() {
		players := c.directory.Players(server)
		if len(players) == 0 {
			inactive++
			continue
		}
		active++
		total += len(players)
		c.say("Players on %s: %s", server, strings.Join(players, ", "))
	}
	c.say("Total: %d player%s across %d active server%s (and %d inactive server%s).",
		total, plural(total), active, plural(active), inactive, plural(inactive))
}

func (c *Core) usageReply(nick, cmd string) {
	c.reply(nick, "Usage: %s%s", c.cfg.Trigger, usages[cmd])
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func joinComma(items []string) string { return strings.Join(items, ", ") }

// formatDuration renders a duration the way people type them: whole days,
// hours, minutes or seconds, falling back to Go's own formatting.
func formatDuration(d time.Duration) string {
	switch {
	case d >= day && d%day == 0:
		n := int(d / day)
		return fmt.Sprintf("%d day%s", n, plural(n))
	case d >= time.Hour && d%time.Hour == 0:
		n := int(d / time.Hour)
		return fmt.Sprintf("%d hour%s", n, plural(n))
	case d >= time.Minute && d%time.Minute == 0:
		n := int(d / time.Minute)
		return fmt.Sprintf("%d minute%s", n, plural(n))
	case d >= time.Second && d%time.Second == 0:
		n := int(d / time.Second)
		return fmt.Sprintf("%d second%s", n, plural(n))
	default:
		return d.String()
	}
}
