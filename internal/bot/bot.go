package bot

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dicebot/internal/config"
	"github.com/cory-johannsen/dicebot/internal/dice"
	"github.com/cory-johannsen/dicebot/internal/reply"
	"github.com/cory-johannsen/dicebot/internal/settings"
)

// MacroRunner executes named roll macros.
type MacroRunner interface {
	Has(name string) bool
	Call(ctx context.Context, name string, args ...string) (string, error)
}

// Bot interprets chat lines for the sessions registered in its Hub.
type Bot struct {
	registry *Registry
	hub      *Hub
	roller   *dice.Roller
	store    settings.Store
	replies  *reply.Templates
	macros   MacroRunner
	dice     config.DiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Bot.
//
// Precondition: hub, roller, store, replies and logger must be non-nil.
// macros may be nil, which disables the macro command.
// Postcondition: Returns a Bot using the default command registry and the wall clock.
func New(
	hub *Hub,
	roller *dice.Roller,
	store settings.Store,
	replies *reply.Templates,
	macros MacroRunner,
	diceCfg config.DiceConfig,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		registry: DefaultRegistry(),
		hub:      hub,
		roller:   roller,
		store:    store,
		replies:  replies,
		macros:   macros,
		dice:     diceCfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for the lucky number date.
func (b *Bot) SetClock(now func() time.Time) {
	b.now = now
}

// Hub returns the session hub.
func (b *Bot) Hub() *Hub {
	return b.hub
}

// Connect registers a session in chat, announces it to the room and greets it.
func (b *Bot) Connect(nick, chat string, out Sender) Session {
	s := b.hub.Add(nick, chat, out)
	vars := reply.Vars{"nick": s.Nick, "chat": s.Chat}
	b.hub.Broadcast(s.Chat, b.replies.Render("join", vars), s.ID)
	_ = b.hub.Send(s.ID, b.replies.Render("welcome", vars))
	b.logger.Info("session connected",
		zap.String("session", s.ID),
		zap.String("nick", s.Nick),
		zap.String("chat", s.Chat),
	)
	return s
}

// Disconnect unregisters a session and tells its room.
func (b *Bot) Disconnect(id string) {
	s, err := b.hub.Remove(id)
	if err != nil {
		return
	}
	b.hub.Broadcast(s.Chat, b.replies.Render("leave", reply.Vars{"nick": s.Nick, "chat": s.Chat}), "")
	b.logger.Info("session disconnected",
		zap.String("session", s.ID),
		zap.String("nick", s.Nick),
	)
}

// Handle processes one input line from session id. Lines without a command
// prefix are relayed to the session's chat.
//
// Postcondition: quit is true when the session asked to disconnect; err is
// non-nil only when id is not registered.
func (b *Bot) Handle(ctx context.Context, id, line string) (quit bool, err error) {
	s, ok := b.hub.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	body, isCommand := Parse(line)
	if !isCommand {
		if text := strings.TrimSpace(line); text != "" {
			b.hub.Broadcast(s.Chat, b.replies.Render("say", reply.Vars{"nick": s.Nick, "text": text}), s.ID)
		}
		return false, nil
	}

	cmd, args, ok := b.registry.Match(body)
	if !ok {
		name := body
		if f := strings.Fields(body); len(f) > 0 {
			name = f[0]
		}
		b.private(s, "unknown_command", reply.Vars{"name": name})
		return false, nil
	}

	b.logger.Debug("command",
		zap.String("session", s.ID),
		zap.String("chat", s.Chat),
		zap.String("command", cmd.Name),
		zap.String("args", args),
	)

	if cmd.Category == CategoryDice {
		cs, err := b.store.Get(ctx, s.Chat)
		if err != nil {
			b.storeFailed(s, err)
			return false, nil
		}
		if !cs.Active {
			return false, nil
		}
		b.handleDice(ctx, s, cmd, args, cs)
		return false, nil
	}

	switch cmd.Handler {
	case HandlerBot:
		b.handleBot(ctx, s, args)
	case HandlerJoin:
		b.handleJoin(s, args)
	case HandlerNick:
		b.handleNick(s, args)
	case HandlerWho:
		b.private(s, "who", reply.Vars{"chat": s.Chat, "members": strings.Join(b.hub.Members(s.Chat), ", ")})
	case HandlerHelp:
		_ = b.hub.Send(s.ID, b.helpText())
	case HandlerQuit:
		b.private(s, "goodbye", reply.Vars{"nick": s.Nick})
		return true, nil
	}
	return false, nil
}

func (b *Bot) handleDice(ctx context.Context, s Session, cmd *Command, args string, cs settings.ChatSettings) {
	switch cmd.Handler {
	case HandlerRoll:
		b.handleRoll(s, args, cs)
	case HandlerSet:
		b.handleSet(ctx, s, args)
	case HandlerLuck:
		b.handleLuck(s)
	case HandlerMacro:
		b.handleMacro(ctx, s, args)
	}
}

// limitsFor combines the global bounds with the chat's default surface.
func (b *Bot) limitsFor(cs settings.ChatSettings) dice.Limits {
	return dice.Limits{
		DefaultSurface:   cs.EffectiveSurface(b.dice.DefaultSurface),
		MaxDiceNumber:    b.dice.MaxDiceNumber,
		MaxSurfaceNumber: b.dice.MaxSurfaceNumber,
	}
}

// splitRepeat splits an optional "N#" repeat prefix off args.
// ok is false when the prefix is numeric but not a valid int.
func splitRepeat(args string) (times int, order string, ok bool) {
	i := strings.IndexByte(args, '#')
	if i <= 0 {
		return 1, args, true
	}
	prefix := strings.TrimSpace(args[:i])
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return 1, args, true
		}
	}
	if prefix == "" {
		return 1, args, true
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false
	}
	return n, args[i+1:], true
}

func (b *Bot) handleRoll(s Session, args string, cs settings.ChatSettings) {
	times, order, ok := splitRepeat(args)
	if !ok || times < 1 || times > b.dice.MaxRepeat {
		b.private(s, "repeat_overstep", reply.Vars{"count": strconv.Itoa(b.dice.MaxRepeat)})
		return
	}

	results, err := b.roller.Repeat(order, b.limitsFor(cs), times)
	if err != nil {
		key, vars := b.errorReply(err)
		b.private(s, key, vars)
		return
	}

	first := results[0]
	texts := make([]string, len(results))
	for i, e := range results {
		texts[i] = e.Text()
	}
	vars := reply.Vars{
		"nick":   s.Nick,
		"chat":   s.Chat,
		"reason": first.Reason,
		"expr":   texts[0],
		"count":  strconv.Itoa(len(results)),
		"detail": strings.Join(texts, "\n"),
		"result": strconv.FormatInt(first.Result, 10),
	}

	if first.Hidden() {
		b.private(s, b.withReason("roll_hidden_private", first.Reason), vars)
		b.hub.Broadcast(s.Chat, b.replies.Render(b.withReason("roll_hidden_notice", first.Reason), vars), s.ID)
		return
	}
	key := "roll"
	if len(results) > 1 {
		key = "roll_repeat"
	}
	b.hub.Broadcast(s.Chat, b.replies.Render(b.withReason(key, first.Reason), vars), "")
}

// withReason prefers the key's "_reason" variant when a reason was given.
func (b *Bot) withReason(key, reason string) string {
	if reason != "" && b.replies.Has(key+"_reason") {
		return key + "_reason"
	}
	return key
}

func (b *Bot) errorReply(err error) (string, reply.Vars) {
	switch {
	case errors.Is(err, dice.ErrDiceNumberOverstep):
		return "dice_number_overstep", reply.Vars{"count": strconv.Itoa(b.dice.MaxDiceNumber)}
	case errors.Is(err, dice.ErrSurfaceNumberOverstep):
		return "surface_number_overstep", reply.Vars{"surface": strconv.Itoa(b.dice.MaxSurfaceNumber)}
	case errors.Is(err, dice.ErrExpressionInvalid):
		return "expression_invalid", nil
	case errors.Is(err, dice.ErrExpressionEvaluation):
		return "expression_evaluation_error", nil
	default:
		b.logger.Error("roll failed", zap.Error(err))
		return "internal_error", reply.Vars{"error": err.Error()}
	}
}

func (b *Bot) handleSet(ctx context.Context, s Session, args string) {
	arg := strings.TrimSpace(args)
	if arg == "" {
		if err := b.store.SetDefaultSurface(ctx, s.Chat, 0); err != nil {
			b.storeFailed(s, err)
			return
		}
		b.room(s, "set_surface_cleared", reply.Vars{"chat": s.Chat, "surface": strconv.Itoa(b.dice.DefaultSurface)})
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > b.dice.MaxSurfaceNumber {
		b.private(s, "set_surface_invalid", reply.Vars{"surface": strconv.Itoa(b.dice.MaxSurfaceNumber)})
		return
	}
	if err := b.store.SetDefaultSurface(ctx, s.Chat, n); err != nil {
		b.storeFailed(s, err)
		return
	}
	b.room(s, "set_surface", reply.Vars{"chat": s.Chat, "surface": strconv.Itoa(n)})
}

func (b *Bot) handleBot(ctx context.Context, s Session, args string) {
	var active bool
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on":
		active = true
	case "off":
		active = false
	default:
		cs, err := b.store.Get(ctx, s.Chat)
		if err != nil {
			b.storeFailed(s, err)
			return
		}
		status := "inactive"
		if cs.Active {
			status = "active"
		}
		b.private(s, "bot_status", reply.Vars{"chat": s.Chat, "status": status})
		return
	}
	if err := b.store.SetActive(ctx, s.Chat, active); err != nil {
		b.storeFailed(s, err)
		return
	}
	key := "bot_off"
	if active {
		key = "bot_on"
	}
	b.room(s, key, reply.Vars{"chat": s.Chat})
}

// LuckSeed derives the lucky number seed for nick on the day of t.
func LuckSeed(nick string, t time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(nick + t.Format("2006-01-02")))
	return int64(h.Sum64())
}

func (b *Bot) handleLuck(s Session) {
	v := b.roller.Seeded(LuckSeed(s.Nick, b.now()), 100)
	b.room(s, "luck", reply.Vars{"nick": s.Nick, "result": strconv.Itoa(v)})
}

func (b *Bot) handleMacro(ctx context.Context, s Session, args string) {
	if b.macros == nil {
		b.private(s, "macro_unavailable", nil)
		return
	}
	fields := strings.Fields(args)
	if len(fields) == 0 || !b.macros.Has(fields[0]) {
		name := ""
		if len(fields) > 0 {
			name = fields[0]
		}
		b.private(s, "macro_unknown", reply.Vars{"name": name})
		return
	}
	name := fields[0]
	out, err := b.macros.Call(ctx, name, fields[1:]...)
	if err != nil {
		b.private(s, "macro_failed", reply.Vars{"name": name, "error": err.Error()})
		return
	}
	b.room(s, "macro_result", reply.Vars{"nick": s.Nick, "name": name, "result": out})
}

func (b *Bot) handleJoin(s Session, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.private(s, "join_invalid", nil)
		return
	}
	chat := fields[0]
	if chat == s.Chat {
		return
	}
	old, err := b.hub.Move(s.ID, chat)
	if err != nil {
		return
	}
	b.hub.Broadcast(old, b.replies.Render("leave", reply.Vars{"nick": s.Nick, "chat": old}), "")
	b.hub.Broadcast(chat, b.replies.Render("join", reply.Vars{"nick": s.Nick, "chat": chat}), "")
}

func (b *Bot) handleNick(s Session, args string) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		b.private(s, "nick_invalid", nil)
		return
	}
	old, err := b.hub.Rename(s.ID, fields[0])
	if err != nil {
		return
	}
	b.room(s, "nick", reply.Vars{"old": old, "nick": fields[0]})
}

func (b *Bot) helpText() string {
	byCategory := b.registry.CommandsByCategory()
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for i, c := range categories {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[" + c + "]")
		for _, cmd := range byCategory[c] {
			sb.WriteString("\n  ." + cmd.Name)
			if cmd.Usage != "" {
				sb.WriteString(" " + cmd.Usage)
			}
			sb.WriteString(" - " + cmd.Help)
			if len(cmd.Aliases) > 0 {
				sb.WriteString(" (." + strings.Join(cmd.Aliases, ", .") + ")")
			}
		}
	}
	return sb.String()
}

func (b *Bot) private(s Session, key string, vars reply.Vars) {
	_ = b.hub.Send(s.ID, b.replies.Render(key, vars))
}

func (b *Bot) room(s Session, key string, vars reply.Vars) {
	b.hub.Broadcast(s.Chat, b.replies.Render(key, vars), "")
}

func (b *Bot) storeFailed(s Session, err error) {
	b.logger.Error("chat settings store failed",
		zap.String("chat", s.Chat),
		zap.Error(err),
	)
	b.private(s, "internal_error", reply.Vars{"error": "settings unavailable"})
}
