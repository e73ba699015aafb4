// Package commands is the handler set registered by the herald binary.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/heraldbot/herald/internal/logging"
	"github.com/heraldbot/herald/internal/runtime"
	"github.com/heraldbot/herald/internal/schedule"
)

// BotInfo is shared state describing the running bot.
type BotInfo struct {
	User      runtime.User
	StartedAt time.Time
}

// Register wires the shipped handlers into the engine. Commands use a
// pattern mutator so handlers declare bare command words.
func Register(e *runtime.Engine, info BotInfo) *runtime.Engine {
	return e.
		AddData(info).
		PatternMutator(func(pattern string) string { return "^/" + pattern }).
		On(`ping$`, Ping).
		On(`echo(\s|$)`, Echo).
		On(`uptime$`, Uptime).
		On(`whoami$`, WhoAmI).
		AddHandler(runtime.Kinds(runtime.KindTick), Announce).
		Fallback(Unhandled)
}

// Ping replies with a pong, mostly a liveness check.
func Ping(ctx context.Context, m *runtime.Message) error {
	return m.Reply(ctx, "Pong!")
}

// EchoArgs is everything after /echo.
type EchoArgs struct {
	Text string
}

// Echo replies with the message's own arguments.
func Echo(ctx context.Context, m *runtime.Message, args runtime.Args[EchoArgs]) error {
	if args.Value.Text == "" {
		return m.Reply(ctx, "Nothing to echo.")
	}
	return m.Reply(ctx, args.Value.Text)
}

// Uptime reports how long the bot has been running.
func Uptime(ctx context.Context, m *runtime.Message, info runtime.Data[BotInfo]) error {
	up := time.Since(info.Value.StartedAt).Round(time.Second)
	return m.Reply(ctx, fmt.Sprintf("Up %s as @%s", up, info.Value.User.Username))
}

// WhoAmI reports the sender's identity back to them.
func WhoAmI(ctx context.Context, m *runtime.Message) error {
	if m.From.Username != "" {
		return m.Reply(ctx, fmt.Sprintf("You are @%s (id %d)", m.From.Username, m.From.ID))
	}
	return m.Reply(ctx, fmt.Sprintf("You are id %d", m.From.ID))
}

// Announce sends a scheduled job's text to its configured chat.
func Announce(ctx context.Context, s runtime.Session, tick schedule.Tick) error {
	if tick.Job.ChatID == 0 || tick.Job.Text == "" {
		logging.Logger().Warn("schedule job has no chat or text", "job", tick.Job.Name)
		return nil
	}
	return s.Send(ctx, tick.Job.ChatID, tick.Job.Text)
}

// Unhandled logs events no handler matched.
func Unhandled(_ context.Context, ev *runtime.Event) error {
	logging.Logger().Info("unhandled event", "kind", ev.Kind.String(), "text", preview(ev.Text(), 100))
	return nil
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
