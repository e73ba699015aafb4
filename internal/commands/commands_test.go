package commands

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heraldbot/herald/internal/runtime"
	"github.com/heraldbot/herald/internal/schedule"
)

type recordingSession struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSession) Send(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return nil
}

func (s *recordingSession) Reply(ctx context.Context, msg *runtime.Message, text string) error {
	return s.Send(ctx, msg.ChatID, text)
}

func (s *recordingSession) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func testInfo() BotInfo {
	return BotInfo{
		User:      runtime.User{ID: 1, Username: "heraldbot"},
		StartedAt: time.Now().Add(-time.Minute),
	}
}

// runOne spins up a registered engine, pushes the given events, and
// returns everything the session sent.
func runOne(t *testing.T, session *recordingSession, events ...*runtime.Event) []string {
	t.Helper()

	feed := runtime.NewFeed(8)
	e := Register(runtime.New(feed, runtime.WithDispatchMode(runtime.DispatchSequential)), testInfo())

	for _, ev := range events {
		if err := feed.Push(context.Background(), ev); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	feed.Close()

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return session.messages()
}

func msgEvent(session runtime.Session, text string) *runtime.Event {
	return runtime.NewEvent(runtime.KindMessage, &runtime.Message{
		ID:     1,
		ChatID: 100,
		From:   runtime.User{ID: 7, Username: "alice"},
		Text:   text,
	}, session, nil)
}

func TestPingRepliesPong(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "/ping"))
	if len(got) != 1 || got[0] != "Pong!" {
		t.Fatalf("expected [Pong!], got %#v", got)
	}
}

func TestPingIgnoresOtherCase(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "/Ping"))
	if len(got) != 0 {
		t.Fatalf("expected no reply for case mismatch, got %#v", got)
	}
}

func TestEchoRepliesArguments(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "/echo hello world"))
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("expected echoed text, got %#v", got)
	}
}

func TestEchoWithoutArguments(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "/echo"))
	if len(got) != 1 || got[0] != "Nothing to echo." {
		t.Fatalf("expected placeholder reply, got %#v", got)
	}
}

func TestUptimeUsesSharedState(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "/uptime"))
	if len(got) != 1 || !strings.Contains(got[0], "@heraldbot") {
		t.Fatalf("expected uptime reply naming the bot, got %#v", got)
	}
}

func TestWhoAmI(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "/whoami"))
	if len(got) != 1 || !strings.Contains(got[0], "@alice") {
		t.Fatalf("expected sender identity, got %#v", got)
	}
}

func TestAnnounceSendsScheduledText(t *testing.T) {
	session := &recordingSession{}
	tick := runtime.NewEvent(runtime.KindTick, nil, session, schedule.Tick{
		Job: schedule.Job{Name: "standup", ChatID: 42, Text: "Standup time!"},
		At:  time.Now(),
	})

	got := runOne(t, session, tick)
	if len(got) != 1 || got[0] != "Standup time!" {
		t.Fatalf("expected scheduled announcement, got %#v", got)
	}
}

func TestAnnounceSkipsJobWithoutTarget(t *testing.T) {
	session := &recordingSession{}
	tick := runtime.NewEvent(runtime.KindTick, nil, session, schedule.Tick{
		Job: schedule.Job{Name: "standup"},
		At:  time.Now(),
	})

	got := runOne(t, session, tick)
	if len(got) != 0 {
		t.Fatalf("expected no send for unconfigured job, got %#v", got)
	}
}

func TestUnmatchedMessageFallsThroughQuietly(t *testing.T) {
	session := &recordingSession{}
	got := runOne(t, session, msgEvent(session, "unrelated chatter"))
	if len(got) != 0 {
		t.Fatalf("fallback must not reply, got %#v", got)
	}
}
