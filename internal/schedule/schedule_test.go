package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/heraldbot/herald/internal/runtime"
)

type nullSession struct{}

func (nullSession) Send(context.Context, int64, string) error { return nil }

func (nullSession) Reply(context.Context, *runtime.Message, string) error { return nil }

func TestRunNowEmitsOneTick(t *testing.T) {
	feed := runtime.NewFeed(4)
	svc := NewService(feed, nullSession{}, []Job{
		{Name: "standup", Cron: "0 9 * * *", ChatID: 42, Text: "standup time"},
	})

	if err := svc.RunNow(context.Background(), "standup"); err != nil {
		t.Fatalf("run now: %v", err)
	}

	ev, err := feed.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("next event: %v", err)
	}
	if ev.Kind != runtime.KindTick {
		t.Fatalf("expected tick event, got %s", ev.Kind)
	}
	tick, ok := ev.Raw.(Tick)
	if !ok {
		t.Fatalf("expected Tick payload, got %T", ev.Raw)
	}
	if tick.Job.Name != "standup" || tick.Job.ChatID != 42 {
		t.Fatalf("unexpected job: %#v", tick.Job)
	}
}

func TestRunNowUnknownJob(t *testing.T) {
	svc := NewService(runtime.NewFeed(1), nullSession{}, nil)
	if err := svc.RunNow(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown job")
	}
}

func TestStartRejectsInvalidCron(t *testing.T) {
	svc := NewService(runtime.NewFeed(1), nullSession{}, []Job{
		{Name: "bad", Cron: "not a cron"},
	})
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron expression to fail Start")
	}
}

func TestStartRejectsUnnamedJob(t *testing.T) {
	svc := NewService(runtime.NewFeed(1), nullSession{}, []Job{
		{Cron: "* * * * *"},
	})
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected unnamed job to fail Start")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	svc := NewService(runtime.NewFeed(1), nullSession{}, []Job{
		{Name: "hourly", Cron: "0 * * * *"},
	})

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop twice: %v", err)
	}
}

func TestTickExtractor(t *testing.T) {
	now := time.Now()
	ev := runtime.NewEvent(runtime.KindTick, nil, nullSession{}, Tick{
		Job: Job{Name: "standup"},
		At:  now,
	})

	var tick Tick
	if err := tick.ExtractFrom(context.Background(), ev, nil); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if tick.Job.Name != "standup" || !tick.At.Equal(now) {
		t.Fatalf("unexpected tick: %#v", tick)
	}
}

func TestTickExtractorRejectsOtherEvents(t *testing.T) {
	ev := runtime.NewEvent(runtime.KindMessage, &runtime.Message{Text: "hi"}, nullSession{}, nil)

	var tick Tick
	if err := tick.ExtractFrom(context.Background(), ev, nil); err != ErrNotTick {
		t.Fatalf("expected ErrNotTick, got %v", err)
	}
}

func TestForJobFilter(t *testing.T) {
	tickEv := runtime.NewEvent(runtime.KindTick, nil, nullSession{}, Tick{Job: Job{Name: "standup"}})
	otherEv := runtime.NewEvent(runtime.KindTick, nil, nullSession{}, Tick{Job: Job{Name: "lunch"}})

	f := ForJob("standup")
	if !f.Matches(tickEv) {
		t.Fatalf("expected matching job to pass")
	}
	if f.Matches(otherEv) {
		t.Fatalf("expected other job to be filtered out")
	}
}
