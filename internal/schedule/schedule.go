// Package schedule turns cron expressions into synthetic tick events
// dispatched through the same handler loop as transport events.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heraldbot/herald/internal/logging"
	"github.com/heraldbot/herald/internal/runtime"
	"github.com/heraldbot/herald/internal/state"
	"github.com/robfig/cron/v3"
)

// ErrNotTick indicates a tick extractor ran against a non-tick event.
var ErrNotTick = errors.New("event is not a scheduled tick")

// Job is one configured cron job.
type Job struct {
	Name   string
	Cron   string
	ChatID int64
	Text   string
}

// Tick is the raw payload of a scheduled event. It is extractable, so
// tick handlers can take it as a parameter directly.
type Tick struct {
	Job Job
	At  time.Time
}

func (t *Tick) ExtractFrom(_ context.Context, ev *runtime.Event, _ *state.Store) error {
	tick, ok := ev.Raw.(Tick)
	if !ok {
		return ErrNotTick
	}
	*t = tick
	return nil
}

// ForJob matches tick events of one named job.
func ForJob(name string) runtime.Filter {
	return runtime.FilterFunc(func(ev *runtime.Event) bool {
		tick, ok := ev.Raw.(Tick)
		return ok && tick.Job.Name == name
	})
}

// Service fires configured jobs into a runtime feed.
type Service struct {
	feed    *runtime.Feed
	session runtime.Session
	jobs    map[string]Job
	order   []Job
	cron    *cron.Cron
	started bool
}

// NewService creates a cron-backed tick emitter. Emitted events carry
// session as their outbound handle.
func NewService(feed *runtime.Feed, session runtime.Session, jobs []Job) *Service {
	byName := make(map[string]Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name] = job
	}
	return &Service{
		feed:    feed,
		session: session,
		jobs:    byName,
		order:   jobs,
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Start registers every job and starts cron execution.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return errors.New("scheduler already started")
	}

	for _, job := range s.order {
		if job.Name == "" {
			return errors.New("schedule job name is required")
		}
		job := job
		_, err := s.cron.AddFunc(job.Cron, func() {
			s.emit(ctx, job)
		})
		if err != nil {
			return fmt.Errorf("register cron job %q: %w", job.Name, err)
		}
	}

	s.cron.Start()
	s.started = true
	logging.Logger().Info("scheduler started", "jobs", len(s.order))
	return nil
}

// Stop stops cron and waits for in-flight callbacks or ctx cancellation.
func (s *Service) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}

	doneCtx := s.cron.Stop()
	s.started = false
	select {
	case <-doneCtx.Done():
		logging.Logger().Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow fires one job immediately by name.
func (s *Service) RunNow(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown schedule job %q", name)
	}
	s.emit(ctx, job)
	return nil
}

func (s *Service) emit(ctx context.Context, job Job) {
	ev := runtime.NewEvent(runtime.KindTick, nil, s.session, Tick{Job: job, At: time.Now()})
	if err := s.feed.Push(ctx, ev); err != nil {
		logging.Logger().Warn("dropping scheduled tick", "job", job.Name, "err", err)
		return
	}
	logging.Logger().Debug("scheduled tick emitted", "job", job.Name)
}
