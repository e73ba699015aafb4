package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heraldbot/herald/internal/commands"
	"github.com/heraldbot/herald/internal/config"
	"github.com/heraldbot/herald/internal/logging"
	"github.com/heraldbot/herald/internal/runtime"
	"github.com/heraldbot/herald/internal/schedule"
	"github.com/heraldbot/herald/internal/telegram"
	"github.com/spf13/cobra"
)

const tickFeedBuffer = 16

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Connect to Telegram and run the event loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Telegram.Token == "" {
				token, err := promptToken()
				if err != nil {
					return err
				}
				cfg.Telegram.Token = token
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := os.WriteFile(cfg.PIDPath(), []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
				return fmt.Errorf("write pid file %q: %w", cfg.PIDPath(), err)
			}
			defer os.Remove(cfg.PIDPath())

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runEngine(runCtx, cfg)
		},
	}
}

// runEngine connects the transport, wires the scheduler feed into the
// same loop, and runs until the context ends or the transport fails.
func runEngine(ctx context.Context, cfg *config.Config) error {
	tg, err := telegram.Connect(ctx, cfg.Telegram.Token)
	if err != nil {
		return err
	}

	mode := runtime.DispatchConcurrent
	if cfg.Dispatch.Policy == config.DispatchSequential {
		mode = runtime.DispatchSequential
	}

	jobs := make([]schedule.Job, 0, len(cfg.Schedule))
	for _, job := range cfg.Schedule {
		jobs = append(jobs, schedule.Job{
			Name:   job.Name,
			Cron:   job.Cron,
			ChatID: job.ChatID,
			Text:   job.Text,
		})
	}
	tickFeed := runtime.NewFeed(tickFeedBuffer)
	scheduler := schedule.NewService(tickFeed, tg, jobs)

	engine := commands.Register(
		runtime.New(runtime.Merge(tg, tickFeed), runtime.WithDispatchMode(mode)),
		commands.BotInfo{User: tg.Me(), StartedAt: time.Now()},
	)

	tg.Start(ctx)
	if len(jobs) > 0 {
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := scheduler.Stop(stopCtx); err != nil {
				logging.Logger().Warn("scheduler stop", "err", err)
			}
		}()
	}

	return engine.Run(ctx)
}
