package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/dashverify/internal/app"
	"github.com/ibeckermayer/dashverify/internal/scheduler"
)

type cmdWatch struct {
	gs       *GlobalState
	schedule string
	timezone string
	now      bool
}

func getCmdWatch(gs *GlobalState) *cobra.Command {
	c := &cmdWatch{gs: gs}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Verify the dashboard on a cron schedule",
		Long: `Keep running and repeat the verification on a cron schedule. A run still
in progress makes the next tick a no-op. SIGHUP reloads the config file;
SIGINT or SIGTERM abort the current run and stop.`,
		Example: `  # Every 30 minutes, plus once right away
  dashverify watch --now

  # Weekdays at 08:00 São Paulo time
  dashverify watch --schedule "0 8 * * 1-5" --timezone America/Sao_Paulo`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	flags := cmd.Flags()
	gs.run.register(flags)
	flags.StringVar(&c.schedule, "schedule", "", "cron expression (default from config)")
	flags.StringVar(&c.timezone, "timezone", "", "IANA timezone for the schedule (default from config)")
	flags.BoolVar(&c.now, "now", false, "run once immediately before waiting for the schedule")

	return cmd
}

func (c *cmdWatch) run(cmd *cobra.Command, _ []string) error {
	a, err := c.gs.newApp(cmd)
	if err != nil {
		return err
	}

	cfg := a.Config()
	schedule := cfg.Watch.Schedule
	if c.schedule != "" {
		schedule = c.schedule
	}
	timezone := cfg.Watch.Timezone
	if c.timezone != "" {
		timezone = c.timezone
	}
	timeout := time.Duration(cfg.Watch.TimeoutMinutes) * time.Minute

	s, err := scheduler.New(timezone, timeout, c.gs.Logger)
	if err != nil {
		return err
	}

	job := verifyJob(a)
	if err := s.AddVerifyJob(schedule, job); err != nil {
		return err
	}

	ctx := cmd.Context()
	if c.now {
		if err := s.RunNow(ctx, "verify", job); err != nil {
			c.gs.Logger.WithError(err).Error("Initial run failed")
		}
	}

	s.Start(ctx)
	for _, j := range s.ListJobs() {
		c.gs.Logger.WithFields(logrus.Fields{"job": j.Name, "next_run": j.NextRun}).Info("Waiting for next run")
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			if err := a.ReloadConfig(); err != nil {
				c.gs.Logger.WithError(err).Error("Failed to reload config, keeping previous")
			}
		case <-ctx.Done():
			c.gs.Logger.Info("Shutting down")
			<-s.Stop().Done()
			return nil
		}
	}
}

// verifyJob wraps App.Verify as a scheduler job
func verifyJob(a *app.App) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := a.Verify(ctx)
		return err
	}
}
