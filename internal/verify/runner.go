// Package verify drives one browser session through the dashboard's
// 30-day filter path and saves a screenshot of the result.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ibeckermayer/dashverify/internal/browser"
	"github.com/ibeckermayer/dashverify/internal/config"
)

// Plan is everything one verification run needs to know.
type Plan struct {
	URL             string
	Filters         string
	DateRangePicker string
	RangeLabel      string
	KPI             string
	Output          string
	StartupDelay    time.Duration
}

// PlanFromConfig builds a Plan from cfg
func PlanFromConfig(cfg *config.Config) Plan {
	return Plan{
		URL:             cfg.Target.URL,
		Filters:         cfg.Selectors.Filters,
		DateRangePicker: cfg.Selectors.DateRangePicker,
		RangeLabel:      cfg.Selectors.RangeLabel,
		KPI:             cfg.Selectors.KPI,
		Output:          cfg.Run.Output,
		StartupDelay:    cfg.StartupDelay(),
	}
}

// Result describes a successful run
type Result struct {
	RunID     string
	Engine    string
	Output    string
	Bytes     int
	Width     int
	Height    int
	StartedAt time.Time
	Duration  time.Duration
}

// Runner executes verification runs. It is safe to call Run again after it
// returns; each call opens its own browser session.
type Runner struct {
	engine browser.Engine
	fs     afero.Fs
	log    logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Runner that launches browsers with engine and writes to fs
func New(engine browser.Engine, fs afero.Fs, logger logrus.FieldLogger) *Runner {
	return &Runner{
		engine: engine,
		fs:     fs,
		log:    logger,
		sleep:  sleepContext,
	}
}

// Run waits out the startup delay, then opens a browser, applies the 30-day
// range on the dashboard and writes a full-page PNG to plan.Output.
// The browser is closed on every return path. No file is written unless
// every step succeeded.
func (r *Runner) Run(ctx context.Context, plan Plan) (*Result, error) {
	runID := uuid.New().String()
	log := r.log.WithFields(logrus.Fields{
		"run_id": runID,
		"engine": r.engine.Name(),
	})
	start := time.Now()

	// The dashboard's dev server gets no readiness check; it is given a
	// fixed head start instead.
	if plan.StartupDelay > 0 {
		log.WithField("delay", plan.StartupDelay).Info("Waiting for dashboard to start")
		if err := r.sleep(ctx, plan.StartupDelay); err != nil {
			return nil, err
		}
	}

	log.Debug("Launching browser")
	session, err := r.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close browser")
		}
	}()

	steps := []struct {
		name string
		do   func() error
	}{
		{"navigate to " + plan.URL, func() error { return session.Navigate(plan.URL) }},
		{"wait for filters", func() error { return session.WaitVisible(plan.Filters) }},
		{"open date range picker", func() error { return session.Click(plan.DateRangePicker) }},
		{fmt.Sprintf("select %q", plan.RangeLabel), func() error { return session.ClickButtonWithText(plan.RangeLabel) }},
		{"wait for kpi", func() error { return session.WaitVisible(plan.KPI) }},
	}

	for _, step := range steps {
		log.WithField("step", step.name).Debug("Running step")
		if err := step.do(); err != nil {
			return nil, fmt.Errorf("failed to %s: %w", step.name, err)
		}
	}

	buf, err := session.FullScreenshot()
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	img, err := png.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	if err := writeFile(r.fs, plan.Output, buf); err != nil {
		return nil, fmt.Errorf("failed to write screenshot: %w", err)
	}

	res := &Result{
		RunID:     runID,
		Engine:    r.engine.Name(),
		Output:    plan.Output,
		Bytes:     len(buf),
		Width:     img.Width,
		Height:    img.Height,
		StartedAt: start,
		Duration:  time.Since(start),
	}

	log.WithFields(logrus.Fields{
		"output":   res.Output,
		"bytes":    res.Bytes,
		"size":     fmt.Sprintf("%dx%d", res.Width, res.Height),
		"duration": res.Duration.Round(time.Millisecond),
	}).Info("Screenshot saved")

	return res, nil
}

// writeFile replaces path with data via a sibling temp file, so readers
// never see a half-written image.
func writeFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".partial"
	if err := afero.WriteFile(fs, tmp, data, 0644); err != nil {
		fs.Remove(tmp)
		return err
	}

	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return err
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
