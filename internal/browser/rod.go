package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodEngine drives Chrome through go-rod.
type RodEngine struct {
	opts Options
	log  logrus.FieldLogger
}

// NewRodEngine creates a rod-backed engine
func NewRodEngine(opts Options, logger logrus.FieldLogger) *RodEngine {
	return &RodEngine{opts: opts, log: logger.WithField("engine", EngineRod)}
}

func (e *RodEngine) Name() string { return EngineRod }

// Open launches the browser and creates a blank page
func (e *RodEngine) Open(ctx context.Context) (Session, error) {
	l := NewLauncher(e.opts).Context(ctx)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	e.log.WithField("control_url", u).Debug("browser launched")

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &rodSession{
		launcher: l,
		browser:  b,
		page:     page,
		opts:     e.opts,
		log:      e.log,
	}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
	log      logrus.FieldLogger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// timed returns the page bounded by the step timeout and its release func
func (s *rodSession) timed() (*rod.Page, func(), error) {
	if s.closed.Load() {
		return nil, nil, ErrSessionClosed
	}
	if s.opts.StepTimeout <= 0 {
		return s.page, func() {}, nil
	}
	p := s.page.Timeout(s.opts.StepTimeout)
	return p, func() { p.CancelTimeout() }, nil
}

func (s *rodSession) Navigate(url string) error {
	p, release, err := s.timed()
	if err != nil {
		return err
	}
	defer release()

	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) WaitVisible(selector string) error {
	p, release, err := s.timed()
	if err != nil {
		return err
	}
	defer release()

	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (s *rodSession) Click(selector string) error {
	p, release, err := s.timed()
	if err != nil {
		return err
	}
	defer release()

	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) ClickButtonWithText(label string) error {
	re, err := ButtonTextRegex(label)
	if err != nil {
		return err
	}

	p, release, err := s.timed()
	if err != nil {
		return err
	}
	defer release()

	el, err := p.ElementR("button", re)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) FullScreenshot() ([]byte, error) {
	p, release, err := s.timed()
	if err != nil {
		return nil, err
	}
	defer release()

	return p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close closes the browser and removes the launcher's user data dir
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.browser.Close()
		s.launcher.Cleanup()
		s.log.Debug("browser closed")
	})
	return s.closeErr
}
