package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// ChromedpEngine drives Chrome through chromedp.
type ChromedpEngine struct {
	opts Options
	log  logrus.FieldLogger
}

// NewChromedpEngine creates a chromedp-backed engine
func NewChromedpEngine(opts Options, logger logrus.FieldLogger) *ChromedpEngine {
	return &ChromedpEngine{opts: opts, log: logger.WithField("engine", EngineChromedp)}
}

func (e *ChromedpEngine) Name() string { return EngineChromedp }

// Open starts Chrome and attaches to its first tab
func (e *ChromedpEngine) Open(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, ExecAllocatorOptions(e.opts)...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(e.log.Debugf),
		chromedp.WithErrorf(e.log.Warnf),
	)

	s := &chromedpSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		timeout:     e.opts.StepTimeout,
		log:         e.log,
	}
	chromedp.ListenTarget(browserCtx, s.onEvent)

	// The first Run allocates the browser; it must use the unbounded
	// browser context or a timeout would tear the browser down with it.
	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return s, nil
}

type chromedpSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	log         logrus.FieldLogger

	requests  atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// onEvent runs on chromedp's event loop and must not block
func (s *chromedpSession) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		s.requests.Add(1)
		s.log.WithFields(logrus.Fields{
			"method": e.Request.Method,
			"url":    e.Request.URL,
		}).Debug("request")
	case *network.EventLoadingFailed:
		s.log.WithFields(logrus.Fields{
			"type":  e.Type,
			"error": e.ErrorText,
		}).Debug("request failed")
	}
}

// run executes actions bounded by the step timeout
func (s *chromedpSession) run(actions ...chromedp.Action) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
	}

	return chromedp.Run(ctx, actions...)
}

func (s *chromedpSession) Navigate(url string) error {
	return s.run(chromedp.Navigate(url))
}

func (s *chromedpSession) WaitVisible(selector string) error {
	return s.run(chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromedpSession) Click(selector string) error {
	return s.run(chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromedpSession) ClickButtonWithText(label string) error {
	xpath, err := ButtonTextXPath(label)
	if err != nil {
		return err
	}
	return s.run(chromedp.Click(xpath, chromedp.BySearch))
}

func (s *chromedpSession) FullScreenshot() ([]byte, error) {
	var buf []byte
	// quality 100 selects PNG
	if err := s.run(chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close shuts the browser down and waits for it to exit
func (s *chromedpSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
		s.log.WithField("requests", s.requests.Load()).Debug("browser closed")
	})
	return s.closeErr
}
