package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Engine names accepted by NewEngine
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// ErrSessionClosed is returned by Session methods called after Close.
var ErrSessionClosed = errors.New("browser session closed")

// Engine launches browsers.
type Engine interface {
	Name() string

	// Open launches a browser with one blank page. The session lives until
	// Close is called or ctx is cancelled.
	Open(ctx context.Context) (Session, error)
}

// Session is one browser with one page. Every waiting method is bounded by
// the engine's step timeout. A closed session is never reused.
type Session interface {
	// Navigate loads url and waits for the load event.
	Navigate(url string) error
	// WaitVisible waits until the CSS selector matches a visible element.
	WaitVisible(selector string) error
	// Click clicks the first element matching the CSS selector.
	Click(selector string) error
	// ClickButtonWithText clicks the first button whose visible text
	// contains label, ignoring case and surrounding whitespace.
	ClickButtonWithText(label string) error
	// FullScreenshot captures the whole page as PNG.
	FullScreenshot() ([]byte, error)
	Close() error
}

// NewEngine returns the engine registered under name.
func NewEngine(name string, opts Options, logger logrus.FieldLogger) (Engine, error) {
	switch name {
	case EngineChromedp, "":
		return NewChromedpEngine(opts, logger), nil
	case EngineRod:
		return NewRodEngine(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser engine: %s", name)
	}
}
