// Package browser provides headless browser sessions shared by every verification run.
package browser

import (
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/ibeckermayer/dashverify/internal/config"
)

// Options configures how a browser is launched and how long each step may wait.
type Options struct {
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	NoSandbox    bool
	StepTimeout  time.Duration
}

// OptionsFromConfig builds launch options from the browser and run sections of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless:     cfg.Browser.Headless,
		ExecPath:     cfg.Browser.ExecPath,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
		NoSandbox:    cfg.Browser.NoSandbox,
		StepTimeout:  cfg.StepTimeout(),
	}
}

// ExecAllocatorOptions returns chromedp allocator options for o.
// All chromedp sessions should use this to ensure consistent launch flags.
func ExecAllocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),

		// Disable automation-related extensions and features
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if o.WindowWidth > 0 && o.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(o.WindowWidth, o.WindowHeight))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.NoSandbox {
		opts = append(opts, chromedp.NoSandbox, chromedp.Flag("disable-dev-shm-usage", true))
	}
	if o.Headless {
		opts = append(opts, chromedp.DisableGPU)
	}

	return opts
}

// NewLauncher returns a rod launcher carrying the same flags as ExecAllocatorOptions.
func NewLauncher(o Options) *launcher.Launcher {
	l := launcher.New().Headless(o.Headless)

	if o.ExecPath != "" {
		l = l.Bin(o.ExecPath)
	}

	l = l.Set("disable-extensions").
		Set("disable-default-apps").
		Set("no-first-run").
		Set("no-default-browser-check")

	if o.WindowWidth > 0 && o.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", o.WindowWidth, o.WindowHeight))
	}
	if o.NoSandbox {
		l = l.Set("no-sandbox").Set("disable-dev-shm-usage")
	}
	if o.Headless {
		l = l.Set("disable-gpu")
	}

	return l
}

// FindExecPath looks for a local Chrome or Chromium binary.
// CHROME_BIN wins when set, as in container images.
func FindExecPath() (string, bool) {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		if _, err := os.Stat(bin); err == nil {
			return bin, true
		}
	}
	return launcher.LookPath()
}
