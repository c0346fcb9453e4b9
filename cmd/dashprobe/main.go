// Command dashprobe opens the dashboard in a visible browser with the same
// launch flags as dashverify, so selectors can be inspected by hand.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ibeckermayer/dashverify/internal/browser"
	"github.com/ibeckermayer/dashverify/internal/config"
)

func main() {
	log := logrus.New()

	path, err := config.ConfigPath()
	if err != nil {
		log.WithError(err).Fatal("Failed to get config path")
	}
	cfg, err := config.LoadOrDefault(afero.NewOsFs(), path)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	url := cfg.Target.URL
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	opts := browser.OptionsFromConfig(cfg)
	opts.Headless = false // so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), browser.ExecAllocatorOptions(opts)...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	log.WithField("url", url).Info("Opening dashboard")
	err = chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(cfg.Selectors.Filters, chromedp.ByQuery),
	)
	if err != nil {
		log.WithError(err).Fatal("Dashboard filters never appeared")
	}

	fmt.Println("Press Enter to close the browser...")
	fmt.Scanln()

	log.Info("Done.")
}
