// Package cli implements the dashverify command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ibeckermayer/dashverify/internal/app"
	"github.com/ibeckermayer/dashverify/internal/config"
)

// GlobalState is what every command shares. Tests swap the filesystem,
// output and engine factory.
type GlobalState struct {
	Ctx    context.Context
	FS     afero.Fs
	Stdout io.Writer
	Logger *logrus.Logger

	// EngineFactory overrides app.DefaultEngineFactory when set.
	EngineFactory app.EngineFactory

	configPath string
	logLevel   string
	logFormat  string
	run        runFlags
}

// NewGlobalState returns state backed by the real filesystem and stderr logging.
func NewGlobalState(ctx context.Context) *GlobalState {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &GlobalState{
		Ctx:    ctx,
		FS:     afero.NewOsFs(),
		Stdout: os.Stdout,
		Logger: logger,
	}
}

// runFlags are the verify settings that can be overridden per invocation
type runFlags struct {
	url        string
	output     string
	engine     string
	rangeLabel string
	delay      time.Duration
	timeout    time.Duration
	headed     bool
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.url, "url", "", "dashboard URL (default from config)")
	fs.StringVarP(&f.output, "output", "o", "", "screenshot path (default from config)")
	fs.StringVar(&f.engine, "engine", "", `browser engine, "chromedp" or "rod"`)
	fs.StringVar(&f.rangeLabel, "range-label", "", "visible text of the period shortcut button")
	fs.DurationVar(&f.delay, "delay", 0, "pause before launching the browser (default from config)")
	fs.DurationVar(&f.timeout, "timeout", 0, "limit for each page step (default from config)")
	fs.BoolVar(&f.headed, "headed", false, "show the browser window")
}

// NewRootCommand builds the dashverify command tree.
func NewRootCommand(gs *GlobalState) *cobra.Command {
	root := &cobra.Command{
		Use:   "dashverify",
		Short: "Screenshot the dashboard after applying the 30-day filter",
		Long: `dashverify waits for the local dashboard to come up, opens it in a
headless browser, selects the last-30-days period and saves a full-page
screenshot. Running it without a subcommand is the same as "dashverify verify".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(gs, cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&gs.configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/dashverify/config.toml)")
	pf.StringVar(&gs.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&gs.logFormat, "log-format", "", `log format, "text" or "json"`)

	// Bare "dashverify" accepts the verify flags too
	gs.run.register(root.Flags())

	root.AddCommand(
		getCmdVerify(gs),
		getCmdWatch(gs),
		getCmdOpen(gs),
		getCmdConfig(gs),
	)

	return root
}

// resolveConfigPath returns --config or the platform default
func (gs *GlobalState) resolveConfigPath() (string, error) {
	if gs.configPath != "" {
		return gs.configPath, nil
	}
	return config.ConfigPath()
}

// overlay applies the flags the user actually set on top of cfg
func (gs *GlobalState) overlay(cmd *cobra.Command) func(cfg *config.Config) {
	flags := cmd.Flags()
	return func(cfg *config.Config) {
		if gs.logLevel != "" {
			cfg.Log.Level = gs.logLevel
		}
		if gs.logFormat != "" {
			cfg.Log.Format = gs.logFormat
		}

		if flags.Lookup("url") == nil {
			return
		}
		if flags.Changed("url") {
			cfg.Target.URL = gs.run.url
		}
		if flags.Changed("output") {
			cfg.Run.Output = gs.run.output
		}
		if flags.Changed("engine") {
			cfg.Browser.Engine = gs.run.engine
		}
		if flags.Changed("range-label") {
			cfg.Selectors.RangeLabel = gs.run.rangeLabel
		}
		if flags.Changed("delay") {
			cfg.Run.StartupDelay = config.Duration(gs.run.delay)
		}
		if flags.Changed("timeout") {
			cfg.Run.StepTimeout = config.Duration(gs.run.timeout)
		}
		if flags.Changed("headed") {
			cfg.Browser.Headless = !gs.run.headed
		}
	}
}

// newApp loads config with flag overrides and configures logging from it
func (gs *GlobalState) newApp(cmd *cobra.Command) (*app.App, error) {
	path, err := gs.resolveConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	factory := gs.EngineFactory
	if factory == nil {
		factory = app.DefaultEngineFactory(gs.Logger)
	}

	a, err := app.New(app.Source{Path: path, Overlay: gs.overlay(cmd)}, gs.FS, factory, gs.Logger)
	if err != nil {
		return nil, err
	}

	if err := configureLogger(gs.Logger, a.Config().Log); err != nil {
		return nil, err
	}
	gs.Logger.WithField("config", path).Debug("Configuration loaded")

	return a, nil
}

// configureLogger applies level and format from config
func configureLogger(logger *logrus.Logger, lc config.LogConfig) error {
	if lc.Level != "" {
		level, err := logrus.ParseLevel(lc.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logger.SetLevel(level)
	}

	switch lc.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", lc.Format)
	}

	return nil
}
