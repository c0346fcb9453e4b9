package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	browseropts "github.com/ibeckermayer/dashverify/internal/browser"
	"github.com/ibeckermayer/dashverify/internal/config"
	"github.com/ibeckermayer/dashverify/internal/verify"
)

// Source says where configuration comes from. Overlay, if set, is applied
// after every load so command-line flags survive a reload.
type Source struct {
	Path    string
	Overlay func(cfg *config.Config)
}

// EngineFactory builds the browser engine a config asks for.
type EngineFactory func(cfg *config.Config) (browseropts.Engine, error)

// DefaultEngineFactory returns the engine named in cfg.Browser.Engine.
func DefaultEngineFactory(logger logrus.FieldLogger) EngineFactory {
	return func(cfg *config.Config) (browseropts.Engine, error) {
		return browseropts.NewEngine(cfg.Browser.Engine, browseropts.OptionsFromConfig(cfg), logger)
	}
}

// App holds the application state.
type App struct {
	mu        sync.RWMutex
	src       Source        // immutable after creation
	fs        afero.Fs      // immutable after creation
	newEngine EngineFactory // immutable after creation
	log       logrus.FieldLogger
	open      func(path string) error

	// Mutable fields - use getSnapshot() for concurrent access.
	config *config.Config
	runner *verify.Runner
}

// snapshot holds fields that may be replaced by ReloadConfig.
// Use getSnapshot() to obtain a consistent, point-in-time copy.
type snapshot struct {
	config *config.Config
	runner *verify.Runner
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config: a.config,
		runner: a.runner,
	}
}

// New loads configuration from src and creates an App instance.
func New(src Source, fs afero.Fs, newEngine EngineFactory, logger logrus.FieldLogger) (*App, error) {
	a := &App{
		src:       src,
		fs:        fs,
		newEngine: newEngine,
		log:       logger,
		open:      browser.OpenFile,
	}

	cfg, runner, err := a.load()
	if err != nil {
		return nil, err
	}
	a.config = cfg
	a.runner = runner

	return a, nil
}

// load reads, overlays and validates config and builds a runner for it.
func (a *App) load() (*config.Config, *verify.Runner, error) {
	cfg, err := config.LoadOrDefault(a.fs, a.src.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config %s: %w", a.src.Path, err)
	}
	if a.src.Overlay != nil {
		a.src.Overlay(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	engine, err := a.newEngine(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, verify.New(engine, a.fs, a.log), nil
}

// Config returns the current configuration.
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// Verify performs one dashboard verification run.
func (a *App) Verify(ctx context.Context) (*verify.Result, error) {
	s := a.getSnapshot()
	return s.runner.Run(ctx, verify.PlanFromConfig(s.config))
}

// ViewScreenshot opens the last screenshot with the system viewer.
func (a *App) ViewScreenshot() error {
	s := a.getSnapshot()

	path := s.config.Run.Output
	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no screenshot at %s, run verify first", path)
	}

	a.log.WithField("path", path).Info("Opening screenshot")
	return a.open(path)
}

// ReloadConfig reloads the configuration from disk.
// On error the previous configuration stays in effect.
func (a *App) ReloadConfig() error {
	cfg, runner, err := a.load()
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.runner = runner
	a.mu.Unlock()

	a.log.WithField("engine", cfg.Browser.Engine).Info("Configuration reloaded")
	return nil
}

// ViewConfig opens the config file in the default editor.
func (a *App) ViewConfig() error {
	exists, err := afero.Exists(a.fs, a.src.Path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no config file at %s, run config init first", a.src.Path)
	}

	a.log.WithField("path", a.src.Path).Info("Opening config")
	return a.open(a.src.Path)
}
