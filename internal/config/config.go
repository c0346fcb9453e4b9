package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/ibeckermayer/dashverify/internal/dashboard"
)

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Target    TargetConfig    `toml:"target"`
	Selectors SelectorsConfig `toml:"selectors"`
	Browser   BrowserConfig   `toml:"browser"`
	Run       RunConfig       `toml:"run"`
	Watch     WatchConfig     `toml:"watch"`
	Log       LogConfig       `toml:"log"`
}

type TargetConfig struct {
	URL string `toml:"url"`
}

type SelectorsConfig struct {
	Filters         string `toml:"filters"`
	DateRangePicker string `toml:"date_range_picker"`
	RangeLabel      string `toml:"range_label"`
	KPI             string `toml:"kpi"`
}

type BrowserConfig struct {
	Engine       string `toml:"engine"` // "chromedp" or "rod"
	Headless     bool   `toml:"headless"`
	ExecPath     string `toml:"exec_path"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	NoSandbox    bool   `toml:"no_sandbox"`
}

type RunConfig struct {
	StartupDelay Duration `toml:"startup_delay"`
	StepTimeout  Duration `toml:"step_timeout"`
	Output       string   `toml:"output"`
}

type WatchConfig struct {
	Schedule       string `toml:"schedule"`
	Timezone       string `toml:"timezone"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// Default returns a Config whose values match the dashboard constants
func Default() *Config {
	return &Config{
		Version: 1,
		Target: TargetConfig{
			URL: dashboard.DefaultURL,
		},
		Selectors: SelectorsConfig{
			Filters:         dashboard.Filters,
			DateRangePicker: dashboard.DateRangePicker,
			RangeLabel:      dashboard.LastThirtyDaysLabel,
			KPI:             dashboard.KPIFaturamentoBruto,
		},
		Browser: BrowserConfig{
			Engine:       "chromedp",
			Headless:     true,
			WindowWidth:  1280,
			WindowHeight: 720,
		},
		Run: RunConfig{
			StartupDelay: Duration(15 * time.Second),
			StepTimeout:  Duration(30 * time.Second),
			Output:       dashboard.DefaultOutput,
		},
		Watch: WatchConfig{
			Schedule:       "*/30 * * * *",
			Timezone:       "America/Sao_Paulo",
			TimeoutMinutes: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// StartupDelay returns the pause before the browser is launched
func (c *Config) StartupDelay() time.Duration {
	return time.Duration(c.Run.StartupDelay)
}

// StepTimeout returns the per-step wait limit
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.Run.StepTimeout)
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "dashverify"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from path, layered over Default so partial files work.
// A missing file is reported with an error satisfying os.IsNotExist.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not exist
func LoadOrDefault(fs afero.Fs, path string) (*Config, error) {
	cfg, err := Load(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Validate reports settings a run cannot proceed with
func (c *Config) Validate() error {
	switch {
	case c.Target.URL == "":
		return fmt.Errorf("target url is empty")
	case c.Selectors.RangeLabel == "":
		return fmt.Errorf("range label is empty")
	case c.Run.Output == "":
		return fmt.Errorf("output path is empty")
	case c.Run.StartupDelay < 0:
		return fmt.Errorf("startup delay must not be negative, got %s", c.Run.StartupDelay)
	case c.Run.StepTimeout <= 0:
		return fmt.Errorf("step timeout must be positive, got %s", c.Run.StepTimeout)
	}
	return nil
}
