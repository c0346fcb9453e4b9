package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/dashverify/internal/browser"
	"github.com/ibeckermayer/dashverify/internal/config"
)

const cfgPath = "/etc/dashverify/config.toml"

type recorder struct {
	engines  []string
	urls     []string
	delays   []time.Duration
	timeouts []time.Duration

	// onNavigate runs inside Navigate, after the URL is recorded
	onNavigate func()
	shot       []byte
}

func (r *recorder) factory(cfg *config.Config) (browser.Engine, error) {
	r.engines = append(r.engines, cfg.Browser.Engine)
	r.delays = append(r.delays, cfg.StartupDelay())
	r.timeouts = append(r.timeouts, cfg.StepTimeout())
	return &fakeEngine{name: cfg.Browser.Engine, r: r}, nil
}

type fakeEngine struct {
	name string
	r    *recorder
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Open(ctx context.Context) (browser.Session, error) {
	return &fakeSession{r: e.r}, nil
}

type fakeSession struct{ r *recorder }

func (s *fakeSession) Navigate(url string) error {
	s.r.urls = append(s.r.urls, url)
	if s.r.onNavigate != nil {
		s.r.onNavigate()
	}
	return nil
}
func (s *fakeSession) WaitVisible(string) error         { return nil }
func (s *fakeSession) Click(string) error               { return nil }
func (s *fakeSession) ClickButtonWithText(string) error { return nil }
func (s *fakeSession) FullScreenshot() ([]byte, error)  { return s.r.shot, nil }
func (s *fakeSession) Close() error                     { return nil }

func newTestState(t *testing.T) (*GlobalState, *recorder, *bytes.Buffer, *test.Hook) {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 8, 6))))

	logger, hook := test.NewNullLogger()
	stdout := &bytes.Buffer{}
	rec := &recorder{shot: img.Bytes()}

	gs := &GlobalState{
		Ctx:           context.Background(),
		FS:            afero.NewMemMapFs(),
		Stdout:        stdout,
		Logger:        logger,
		EngineFactory: rec.factory,
	}
	return gs, rec, stdout, hook
}

func execute(gs *GlobalState, args ...string) error {
	root := NewRootCommand(gs)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(gs.Ctx)
}

func TestBareCommandVerifies(t *testing.T) {
	gs, rec, stdout, _ := newTestState(t)

	err := execute(gs, "--config", cfgPath, "--delay", "0s", "--url", "http://127.0.0.1:9000/new-dashboard", "-o", "/shots/d.png")
	require.NoError(t, err)

	assert.Equal(t, []string{"chromedp"}, rec.engines)
	assert.Equal(t, []string{"http://127.0.0.1:9000/new-dashboard"}, rec.urls)
	assert.Equal(t, "/shots/d.png\n", stdout.String())

	exists, err := afero.Exists(gs.FS, "/shots/d.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVerifyFlagsOverrideConfigFile(t *testing.T) {
	gs, rec, _, _ := newTestState(t)

	cfg := config.Default()
	cfg.Run.StartupDelay = 0
	cfg.Target.URL = "http://from-file:8080/new-dashboard"
	require.NoError(t, cfg.Save(gs.FS, cfgPath))

	require.NoError(t, execute(gs, "verify", "--config", cfgPath, "--engine", "rod"))
	assert.Equal(t, []string{"rod"}, rec.engines)
	assert.Equal(t, []string{"http://from-file:8080/new-dashboard"}, rec.urls)

	exists, err := afero.Exists(gs.FS, config.Default().Run.Output)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVerifyInvalidOverride(t *testing.T) {
	gs, rec, _, _ := newTestState(t)

	err := execute(gs, "verify", "--config", cfgPath, "--timeout", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Empty(t, rec.engines)
}

func TestSubSecondDurationFlags(t *testing.T) {
	gs, _, _, _ := newTestState(t)

	cmd := getCmdVerify(gs)
	require.NoError(t, cmd.ParseFlags([]string{"--delay", "1500ms", "--timeout", "500ms"}))

	cfg := config.Default()
	gs.overlay(cmd)(cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.StartupDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.StepTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestVerifyKeepsSubSecondTimeout(t *testing.T) {
	gs, rec, _, _ := newTestState(t)

	require.NoError(t, execute(gs, "verify", "--config", cfgPath, "--delay", "50ms", "--timeout", "500ms"))
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, rec.delays)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, rec.timeouts)
	assert.Len(t, rec.urls, 1)
}

func TestLogFlags(t *testing.T) {
	gs, _, _, _ := newTestState(t)

	require.NoError(t, execute(gs, "config", "show", "--config", cfgPath, "--log-level", "debug", "--log-format", "json"))
	assert.Equal(t, logrus.DebugLevel, gs.Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, gs.Logger.Formatter)

	gs, _, _, _ = newTestState(t)
	err := execute(gs, "config", "show", "--config", cfgPath, "--log-format", "xml")
	assert.EqualError(t, err, "unknown log format: xml")
}

func TestConfigInitPathShow(t *testing.T) {
	gs, _, stdout, _ := newTestState(t)

	require.NoError(t, execute(gs, "config", "path", "--config", cfgPath))
	assert.Equal(t, cfgPath+"\n", stdout.String())

	require.NoError(t, execute(gs, "config", "init", "--config", cfgPath))
	loaded, err := config.Load(gs.FS, cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)

	err = execute(gs, "config", "init", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, execute(gs, "config", "init", "--config", cfgPath, "--force"))

	stdout.Reset()
	require.NoError(t, execute(gs, "config", "show", "--config", cfgPath))
	out := stdout.String()
	assert.Contains(t, out, "[selectors]")
	assert.Contains(t, out, `range_label = "Últimos 30 dias"`)
	assert.Contains(t, out, `url = "http://localhost:8080/new-dashboard"`)
	assert.Contains(t, out, `step_timeout = "30s"`)
}

func TestOpenScreenshotMissing(t *testing.T) {
	gs, _, _, _ := newTestState(t)

	err := execute(gs, "open", "screenshot", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run verify first")
}

func TestWatchStopsOnCancel(t *testing.T) {
	gs, rec, _, hook := newTestState(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gs.Ctx = ctx
	rec.onNavigate = cancel

	err := execute(gs, "watch", "--config", cfgPath, "--now", "--delay", "0s", "--timezone", "UTC", "--schedule", "0 3 * * *")
	require.NoError(t, err)
	assert.Len(t, rec.urls, 1)

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "Waiting for next run")
	assert.Contains(t, joined, "Shutting down")
}

func TestWatchRejectsBadSchedule(t *testing.T) {
	gs, _, _, _ := newTestState(t)

	err := execute(gs, "watch", "--config", cfgPath, "--timezone", "UTC", "--schedule", "whenever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule job verify")
}
