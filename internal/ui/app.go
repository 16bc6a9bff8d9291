package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/cycleglobe/internal/cycle"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/resolve"
	"github.com/abelbrown/cycleglobe/internal/scene"
	"github.com/abelbrown/cycleglobe/internal/store"
)

// Asset status lines.
const (
	StatusLoading = "Loading model..."
	StatusLoaded  = "Model loaded"
	StatusFailed  = "Failed to load model"
)

// Orbit step per key press, in radians, and zoom factor per press.
const (
	orbitStep = 0.25
	zoomStep  = 1.15
)

// maxFrameGap caps the spin applied after a stall (suspend, slow terminal).
const maxFrameGap = 250 * time.Millisecond

// infoLines is the height of the field block under the globe.
const infoLines = 2

// ObsConfig wires observability into the App.
type ObsConfig struct {
	Logger *otel.Logger
	Ring   *otel.RingBuffer
}

// AppConfig holds everything the App needs. Function fields run inside
// tea.Cmds, off the UI goroutine. Any of them may be nil.
type AppConfig struct {
	Scene *scene.Scene

	// Resolve runs one poll. It must always return a state.
	Resolve func(ctx context.Context) resolve.Report
	// LoadTextures fetches the day and lights maps.
	LoadTextures func(ctx context.Context) (day, lights scene.Texture, err error)
	// SourceStats reads the attempt ledger for the sources panel.
	SourceStats func() ([]store.SourceStats, error)

	FrameInterval time.Duration // default 1/30 s
	PollInterval  time.Duration // default 1 s
	Now           func() time.Time

	// Ctx bounds the work started by commands. Defaults to Background.
	Ctx context.Context

	Obs ObsConfig
}

// Fields are the text lines the UI shows, one per original display element.
type Fields struct {
	TimeNow    string
	Phase      string
	NextChange string
	Source     string
	Status     string
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the resolver or store. Results arrive via messages.
type App struct {
	cfg   AppConfig
	scene *scene.Scene
	now   func() time.Time
	ctx   context.Context

	fields    Fields
	state     cycle.State
	haveState bool
	fellBack  bool
	polling   bool
	loading   bool
	lastFrame time.Time
	clock     time.Time

	stats    []store.SourceStats
	statsErr error

	spinner spinner.Model
	help    help.Model

	width        int
	height       int
	ready        bool
	sourcesPanel bool
	debugVisible bool
}

// NewAppWithConfig creates an App. A nil Scene gets the default rig.
func NewAppWithConfig(cfg AppConfig) App {
	if cfg.Scene == nil {
		cfg.Scene = scene.New()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = time.Second / 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	if cfg.Obs.Logger == nil {
		cfg.Obs.Logger = otel.NewNullLogger()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorSuccess)

	a := App{
		cfg:     cfg,
		scene:   cfg.Scene,
		now:     cfg.Now,
		ctx:     cfg.Ctx,
		spinner: s,
		help:    help.New(),
	}
	a.fields.Status = StatusLoaded
	if cfg.LoadTextures != nil {
		a.loading = true
		a.fields.Status = StatusLoading
	}
	return a
}

// Init starts the frame loop, the clock (which fires the first poll right
// away), and the texture load.
func (a App) Init() tea.Cmd {
	now := a.now()
	cmds := []tea.Cmd{
		func() tea.Msg { return ClockTick{At: now} },
		a.frameTick(),
		a.spinner.Tick,
	}
	if a.cfg.LoadTextures != nil {
		cmds = append(cmds, a.loadTextures())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var frame bool
	switch msg.(type) {
	case FrameTick, spinner.TickMsg:
		frame = true
	}
	if otel.Traces(frame) {
		a.cfg.Obs.Logger.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindMsgReceived,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.scene.Resize(a.globeSize())
		a.cfg.Obs.Logger.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindResize,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%dx%d", msg.Width, msg.Height),
		})
		return a, nil

	case FrameTick:
		dt := a.cfg.FrameInterval
		if !a.lastFrame.IsZero() {
			dt = msg.At.Sub(a.lastFrame)
		}
		if dt < 0 {
			dt = 0
		}
		if dt > maxFrameGap {
			dt = maxFrameGap
		}
		a.lastFrame = msg.At
		a.scene.Advance(dt)
		return a, a.frameTick()

	case ClockTick:
		a.clock = msg.At
		a.fields.TimeNow = "Current Time: " + msg.At.Format("3:04:05 PM")
		if a.haveState {
			a.fields.NextChange = nextChangeText(a.state.Remaining(msg.At))
		}
		cmds := []tea.Cmd{a.clockTick()}
		if cmd := a.startPoll(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case CycleResolved:
		a.polling = false
		a.applyState(msg.Report)
		return a, nil

	case TexturesLoaded:
		a.loading = false
		if msg.Err != nil {
			a.fields.Status = StatusFailed
			a.cfg.Obs.Logger.Emit(otel.Event{
				Level: otel.LevelWarn,
				Kind:  otel.KindAssetError,
				Comp:  "ui",
				Err:   msg.Err.Error(),
			})
			return a, nil
		}
		a.scene.SetTextures(msg.Day, msg.Lights)
		a.fields.Status = StatusLoaded
		a.cfg.Obs.Logger.Info(otel.KindAssetLoaded, "ui", "textures loaded")
		return a, nil

	case SourcesLoaded:
		a.stats = msg.Stats
		a.statsErr = msg.Err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// startPoll returns the poll command, or nil when a poll is already running.
func (a *App) startPoll() tea.Cmd {
	if a.cfg.Resolve == nil {
		return nil
	}
	if a.polling {
		a.cfg.Obs.Logger.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindPollSkipped,
			Comp:  "ui",
			Msg:   "previous poll still running",
		})
		return nil
	}
	a.polling = true
	resolveFn := a.cfg.Resolve
	ctx := a.ctx
	return func() tea.Msg {
		return CycleResolved{Report: resolveFn(ctx)}
	}
}

// applyState writes a resolved poll into the fields and the scene lights.
func (a *App) applyState(rep resolve.Report) {
	a.state = rep.State
	a.haveState = true
	a.fellBack = rep.FellBack

	at := a.clock
	if at.IsZero() {
		at = rep.At
	}
	a.fields.Phase = "Current Phase: " + rep.State.Phase()
	a.fields.NextChange = nextChangeText(rep.State.Remaining(at))
	a.fields.Source = "Source: " + rep.State.Source
	a.scene.ApplyCycle(rep.State.IsDay)
}

func nextChangeText(d time.Duration) string {
	return "Next Change In: " + cycle.Countdown(d)
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.cfg.Obs.Logger.Emit(otel.Event{
		Level: otel.LevelDebug,
		Kind:  otel.KindKeyPress,
		Comp:  "ui",
		Msg:   msg.String(),
	})

	if a.debugVisible && !key.Matches(msg, keys.Debug) && !key.Matches(msg, keys.Quit) {
		return a, nil
	}

	c := a.scene.Controls
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Debug):
		a.debugVisible = !a.debugVisible
		return a, nil

	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.scene.Resize(a.globeSize())
		return a, nil

	case key.Matches(msg, keys.Left):
		c.RotateLeft(orbitStep)
	case key.Matches(msg, keys.Right):
		c.RotateLeft(-orbitStep)
	case key.Matches(msg, keys.Up):
		c.RotateUp(orbitStep)
	case key.Matches(msg, keys.Down):
		c.RotateUp(-orbitStep)
	case key.Matches(msg, keys.ZoomIn):
		c.DollyIn(zoomStep)
	case key.Matches(msg, keys.ZoomOut):
		c.DollyOut(zoomStep)

	case key.Matches(msg, keys.Refresh):
		return a, a.startPoll()

	case key.Matches(msg, keys.Sources):
		a.sourcesPanel = !a.sourcesPanel
		if a.sourcesPanel {
			return a, a.loadSources()
		}
	}
	return a, nil
}

func (a App) frameTick() tea.Cmd {
	return tea.Tick(a.cfg.FrameInterval, func(t time.Time) tea.Msg {
		return FrameTick{At: t}
	})
}

func (a App) clockTick() tea.Cmd {
	return tea.Tick(a.cfg.PollInterval, func(t time.Time) tea.Msg {
		return ClockTick{At: t}
	})
}

func (a App) loadTextures() tea.Cmd {
	load := a.cfg.LoadTextures
	ctx := a.ctx
	return func() tea.Msg {
		day, lights, err := load(ctx)
		return TexturesLoaded{Day: day, Lights: lights, Err: err}
	}
}

func (a App) loadSources() tea.Cmd {
	if a.cfg.SourceStats == nil {
		return nil
	}
	statsFn := a.cfg.SourceStats
	return func() tea.Msg {
		stats, err := statsFn()
		return SourcesLoaded{Stats: stats, Err: err}
	}
}

// globeSize is the cell area left for the globe after the info block and
// the status bar (or expanded help).
func (a App) globeSize() (int, int) {
	h := a.height - infoLines - lipgloss.Height(a.statusBar())
	if h < 0 {
		h = 0
	}
	return a.width, h
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		overlay := debugOverlay(a.cfg.Obs.Ring, a.width, a.height-1)
		return overlay + "\n" + debugStatusBar(a.width)
	}

	var body string
	if a.sourcesPanel {
		_, h := a.globeSize()
		body = lipgloss.Place(a.width, h, lipgloss.Center, lipgloss.Center,
			sourcesTable(a.stats, a.statsErr, a.width))
	} else {
		body = renderGlobe(a.scene.Render())
	}

	return strings.Join([]string{body, a.infoBlock(), a.statusBar()}, "\n")
}

// infoBlock renders the clock, phase, countdown, source, and asset status.
func (a App) infoBlock() string {
	f := a.fields
	sep := InfoLabel.Render("  │  ")

	phase := f.Phase
	if a.haveState {
		badge := NightBadge
		if a.state.IsDay {
			badge = DayBadge
		}
		phase = InfoLabel.Render("Current Phase: ") + badge.Render(a.state.Phase())
	}
	line1 := InfoValue.Render(f.TimeNow) + sep + phase + sep + InfoValue.Render(f.NextChange)

	source := f.Source
	if a.haveState {
		badge := SourceBadge
		if a.fellBack {
			badge = FallbackBadge
		}
		source = InfoLabel.Render("Source:") + " " + badge.Render(a.state.Source)
	}

	var status string
	switch {
	case a.loading:
		status = a.spinner.View() + " " + f.Status
	case f.Status == StatusFailed:
		status = ErrorStyle.Render(f.Status)
	default:
		status = OKStyle.Render(f.Status)
	}
	line2 := source + sep + status
	if a.polling {
		line2 += " " + a.spinner.View()
	}

	return InfoBar.Width(a.width).Render(line1 + "\n" + line2)
}

func (a App) statusBar() string {
	return StatusBar.Width(a.width).Render(a.help.View(keys))
}

// sourcesTable renders per-source ledger stats.
func sourcesTable(stats []store.SourceStats, err error, width int) string {
	var lines []string
	lines = append(lines, SourcesHeader.Render("Sources"))
	lines = append(lines, "")
	switch {
	case err != nil:
		lines = append(lines, ErrorStyle.Render("ledger unavailable: "+err.Error()))
	case len(stats) == 0:
		lines = append(lines, InfoLabel.Render("no polls recorded yet"))
	default:
		lines = append(lines, SourcesHeader.Render(fmt.Sprintf("%-24s %6s %6s  %-8s  %s", "SOURCE", "OK", "FAIL", "LAST", "LAST ERROR")))
		for _, s := range stats {
			last := "-"
			if !s.LastAt.IsZero() {
				last = formatAge(time.Since(s.LastAt))
			}
			lines = append(lines, fmt.Sprintf("%-24s %6d %6d  %-8s  %s",
				truncateRunes(s.Source, 24), s.OK, s.Failed, last, truncateRunes(s.LastErr, 40)))
		}
	}
	lines = append(lines, "")
	lines = append(lines, StatusBarKey.Render("s")+StatusBarText.Render(":close"))
	return SourcesPanel.Width(panelWidth(width, 100)).Render(strings.Join(lines, "\n"))
}

// Fields returns the current text fields (for testing).
func (a App) Fields() Fields {
	return a.fields
}

// Polling reports whether a poll is in flight (for testing).
func (a App) Polling() bool {
	return a.polling
}

// Scene returns the rendered scene (for testing).
func (a App) Scene() *scene.Scene {
	return a.scene
}
