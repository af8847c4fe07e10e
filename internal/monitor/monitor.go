// Package monitor is the operator console: a terminal UI (Bubble Tea)
// that implements domain.CommandSink for display commands and renders
// the installation's live state — current effects, vignette, parallax,
// and interaction state — instead of driving a real rendering surface.
// It exists so the brain coordinator always has somewhere to send
// display commands, even on a machine with no projector attached.
package monitor

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/soulframe/internal/domain"
)

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	brandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b")).
			Bold(true)

	stateStyle = map[domain.InteractionState]lipgloss.Style{
		domain.StateIdle:             lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")),
		domain.StatePresence:         lipgloss.NewStyle().Foreground(lipgloss.Color("#bae6fd")),
		domain.StateEngaged:          lipgloss.NewStyle().Foreground(lipgloss.Color("#bbf7d0")),
		domain.StateCloseInteraction: lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a")),
		domain.StateWithdrawing:      lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5")),
	}

	effectLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))
	effectValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4d4d8"))
	logLineDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52525b"))
)

// Console is a Bubble Tea program that renders every display command it
// receives. It satisfies domain.CommandSink.
type Console struct {
	program *tea.Program
	done    atomic.Bool
	quitCh  chan struct{}
}

var _ domain.CommandSink = (*Console)(nil)

// New builds a console. Call Run to start the event loop.
func New() *Console {
	return &Console{quitCh: make(chan struct{})}
}

// Send implements domain.CommandSink. Non-blocking: drops the command
// (without error — a dropped cosmetic update is never fatal) once the
// program has exited.
func (c *Console) Send(cmd domain.Command) error {
	if c.program == nil || c.done.Load() {
		return nil
	}
	c.program.Send(commandMsg{cmd: cmd})
	return nil
}

// SetInteractionState pushes a new FSM state into the console, separate
// from the domain.Command stream since state isn't itself a command.
func (c *Console) SetInteractionState(s domain.InteractionState) {
	if c.program == nil || c.done.Load() {
		return
	}
	c.program.Send(stateMsg{state: s})
}

// Run starts the Bubble Tea event loop. Blocks until Quit is called or
// the user presses 'q'/Ctrl+C.
func (c *Console) Run() error {
	m := newModel()
	c.program = tea.NewProgram(m, tea.WithAltScreen())
	_, err := c.program.Run()
	c.done.Store(true)
	close(c.quitCh)
	return err
}

// Quit stops the event loop.
func (c *Console) Quit() {
	if c.program != nil {
		c.program.Quit()
	}
}

// QuitChan is closed once Run returns.
func (c *Console) QuitChan() <-chan struct{} { return c.quitCh }

type commandMsg struct{ cmd domain.Command }
type stateMsg struct{ state domain.InteractionState }
type tickMsg time.Time

type effectState struct {
	intensity float64
	fadeMs    float64
}

type model struct {
	width, height int

	state   domain.InteractionState
	image   string
	vignette float64
	parallaxX, parallaxY float64
	effects map[string]effectState
	streams map[string]float64 // name -> last known volume
	volBar  progress.Model

	log []string
}

func newModel() model {
	return model{
		state:   domain.StateIdle,
		effects: make(map[string]effectState),
		streams: make(map[string]float64),
		volBar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyRunes:
			if string(msg.Runes) == "q" {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case stateMsg:
		m.state = msg.state
		m.logf("state -> %s", msg.state)
		return m, nil

	case commandMsg:
		m.apply(msg.cmd)
		return m, nil
	}
	return m, nil
}

func (m *model) logf(format string, a ...any) {
	line := fmt.Sprintf(format, a...)
	m.log = append(m.log, line)
	if len(m.log) > 200 {
		m.log = m.log[len(m.log)-200:]
	}
}

func (m *model) apply(cmd domain.Command) {
	switch cmd.Kind {
	case domain.CmdLoadImage:
		m.image = strVal(cmd.Params, "path")
		m.logf("LOAD_IMAGE %s", m.image)
	case domain.CmdCrossfadeImage:
		m.image = strVal(cmd.Params, "path")
		m.logf("CROSSFADE_IMAGE %s (%.0fms)", m.image, floatVal(cmd.Params, "fade_ms"))
	case domain.CmdSetEffect:
		name := strVal(cmd.Params, "effect")
		m.effects[name] = effectState{
			intensity: floatVal(cmd.Params, "intensity"),
			fadeMs:    floatVal(cmd.Params, "fade_ms"),
		}
		m.logf("SET_EFFECT %s=%.2f", name, m.effects[name].intensity)
	case domain.CmdSetEffectIntensity:
		name := strVal(cmd.Params, "effect")
		e := m.effects[name]
		e.intensity = floatVal(cmd.Params, "intensity")
		m.effects[name] = e
		m.logf("SET_EFFECT_INTENSITY %s=%.2f", name, e.intensity)
	case domain.CmdSetVignette:
		m.vignette = floatVal(cmd.Params, "intensity")
		m.logf("SET_VIGNETTE %.2f", m.vignette)
	case domain.CmdSetParallax:
		m.parallaxX = floatVal(cmd.Params, "x")
		m.parallaxY = floatVal(cmd.Params, "y")
	case domain.CmdPlayAmbient:
		m.streams["ambient"] = 0
		m.logf("PLAY_AMBIENT %s", strVal(cmd.Params, "file_path"))
	case domain.CmdStopAmbient:
		m.logf("STOP_AMBIENT")
	case domain.CmdPlayHeartbeat:
		name := "heartbeat_" + strVal(cmd.Params, "region_id")
		m.streams[name] = 0
		m.logf("PLAY_HEARTBEAT %s", name)
	case domain.CmdStopHeartbeat:
		m.logf("STOP_HEARTBEAT %s", strVal(cmd.Params, "region_id"))
	case domain.CmdSetVolume:
		name := strVal(cmd.Params, "name")
		m.streams[name] = floatVal(cmd.Params, "volume")
	case domain.CmdFadeAll:
		m.logf("FADE_ALL -> %.2f", floatVal(cmd.Params, "target_volume"))
	case domain.CmdStopAll:
		m.streams = make(map[string]float64)
		m.logf("STOP_ALL")
	case domain.CmdShutdown:
		m.logf("SHUTDOWN")
	}
}

func clamp01f(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func strVal(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func floatVal(p map[string]any, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (m model) View() string {
	w, h := m.width, m.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}

	var lines []string
	lines = append(lines, brandStyle.Render("  Soul Frame — operator console"))
	lines = append(lines, m.renderStateBar(w))
	lines = append(lines, "")
	lines = append(lines, labelStyle.Render("  image: ")+effectValue.Render(m.image))
	lines = append(lines, labelStyle.Render("  vignette: ")+effectValue.Render(fmt.Sprintf("%.2f", m.vignette)))
	lines = append(lines, labelStyle.Render("  parallax: ")+effectValue.Render(fmt.Sprintf("(%.2f, %.2f)", m.parallaxX, m.parallaxY)))
	lines = append(lines, "")
	lines = append(lines, effectLabel.Render("  effects:"))
	for _, name := range sortedKeys(m.effects) {
		e := m.effects[name]
		lines = append(lines, fmt.Sprintf("    %s %.2f (fade %.0fms)", name, e.intensity, e.fadeMs))
	}
	lines = append(lines, "")
	lines = append(lines, effectLabel.Render("  streams:"))
	for _, name := range sortedFloatKeys(m.streams) {
		vol := clamp01f(m.streams[name])
		lines = append(lines, fmt.Sprintf("    %-16s %s", name, m.volBar.ViewAs(vol)))
	}

	headerH := len(lines) + 2
	logH := h - headerH
	if logH < 0 {
		logH = 0
	}
	lines = append(lines, "")
	lines = append(lines, m.renderLog(logH)...)

	return strings.Join(lines, "\n")
}

func (m model) renderStateBar(w int) string {
	style, ok := stateStyle[m.state]
	if !ok {
		style = labelStyle
	}
	content := " " + style.Render(m.state.String()) + " "
	return barBg.Width(w).Render(content)
}

func (m model) renderLog(height int) []string {
	if height <= 0 {
		return nil
	}
	start := len(m.log) - height
	if start < 0 {
		start = 0
	}
	var out []string
	for _, line := range m.log[start:] {
		out = append(out, logLineDim.Render("  "+line))
	}
	return out
}

func sortedKeys(m map[string]effectState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFloatKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
