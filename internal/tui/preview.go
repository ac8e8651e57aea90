// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/command"
	"soundstrip/internal/effect"
	"soundstrip/internal/led"
	"soundstrip/internal/render"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	statusInterval = 100 * time.Millisecond
	brightnessStep = 0.1
	speedStep      = 16
	fpsStep        = 10
	meterWidth     = 24
)

// Palette is the set of colors the color key cycles through.
var Palette = []led.RGB{
	{R: 255, G: 80},
	{R: 255},
	{R: 255, G: 200},
	{G: 255},
	{G: 200, B: 255},
	{B: 255},
	{R: 180, B: 255},
	led.White,
}

type previewKeys struct {
	NextEffect     key.Binding
	PrevEffect     key.Binding
	BrightnessUp   key.Binding
	BrightnessDown key.Binding
	SpeedUp        key.Binding
	SpeedDown      key.Binding
	Color          key.Binding
	Power          key.Binding
	FPSUp          key.Binding
	FPSDown        key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func (k previewKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextEffect, k.BrightnessUp, k.Color, k.Power, k.Help, k.Quit}
}

func (k previewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextEffect, k.PrevEffect, k.Color, k.Power},
		{k.BrightnessUp, k.BrightnessDown, k.SpeedUp, k.SpeedDown},
		{k.FPSUp, k.FPSDown, k.Help, k.Quit},
	}
}

var defaultPreviewKeys = previewKeys{
	NextEffect:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next effect")),
	PrevEffect:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev effect")),
	BrightnessUp:   key.NewBinding(key.WithKeys("up", "+", "="), key.WithHelp("↑/+", "brighter")),
	BrightnessDown: key.NewBinding(key.WithKeys("down", "-"), key.WithHelp("↓/-", "dimmer")),
	SpeedUp:        key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "faster")),
	SpeedDown:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "slower")),
	Color:          key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "color")),
	Power:          key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "power")),
	FPSUp:          key.NewBinding(key.WithKeys("."), key.WithHelp(".", "fps +10")),
	FPSDown:        key.NewBinding(key.WithKeys(","), key.WithHelp(",", "fps -10")),
	Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:           key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// PreviewConfig wires the preview to a running renderer.
type PreviewConfig struct {
	Frames  <-chan []led.RGB     // from a led.ChannelSink
	Inbox   *command.Inbox       // renderer's command queue
	Status  func() render.Status // renderer state, safe from any goroutine
	Audio   *analysis.Channel    // optional
	Columns int                  // strip cells drawn, 0 = one per pixel
}

type frameMsg []led.RGB
type framesClosedMsg struct{}
type statusTickMsg time.Time

// PreviewModel draws the strip as the renderer sends it and turns key
// presses into renderer commands. It is the only producer on the inbox
// while it runs.
type PreviewModel struct {
	cfg   PreviewConfig
	keys  previewKeys
	help  help.Model
	width int

	pixels  []led.RGB
	frames  uint64
	audio   analysis.Snapshot
	closed  bool
	dropped int // commands refused because the inbox was full

	// state is what this producer last asked for. It is resynced from the
	// renderer whenever the inbox has drained.
	state      render.Status
	colorIndex int
}

// NewPreviewModel builds the preview. Frames, Inbox and Status are required.
func NewPreviewModel(cfg PreviewConfig) (PreviewModel, error) {
	if cfg.Frames == nil || cfg.Inbox == nil || cfg.Status == nil {
		return PreviewModel{}, fmt.Errorf("preview: frames, inbox and status are required")
	}
	return PreviewModel{
		cfg:   cfg,
		keys:  defaultPreviewKeys,
		help:  help.New(),
		state: cfg.Status(),
	}, nil
}

func (m PreviewModel) Init() tea.Cmd {
	return tea.Batch(waitFrame(m.cfg.Frames), statusTick())
}

func waitFrame(frames <-chan []led.RGB) tea.Cmd {
	return func() tea.Msg {
		px, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(px)
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case frameMsg:
		m.pixels = msg
		m.frames++
		return m, waitFrame(m.cfg.Frames)

	case framesClosedMsg:
		m.closed = true

	case statusTickMsg:
		if m.cfg.Audio != nil {
			m.audio = m.cfg.Audio.Load()
		}
		if m.cfg.Inbox.Len() == 0 {
			m.state = m.cfg.Status()
		}
		return m, statusTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m PreviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.NextEffect):
		m.push(command.SetEffect(stepEffect(m.state.Effect, 1)), func(s *render.Status) {
			s.Effect = stepEffect(s.Effect, 1)
		})
	case key.Matches(msg, k.PrevEffect):
		m.push(command.SetEffect(stepEffect(m.state.Effect, -1)), func(s *render.Status) {
			s.Effect = stepEffect(s.Effect, -1)
		})
	case key.Matches(msg, k.BrightnessUp):
		level := min(m.state.Brightness+brightnessStep, 1)
		m.push(command.SetBrightness(level), func(s *render.Status) { s.Brightness = level })
	case key.Matches(msg, k.BrightnessDown):
		level := max(m.state.Brightness-brightnessStep, 0)
		m.push(command.SetBrightness(level), func(s *render.Status) { s.Brightness = level })
	case key.Matches(msg, k.SpeedUp):
		speed := uint8(min(int(m.state.Speed)+speedStep, 255))
		m.push(command.SetSpeed(speed), func(s *render.Status) { s.Speed = speed })
	case key.Matches(msg, k.SpeedDown):
		speed := uint8(max(int(m.state.Speed)-speedStep, 1))
		m.push(command.SetSpeed(speed), func(s *render.Status) { s.Speed = speed })
	case key.Matches(msg, k.Color):
		next := (m.colorIndex + 1) % len(Palette)
		if m.push(command.SetColor(Palette[next]), func(s *render.Status) { s.Color = Palette[next] }) {
			m.colorIndex = next
		}
	case key.Matches(msg, k.Power):
		on := !m.state.Power
		m.push(command.SetPower(on), func(s *render.Status) { s.Power = on })
	case key.Matches(msg, k.FPSUp):
		fps := min(m.state.FPS+fpsStep, render.MaxFPS)
		m.push(command.SetFPS(fps), func(s *render.Status) { s.FPS = fps })
	case key.Matches(msg, k.FPSDown):
		fps := max(m.state.FPS-fpsStep, render.MinFPS)
		m.push(command.SetFPS(fps), func(s *render.Status) { s.FPS = fps })
	}
	return m, nil
}

// push enqueues c and applies the same change to the local state when the
// inbox accepted it.
func (m *PreviewModel) push(c command.Command, apply func(*render.Status)) bool {
	if !m.cfg.Inbox.TryPush(c) {
		m.dropped++
		return false
	}
	apply(&m.state)
	return true
}

func stepEffect(id effect.ID, delta int) effect.ID {
	n := len(effect.IDs())
	return effect.ID(((int(id)+delta)%n + n) % n)
}

func (m PreviewModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("soundstrip preview"))
	sb.WriteString("\n\n")

	columns := m.cfg.Columns
	if columns <= 0 && m.width > 0 {
		columns = m.width
	}
	if len(m.pixels) == 0 {
		sb.WriteString(dimStyle.Render("waiting for frames..."))
	} else {
		sb.WriteString(led.RenderStrip(m.pixels, columns))
	}
	sb.WriteString("\n\n")

	s := m.state
	power := "on"
	if !s.Power {
		power = "off"
	}
	fmt.Fprintf(&sb, "%s %s   %s %s   %s %3.0f%%   %s %3d   %s %3d   %s %s\n",
		infoStyle.Render("effect"), highlightStyle.Render(s.Effect.String()),
		infoStyle.Render("color"), s.Color.Hex(),
		infoStyle.Render("bright"), s.Brightness*100,
		infoStyle.Render("speed"), s.Speed,
		infoStyle.Render("fps"), s.FPS,
		infoStyle.Render("power"), power)

	if m.cfg.Audio != nil {
		a := m.audio
		fmt.Fprintf(&sb, "\n%s %s\n%s %s\n%s %s\n%s %s\n",
			infoStyle.Render("volume"), meter(a.Volume),
			infoStyle.Render("bass  "), meter(a.Bass),
			infoStyle.Render("mid   "), meter(a.Mid),
			infoStyle.Render("treble"), meter(a.Treble))
		fmt.Fprintf(&sb, "%s %.0f Hz\n", infoStyle.Render("peak  "), a.PeakFrequency)
	}

	fmt.Fprintf(&sb, "\n%s\n", dimStyle.Render(fmt.Sprintf("frames %d  dropped commands %d", m.frames, m.dropped)))
	if m.closed {
		sb.WriteString(dimStyle.Render("renderer stopped"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// meter draws level in [0, 1] as a bar.
func meter(level float64) string {
	n := int(min(max(level, 0), 1)*meterWidth + 0.5)
	return meterStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("·", meterWidth-n))
}

// RunPreview blocks until the user quits.
func RunPreview(cfg PreviewConfig) error {
	m, err := NewPreviewModel(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
