package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/stagesim/internal/trajectory"
)

const (
	canvasWidth  = 60
	canvasHeight = 18
	tickRate     = time.Second / 30
)

type TickMsg time.Time

// Replay steps through the samples of a stored run.
type Replay struct {
	title   string
	tr      *trajectory.Trajectory
	cursor  int
	series  int
	playing bool
	theme   Theme
	canvas  *Canvas
}

func NewReplay(title string, tr *trajectory.Trajectory) Replay {
	return Replay{
		title:  title,
		tr:     tr,
		theme:  Themes[0],
		canvas: NewCanvas(canvasWidth, canvasHeight),
	}
}

// WithTheme returns a copy of m drawn in theme t.
func (m Replay) WithTheme(t Theme) Replay {
	m.theme = t
	return m
}

func (m Replay) Theme() Theme { return m.theme }

func (m Replay) Cursor() int { return m.cursor }

func (m Replay) Playing() bool { return m.playing }

func (m Replay) Init() tea.Cmd { return nil }

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space", "p":
			m.playing = !m.playing
			if m.playing {
				if m.cursor == m.tr.Len()-1 {
					m.cursor = 0
				}
				return m, tick()
			}
		case "right", "l":
			m.playing = false
			m.move(1)
		case "left", "h":
			m.playing = false
			m.move(-1)
		case "]":
			m.playing = false
			m.jumpPhase(1)
		case "[":
			m.playing = false
			m.jumpPhase(-1)
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = m.tr.Len() - 1
		case "tab":
			m.series = (m.series + 1) % len(SeriesNames)
		case "t":
			m.theme = nextTheme(m.theme)
		}
	case TickMsg:
		if !m.playing {
			return m, nil
		}
		m.move(1)
		if m.cursor == m.tr.Len()-1 {
			m.playing = false
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *Replay) move(d int) {
	m.cursor = min(max(m.cursor+d, 0), m.tr.Len()-1)
}

// jumpPhase moves to the first sample of the next or previous phase.
func (m *Replay) jumpPhase(d int) {
	p := m.tr.Phase[m.cursor]
	seg := m.tr.Segments[p]
	if d < 0 && m.cursor > seg.First {
		m.cursor = seg.First
		return
	}
	p = min(max(p+d, 0), len(m.tr.Segments)-1)
	m.cursor = m.tr.Segments[p].First
}

func (m Replay) View() string {
	name := SeriesNames[m.series]
	ys, _ := Series(m.tr, name)

	m.canvas.Clear()
	vp := Fit(m.tr.Time, ys)
	m.canvas.PlotSeries(vp, m.tr.Time, ys)
	m.canvas.VLine(vp, m.tr.Time[m.cursor])

	plotStyle := lipgloss.NewStyle().Foreground(m.theme.Primary).Padding(1, 2)
	headStyle := lipgloss.NewStyle().Foreground(m.theme.Secondary).Bold(true)
	canvasView := plotStyle.Render(headStyle.Render(fmt.Sprintf("%s (%s)", name, seriesUnit(name))) + "\n" + m.canvas.String())

	s := m.tr.Sample(m.cursor)
	seg := m.tr.Segments[s.Phase]

	status := StatusPaused.Render("PAUSED")
	if m.playing {
		status = StatusRunning.Render("PLAYING")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(status + "\n\n")
	b.WriteString(metricRow("Sample", fmt.Sprintf("%d / %d", m.cursor+1, m.tr.Len())))
	b.WriteString(metricRow("Phase", fmt.Sprintf("%s (%s)", seg.Name, seg.Kind)))
	b.WriteString(metricRow("Time", fmt.Sprintf("%.3f s", s.Time)))
	b.WriteString(metricRow("Height", fmt.Sprintf("%.2f m", s.State.Height)))
	b.WriteString(metricRow("Velocity", fmt.Sprintf("%.2f m/s", s.State.Velocity)))
	b.WriteString(metricRow("Mass", fmt.Sprintf("%.4f kg", s.State.Mass)))
	b.WriteString(metricRow("Acceleration", fmt.Sprintf("%.3f g", s.Acceleration)))
	grad := "n/a"
	if !math.IsNaN(s.Gradient) {
		grad = fmt.Sprintf("%.3f g", s.Gradient)
	}
	b.WriteString(metricRow("Gradient", grad))

	progress := 0.0
	if m.tr.Len() > 1 {
		progress = float64(m.cursor) / float64(m.tr.Len()-1)
	}
	b.WriteString("\n" + ProgressBar(progress, 30) + "\n")
	b.WriteString(SparklineChart(m.tr.Velocity[seg.First:seg.Last+1], 30) + "\n")
	b.WriteString(KeyHint.Render("\nSP:Play ←→:Step []:Phase\nTab:Series T:Theme Q:Quit"))

	stats := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(m.theme.Muted).
		Padding(1, 2).
		Width(46).
		Render(b.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, stats)
}

// RunReplay opens the replay browser on the terminal.
func RunReplay(title string, tr *trajectory.Trajectory, theme Theme) error {
	if tr.Len() == 0 {
		return fmt.Errorf("trajectory has no samples")
	}
	_, err := tea.NewProgram(NewReplay(title, tr).WithTheme(theme), tea.WithAltScreen()).Run()
	return err
}
