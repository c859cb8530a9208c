package viz

import (
	"context"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/stagesim/internal/flight"
	"github.com/san-kum/stagesim/internal/metrics"
	"github.com/san-kum/stagesim/internal/physics"
	"github.com/san-kum/stagesim/internal/trajectory"
)

func referenceTrajectory(t *testing.T) *trajectory.Trajectory {
	t.Helper()
	c := physics.DefaultConstants()
	results, err := flight.New(c, flight.DefaultVehicle(), flight.WithSamples(10)).Fly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tr, err := trajectory.Build(c, results)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != blank|0x1 {
		t.Errorf("cell 0: got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != blank|0x80 {
		t.Errorf("cell 1: got %U", c.Grid[0][1])
	}

	c.Clear()
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Error("expected blank canvas after clear")
	}
}

func TestCanvasPlotSeries(t *testing.T) {
	c := NewCanvas(10, 4)
	xs := []float64{0, 1, 2, 3}
	ys := []float64{0, 1, math.NaN(), 3}
	c.PlotSeries(Fit(xs, ys), xs, ys)

	// Corners of the viewport are lit.
	if c.Grid[3][0]&0x40 == 0 {
		t.Error("first point not drawn at bottom left")
	}
	if c.Grid[0][9]&0x8 == 0 {
		t.Error("last point not drawn at top right")
	}
}

func TestFit(t *testing.T) {
	v := Fit([]float64{1, 2}, []float64{5, 5})
	if v.MinX != 1 || v.MaxX != 2 || v.MinY != 5 || v.MaxY != 6 {
		t.Errorf("got %+v", v)
	}
}

func TestChart(t *testing.T) {
	tr := referenceTrajectory(t)

	for _, name := range SeriesNames {
		out, err := Chart(tr, name, 40, 8)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(out, name) {
			t.Errorf("%s: caption missing", name)
		}
	}

	if _, err := Chart(tr, "jerk", 40, 8); err == nil {
		t.Error("expected error for unknown series")
	}
}

func TestRenderSummary(t *testing.T) {
	tr := referenceTrajectory(t)
	out := RenderSummary("reference", metrics.Summarize(tr), trajectory.CrossCheck(tr, false))

	for _, want := range []string{"Max height", "Max velocity", "burn-2 burnout", "Gradient check"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q", want)
		}
	}
}

func TestRenderCheck(t *testing.T) {
	rep := trajectory.Report{
		Overall: trajectory.Deviation{Name: "all", Samples: 2, MaxRel: 0.02},
		Phases: []trajectory.Deviation{
			{Name: "burn-1", Samples: 1, MaxRel: 0.001},
			{Name: "coast-1", Samples: 1, MaxRel: 0.02},
		},
	}
	out := RenderCheck(rep, 0.01)
	if strings.Count(out, "PASS") != 1 || strings.Count(out, "FAIL") != 2 {
		t.Errorf("unexpected verdicts:\n%s", out)
	}
}

func TestRenderComparison(t *testing.T) {
	out := RenderComparison([]string{"rk45", "rk4"}, []metrics.Summary{{MaxHeight: 1}, {MaxHeight: 2}})
	if !strings.Contains(out, "rk45") || !strings.Contains(out, "rk4") {
		t.Error("labels missing")
	}
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ = m.Update(msg)
	return m
}

func TestReplayNavigation(t *testing.T) {
	tr := referenceTrajectory(t)
	var m tea.Model = NewReplay("reference", tr)

	m = press(m, "left")
	if c := m.(Replay).Cursor(); c != 0 {
		t.Errorf("cursor moved before start: %d", c)
	}

	m = press(m, "right")
	m = press(m, "right")
	if c := m.(Replay).Cursor(); c != 2 {
		t.Errorf("cursor %d, want 2", c)
	}

	m = press(m, "]")
	if c := m.(Replay).Cursor(); c != tr.Segments[1].First {
		t.Errorf("next phase: cursor %d, want %d", c, tr.Segments[1].First)
	}
	m = press(m, "[")
	if c := m.(Replay).Cursor(); c != tr.Segments[0].First {
		t.Errorf("previous phase: cursor %d, want %d", c, tr.Segments[0].First)
	}

	m = press(m, "G")
	if c := m.(Replay).Cursor(); c != tr.Len()-1 {
		t.Errorf("end: cursor %d", c)
	}
	m = press(m, "right")
	if c := m.(Replay).Cursor(); c != tr.Len()-1 {
		t.Errorf("cursor moved past end: %d", c)
	}
}

func TestReplayPlayback(t *testing.T) {
	tr := referenceTrajectory(t)
	var m tea.Model = NewReplay("reference", tr)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.(Replay).Playing() || cmd == nil {
		t.Fatal("space should start playback")
	}

	for i := 0; i < tr.Len()+5; i++ {
		m, _ = m.Update(TickMsg{})
	}
	if m.(Replay).Playing() {
		t.Error("playback should stop at the last sample")
	}
	if c := m.(Replay).Cursor(); c != tr.Len()-1 {
		t.Errorf("cursor %d after playback", c)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestReplayView(t *testing.T) {
	tr := referenceTrajectory(t)
	m := press(NewReplay("reference", tr), "tab")

	out := m.View()
	for _, want := range []string{"REFERENCE", "velocity (m/s)", "burn-1", "PAUSED"} {
		if !strings.Contains(out, want) {
			t.Errorf("view lacks %q", want)
		}
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) != len(Themes) || names[0] != "cyberpunk" {
		t.Fatalf("ThemeNames() = %v", names)
	}
	for _, name := range names {
		if got := GetTheme(name); got.Name != name {
			t.Errorf("GetTheme(%q) = %q", name, got.Name)
		}
	}
	if got := GetTheme("sepia"); got.Name != Themes[0].Name {
		t.Errorf("unknown theme fell back to %q", got.Name)
	}
}

func TestReplayTheme(t *testing.T) {
	tr := referenceTrajectory(t)
	m := NewReplay("reference", tr).WithTheme(GetTheme("ocean"))
	if m.Theme().Name != "ocean" {
		t.Fatalf("theme %q, want ocean", m.Theme().Name)
	}

	// ocean is last, so cycling wraps to the first theme.
	next := press(m, "t").(Replay)
	if next.Theme().Name != Themes[0].Name {
		t.Errorf("after t: theme %q, want %q", next.Theme().Name, Themes[0].Name)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent      float64
		filled, gaps int
	}{
		{0, 0, 10},
		{0.5, 5, 5},
		{1.5, 10, 0},
		{-1, 0, 10},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.percent, 10)
		if f, g := strings.Count(bar, "█"), strings.Count(bar, "░"); f != tt.filled || g != tt.gaps {
			t.Errorf("ProgressBar(%g) has %d filled, %d empty; want %d, %d", tt.percent, f, g, tt.filled, tt.gaps)
		}
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 4); got != "────" {
		t.Errorf("empty sparkline %q", got)
	}
	out := SparklineChart([]float64{0, 1, 2, 3}, 4)
	if !strings.Contains(out, "▁") || !strings.Contains(out, "█") {
		t.Errorf("sparkline %q lacks its extremes", out)
	}
}
