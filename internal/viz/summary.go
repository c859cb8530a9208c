package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/stagesim/internal/metrics"
	"github.com/san-kum/stagesim/internal/trajectory"
)

// RenderSummary formats the figures printed after a run.
func RenderSummary(title string, s metrics.Summary, rep trajectory.Report) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(title) + "\n\n")
	b.WriteString(metricRow("Max height", fmt.Sprintf("%.2f m at t=%.3f s", s.MaxHeight, s.ApogeeTime)))
	b.WriteString(metricRow("Max velocity", fmt.Sprintf("%.2f m/s at t=%.3f s", s.MaxVelocity, s.MaxVelocityTime)))
	b.WriteString(metricRow("Max q", fmt.Sprintf("%.1f Pa at t=%.3f s", s.MaxQ, s.MaxQTime)))
	b.WriteString(metricRow("Max acceleration", fmt.Sprintf("%.2f g at t=%.3f s", s.MaxAccelG, s.MaxAccelTime)))
	for _, bo := range s.Burnouts {
		b.WriteString(metricRow(bo.Phase+" burnout", fmt.Sprintf("%.2f m/s, %.2f m, %.4f kg", bo.Velocity, bo.Height, bo.Mass)))
	}
	b.WriteString(metricRow("Final state", fmt.Sprintf("%.2f m, %.2f m/s", s.FinalHeight, s.FinalVelocity)))
	b.WriteString(metricRow("Final mass", fmt.Sprintf("%.4f kg", s.FinalMass)))
	b.WriteString(metricRow("Flight time", fmt.Sprintf("%.3f s", s.FlightTime)))
	b.WriteString("\n" + Separator(44) + "\n\n")
	b.WriteString(metricRow("Gradient check", fmt.Sprintf("max %.3f%%, rms %.3f%%", 100*rep.Overall.MaxRel, 100*rep.Overall.RMSRel)))
	return GlassPanel.Render(b.String())
}

// RenderCheck lists the cross-check deviation of every phase against tol.
func RenderCheck(rep trajectory.Report, tol float64) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Acceleration vs velocity gradient") + "\n\n")

	row := func(d trajectory.Deviation) string {
		status := StatusRunning.Render("PASS")
		if d.MaxRel > tol {
			status = StatusFailed.Render("FAIL")
		}
		return fmt.Sprintf("%-8s %5d  %9.4f%%  %9.4f%%  t=%-8.3f %s\n",
			d.Name, d.Samples, 100*d.MaxRel, 100*d.RMSRel, d.MaxAt, status)
	}

	b.WriteString(Subtle.Render(fmt.Sprintf("%-8s %5s  %10s  %10s  %-10s\n", "phase", "n", "max", "rms", "worst")))
	for _, d := range rep.Phases {
		b.WriteString(row(d))
	}
	b.WriteString(Separator(56) + "\n")
	b.WriteString(row(rep.Overall))
	b.WriteString("\n" + KeyHint.Render(fmt.Sprintf("tolerance %.2f%%", 100*tol)))
	return GlassPanel.Render(b.String())
}

// RenderComparison shows summaries side by side, one column per label.
func RenderComparison(labels []string, sums []metrics.Summary) string {
	cols := make([]string, 0, len(sums))
	for i, s := range sums {
		var b strings.Builder
		b.WriteString(HeaderStyle.Render(labels[i]) + "\n\n")
		b.WriteString(metricRow("Max height", fmt.Sprintf("%.4f m", s.MaxHeight)))
		b.WriteString(metricRow("Apogee time", fmt.Sprintf("%.4f s", s.ApogeeTime)))
		b.WriteString(metricRow("Max velocity", fmt.Sprintf("%.4f m/s", s.MaxVelocity)))
		b.WriteString(metricRow("Final height", fmt.Sprintf("%.4f m", s.FinalHeight)))
		b.WriteString(metricRow("Final velocity", fmt.Sprintf("%.4f m/s", s.FinalVelocity)))
		cols = append(cols, GlassPanel.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}
