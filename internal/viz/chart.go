package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/stagesim/internal/trajectory"
)

// SeriesNames lists the trajectory columns Series understands.
var SeriesNames = []string{"height", "velocity", "mass", "accel", "gradient"}

func Series(tr *trajectory.Trajectory, name string) ([]float64, error) {
	switch name {
	case "height":
		return tr.Height, nil
	case "velocity":
		return tr.Velocity, nil
	case "mass":
		return tr.Mass, nil
	case "accel":
		return tr.Acceleration, nil
	case "gradient":
		return tr.Gradient, nil
	}
	return nil, fmt.Errorf("unknown series %q (available: %s)", name, strings.Join(SeriesNames, ", "))
}

func seriesUnit(name string) string {
	switch name {
	case "height":
		return "m"
	case "velocity":
		return "m/s"
	case "mass":
		return "kg"
	}
	return "g"
}

// Chart plots one series of tr as an ASCII line chart.
func Chart(tr *trajectory.Trajectory, name string, width, height int) (string, error) {
	ys, err := Series(tr, name)
	if err != nil {
		return "", err
	}

	data := make([]float64, 0, len(ys))
	for _, y := range ys {
		if !math.IsNaN(y) {
			data = append(data, y)
		}
	}
	if len(data) == 0 {
		return "", fmt.Errorf("series %q has no finite samples", name)
	}

	caption := fmt.Sprintf("%s (%s) over %.2f s", name, seriesUnit(name), tr.Time[len(tr.Time)-1]-tr.Time[0])
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
