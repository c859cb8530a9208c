package storage

import (
	"encoding/json"
	"io"
	"math"

	"github.com/san-kum/stagesim/internal/trajectory"
)

type ExportSample struct {
	Time         float64  `json:"time"`
	Phase        string   `json:"phase"`
	Height       float64  `json:"height"`
	Velocity     float64  `json:"velocity"`
	Mass         float64  `json:"mass"`
	Acceleration float64  `json:"accel_g"`
	Gradient     *float64 `json:"gradient_g"`
}

type ExportData struct {
	Run     *RunMetadata   `json:"run"`
	Steps   int            `json:"steps"`
	Samples []ExportSample `json:"samples"`
}

// ExportJSON writes the run metadata and every sample as indented JSON.
// An undefined gradient is written as null.
func ExportJSON(w io.Writer, meta *RunMetadata, tr *trajectory.Trajectory) error {
	data := ExportData{
		Run:     meta,
		Steps:   tr.Len(),
		Samples: make([]ExportSample, tr.Len()),
	}

	for i := range data.Samples {
		s := tr.Sample(i)
		data.Samples[i] = ExportSample{
			Time:         s.Time,
			Phase:        tr.Segments[s.Phase].Name,
			Height:       s.State.Height,
			Velocity:     s.State.Velocity,
			Mass:         s.State.Mass,
			Acceleration: s.Acceleration,
		}
		if !math.IsNaN(s.Gradient) {
			g := s.Gradient
			data.Samples[i].Gradient = &g
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
