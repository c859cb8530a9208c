package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/stagesim/internal/trajectory"
)

var csvHeader = []string{"time", "phase", "height", "velocity", "mass", "accel_g", "gradient_g"}

// WriteCSV writes one row per sample. Floats use the shortest exact
// representation so a reload reproduces the series bit for bit.
func WriteCSV(w io.Writer, tr *trajectory.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i := 0; i < tr.Len(); i++ {
		row := []string{
			format(tr.Time[i]),
			tr.Segment(i).Name,
			format(tr.Height[i]),
			format(tr.Velocity[i]),
			format(tr.Mass[i]),
			format(tr.Acceleration[i]),
			format(tr.Gradient[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a WriteCSV stream. Rows are matched to segments by phase
// name; phases repeat in segment order.
func ReadCSV(r io.Reader, segments []trajectory.Segment) (*trajectory.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("trajectory has no samples")
	}

	index := make(map[string]int, len(segments))
	for i, seg := range segments {
		index[seg.Name] = i
	}

	n := len(records) - 1
	tr := &trajectory.Trajectory{
		Time:         make([]float64, n),
		Height:       make([]float64, n),
		Velocity:     make([]float64, n),
		Mass:         make([]float64, n),
		Acceleration: make([]float64, n),
		Gradient:     make([]float64, n),
		Phase:        make([]int, n),
		Segments:     segments,
	}

	for i, record := range records[1:] {
		p, ok := index[record[1]]
		if !ok {
			return nil, fmt.Errorf("row %d: unknown phase %q", i+1, record[1])
		}
		tr.Phase[i] = p

		cols := []*float64{&tr.Time[i], nil, &tr.Height[i], &tr.Velocity[i], &tr.Mass[i], &tr.Acceleration[i], &tr.Gradient[i]}
		for j, dst := range cols {
			if dst == nil {
				continue
			}
			if *dst, err = strconv.ParseFloat(record[j], 64); err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", i+1, csvHeader[j], err)
			}
		}
	}
	return tr, nil
}
