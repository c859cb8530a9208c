package trajectory

import (
	"math"
)

// Deviation summarises the relative difference between the model
// acceleration and the velocity gradient over a set of samples.
type Deviation struct {
	Name    string  `json:"name"`
	Samples int     `json:"samples"`
	MaxRel  float64 `json:"max_rel"`
	RMSRel  float64 `json:"rms_rel"`
	MaxAt   float64 `json:"max_at"`
}

type Report struct {
	Overall Deviation   `json:"overall"`
	Phases  []Deviation `json:"phases"`
}

// Within reports whether every compared sample deviates by at most tol.
func (r Report) Within(tol float64) bool {
	return r.Overall.MaxRel <= tol
}

// CrossCheck compares Acceleration with Gradient on interior samples of
// every phase. Phase end points use one-sided differences and are skipped
// unless includeEdges is set.
func CrossCheck(t *Trajectory, includeEdges bool) Report {
	rep := Report{Overall: Deviation{Name: "all"}}
	var total float64

	for _, seg := range t.Segments {
		d := Deviation{Name: seg.Name}
		var sum float64

		first, last := seg.First, seg.Last
		if !includeEdges {
			first, last = first+1, last-1
		}
		for i := first; i <= last; i++ {
			if math.IsNaN(t.Gradient[i]) {
				continue
			}
			rel := relDiff(t.Acceleration[i], t.Gradient[i])
			d.Samples++
			sum += rel * rel
			if rel > d.MaxRel {
				d.MaxRel, d.MaxAt = rel, t.Time[i]
			}
		}
		if d.Samples > 0 {
			d.RMSRel = math.Sqrt(sum / float64(d.Samples))
		}

		rep.Phases = append(rep.Phases, d)
		rep.Overall.Samples += d.Samples
		total += sum
		if d.MaxRel > rep.Overall.MaxRel {
			rep.Overall.MaxRel, rep.Overall.MaxAt = d.MaxRel, d.MaxAt
		}
	}

	if rep.Overall.Samples > 0 {
		rep.Overall.RMSRel = math.Sqrt(total / float64(rep.Overall.Samples))
	}
	return rep
}

func relDiff(want, got float64) float64 {
	scale := math.Abs(want)
	if scale < 1e-12 {
		return math.Abs(got - want)
	}
	return math.Abs(got-want) / scale
}
