package trajectory

import (
	"math"

	"github.com/san-kum/stagesim/internal/dynamo"
)

// Gradient returns dy/dx using second-order central differences in the
// interior and second-order one-sided differences at both ends. x must be
// strictly increasing; spacing may be non-uniform. Two points give a plain
// first-order difference and a single point gives NaN.
func Gradient(y, x []float64) ([]float64, error) {
	n := len(y)
	if len(x) != n {
		return nil, dynamo.Configf("gradient: %d values for %d abscissae", n, len(x))
	}
	for i := 1; i < n; i++ {
		if !(x[i] > x[i-1]) {
			return nil, dynamo.Configf("gradient: abscissae not strictly increasing at %d", i)
		}
	}

	out := make([]float64, n)
	switch n {
	case 0:
		return out, nil
	case 1:
		out[0] = math.NaN()
		return out, nil
	case 2:
		d := (y[1] - y[0]) / (x[1] - x[0])
		out[0], out[1] = d, d
		return out, nil
	}

	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		out[i] = (hs*hs*y[i+1] + (hd*hd-hs*hs)*y[i] - hd*hd*y[i-1]) / (hs * hd * (hd + hs))
	}

	d1, d2 := x[1]-x[0], x[2]-x[1]
	out[0] = -(2*d1+d2)/(d1*(d1+d2))*y[0] + (d1+d2)/(d1*d2)*y[1] - d1/(d2*(d1+d2))*y[2]

	d1, d2 = x[n-2]-x[n-3], x[n-1]-x[n-2]
	out[n-1] = d2/(d1*(d1+d2))*y[n-3] - (d1+d2)/(d1*d2)*y[n-2] + (2*d2+d1)/(d2*(d1+d2))*y[n-1]

	return out, nil
}
