package integrators

import (
	"math"

	"github.com/san-kum/stagesim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0

	// Hairer's 4th-order continuous extension.
	d1 = -12715105075.0 / 11282082432.0
	d3 = 87487479700.0 / 32700410799.0
	d4 = -10690763975.0 / 1880347072.0
	d5 = 701980252875.0 / 199316789632.0
	d6 = -1453857185.0 / 822651844.0
	d7 = 69997945.0 / 29380423.0
)

// Stats counts the work done by the last Solve call.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
}

// DormandPrince is an adaptive 5(4) explicit Runge-Kutta solver with dense
// output. It is not safe for concurrent use.
type DormandPrince struct {
	cfg      dynamo.Config
	safety   float64
	minScale float64
	maxScale float64
	stats    Stats
}

func NewDormandPrince(cfg dynamo.Config) *DormandPrince {
	return &DormandPrince{
		cfg:      cfg,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func NewRK45() *DormandPrince {
	return NewDormandPrince(dynamo.DefaultConfig())
}

func (r *DormandPrince) Name() string { return "rk45" }

func (r *DormandPrince) Stats() Stats { return r.stats }

// step holds one accepted or rejected trial step.
type step struct {
	x, xNew                dynamo.State
	k1, k3, k4, k5, k6, k7 dynamo.State
	t, h, errNorm          float64
}

func (r *DormandPrince) Solve(sys dynamo.System, t0, t1 float64, x0 dynamo.State, ts []float64) ([]dynamo.State, error) {
	r.stats = Stats{}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dynamo.CheckTimes(t0, t1, ts); err != nil {
		return nil, err
	}
	if len(x0) != sys.StateDim() {
		return nil, dynamo.ErrDimensionMismatch
	}

	out := make([]dynamo.State, 0, len(ts))
	next := 0
	for next < len(ts) && ts[next] == t0 {
		out = append(out, x0.Clone())
		next++
	}
	if next == len(ts) {
		return out, nil
	}

	k1, err := r.derive(sys, x0, t0, 0)
	if err != nil {
		return nil, err
	}

	h := r.initialStep(sys, t0, t1, x0, k1)
	x := x0.Clone()
	t := t0
	rejected := false

	for next < len(ts) {
		if r.stats.Steps+r.stats.Rejected >= r.cfg.MaxSteps {
			return nil, &dynamo.SimulationError{Step: r.stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrTooManySteps}
		}

		last := false
		if t+h >= t1 {
			h = t1 - t
			last = true
		}
		if !last && h < r.minStep(t) {
			return nil, &dynamo.SimulationError{Step: r.stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrStepTooSmall}
		}

		s, err := r.attempt(sys, x, k1, t, h)
		if err != nil {
			return nil, err
		}

		if s.errNorm > 1 {
			r.stats.Rejected++
			rejected = true
			h *= math.Max(r.minScale, r.safety*math.Pow(s.errNorm, -0.25))
			continue
		}

		r.stats.Steps++
		tNew := t + h
		if last {
			tNew = t1
		}

		for next < len(ts) && ts[next] <= tNew {
			if ts[next] == tNew {
				out = append(out, s.xNew.Clone())
			} else {
				out = append(out, s.interpolate((ts[next]-t)/h))
			}
			next++
		}

		t, x, k1 = tNew, s.xNew, s.k7

		scale := r.maxScale
		if s.errNorm > 0 {
			scale = math.Min(r.maxScale, r.safety*math.Pow(s.errNorm, -0.2))
		}
		if rejected {
			scale = math.Min(scale, 1)
			rejected = false
		}
		h *= scale
		if r.cfg.MaxDt > 0 {
			h = math.Min(h, r.cfg.MaxDt)
		}
	}

	return out, nil
}

func (r *DormandPrince) attempt(sys dynamo.System, x, k1 dynamo.State, t, dt float64) (*step, error) {
	n := len(x)
	var err error
	s := &step{x: x, k1: k1, t: t, h: dt}

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := r.derive(sys, x2, t+a2*dt, r.stats.Steps)
	if err != nil {
		return nil, err
	}

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	if s.k3, err = r.derive(sys, x3, t+a3*dt, r.stats.Steps); err != nil {
		return nil, err
	}

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*s.k3[i])
	}
	if s.k4, err = r.derive(sys, x4, t+a4*dt, r.stats.Steps); err != nil {
		return nil, err
	}

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*s.k3[i]+b54*s.k4[i])
	}
	if s.k5, err = r.derive(sys, x5, t+a5*dt, r.stats.Steps); err != nil {
		return nil, err
	}

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*s.k3[i]+b64*s.k4[i]+b65*s.k5[i])
	}
	if s.k6, err = r.derive(sys, x6, t+dt, r.stats.Steps); err != nil {
		return nil, err
	}

	s.xNew = make(dynamo.State, n)
	for i := 0; i < n; i++ {
		s.xNew[i] = x[i] + dt*(c1*k1[i]+c3*s.k3[i]+c4*s.k4[i]+c5*s.k5[i]+c6*s.k6[i])
	}

	if s.k7, err = r.derive(sys, s.xNew, t+dt, r.stats.Steps); err != nil {
		return nil, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*s.k3[i] + dc4*s.k4[i] + dc5*s.k5[i] + dc6*s.k6[i] + dc7*s.k7[i])
		sc := r.cfg.AbsTolerance + r.cfg.Tolerance*math.Max(math.Abs(x[i]), math.Abs(s.xNew[i]))
		sum += (errEst / sc) * (errEst / sc)
	}
	s.errNorm = math.Sqrt(sum / float64(n))
	if math.IsNaN(s.errNorm) {
		s.errNorm = math.Inf(1)
	}

	return s, nil
}

// interpolate evaluates the continuous extension at theta in [0, 1].
func (s *step) interpolate(theta float64) dynamo.State {
	n := len(s.x)
	theta1 := 1 - theta
	out := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		r1 := s.x[i]
		r2 := s.xNew[i] - s.x[i]
		r3 := s.h*s.k1[i] - r2
		r4 := r2 - s.h*s.k7[i] - r3
		r5 := s.h * (d1*s.k1[i] + d3*s.k3[i] + d4*s.k4[i] + d5*s.k5[i] + d6*s.k6[i] + d7*s.k7[i])
		out[i] = r1 + theta*(r2+theta1*(r3+theta*(r4+theta1*r5)))
	}
	return out
}

func (r *DormandPrince) derive(sys dynamo.System, x dynamo.State, t float64, stepIdx int) (dynamo.State, error) {
	r.stats.Evaluations++
	dx, err := sys.Derive(x, t)
	if err != nil {
		return nil, &dynamo.SimulationError{Step: stepIdx, Time: t, State: x.Clone(), Wrapped: err}
	}
	return dx, nil
}

func (r *DormandPrince) minStep(t float64) float64 {
	a := math.Abs(t)
	return math.Max(r.cfg.MinDt, 10*(math.Nextafter(a, math.Inf(1))-a))
}

// initialStep follows Hairer, Norsett & Wanner (II.4) for the first trial step.
func (r *DormandPrince) initialStep(sys dynamo.System, t0, t1 float64, x0, f0 dynamo.State) float64 {
	span := t1 - t0
	if r.cfg.InitialDt > 0 {
		return math.Min(r.cfg.InitialDt, span)
	}

	n := len(x0)
	rms := func(v func(i int) float64) float64 {
		sum := 0.0
		for i := 0; i < n; i++ {
			sc := r.cfg.AbsTolerance + r.cfg.Tolerance*math.Abs(x0[i])
			sum += (v(i) / sc) * (v(i) / sc)
		}
		return math.Sqrt(sum / float64(n))
	}

	dx0 := rms(func(i int) float64 { return x0[i] })
	df0 := rms(func(i int) float64 { return f0[i] })
	h0 := 1e-6
	if dx0 >= 1e-5 && df0 >= 1e-5 {
		h0 = 0.01 * dx0 / df0
	}
	h0 = math.Min(h0, span)

	x1 := make(dynamo.State, n)
	for i := range x0 {
		x1[i] = x0[i] + h0*f0[i]
	}
	h := 100 * h0
	if f1, err := sys.Derive(x1, t0+h0); err == nil {
		r.stats.Evaluations++
		ddf := rms(func(i int) float64 { return f1[i] - f0[i] }) / h0
		dmax := math.Max(df0, ddf)
		h1 := math.Max(1e-6, h0*1e-3)
		if dmax > 1e-15 {
			h1 = math.Pow(0.01/dmax, 0.2)
		}
		h = math.Min(h, h1)
	}

	h = math.Max(h, 10*r.cfg.MinDt)
	if r.cfg.MaxDt > 0 {
		h = math.Min(h, r.cfg.MaxDt)
	}
	return math.Min(h, span)
}
