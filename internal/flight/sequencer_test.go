package flight_test

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stagesim/internal/dynamo"
	"github.com/san-kum/stagesim/internal/flight"
	"github.com/san-kum/stagesim/internal/integrators"
	"github.com/san-kum/stagesim/internal/logging"
	"github.com/san-kum/stagesim/internal/physics"
)

// countingSolver records how often it is asked to integrate.
type countingSolver struct {
	dynamo.Solver
	calls int
}

func (c *countingSolver) Solve(sys dynamo.System, t0, t1 float64, x0 dynamo.State, ts []float64) ([]dynamo.State, error) {
	c.calls++
	return c.Solver.Solve(sys, t0, t1, x0, ts)
}

type failingSolver struct{}

func (failingSolver) Name() string { return "failing" }

func (failingSolver) Solve(sys dynamo.System, t0, t1 float64, x0 dynamo.State, ts []float64) ([]dynamo.State, error) {
	return nil, &dynamo.SimulationError{Time: t0, State: x0, Wrapped: dynamo.ErrStepTooSmall}
}

const eps = 1e-9

var _ = Describe("Sequencer", func() {
	var (
		ctx     context.Context
		vehicle flight.Vehicle
		solver  *countingSolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		vehicle = flight.DefaultVehicle()
		solver = &countingSolver{Solver: integrators.NewRK45()}
	})

	Context("with the reference vehicle", func() {
		var results []flight.PhaseResult

		BeforeEach(func() {
			var err error
			results, err = flight.New(physics.DefaultConstants(), vehicle, flight.WithSolver(solver)).Fly(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("integrates four phases independently", func() {
			Expect(results).To(HaveLen(4))
			Expect(solver.calls).To(Equal(4))
			for _, r := range results {
				Expect(r.Times).To(HaveLen(flight.DefaultSamples))
				Expect(r.States).To(HaveLen(flight.DefaultSamples))
				Expect(r.Times[0]).To(Equal(r.Spec.Start))
				Expect(r.Times[len(r.Times)-1]).To(Equal(r.Spec.End))
			}
		})

		It("starts from rest with the full mass", func() {
			Expect(results[0].States[0]).To(Equal(physics.State{Mass: 4.4}))
		})

		It("burns mass during burns and keeps it constant while coasting", func() {
			for _, r := range results {
				_, burning := r.Spec.Kind.(physics.Burn)
				for i := 1; i < len(r.States); i++ {
					if burning {
						Expect(r.States[i].Mass).To(BeNumerically("<", r.States[i-1].Mass), r.Spec.Name)
					} else {
						Expect(r.States[i].Mass).To(Equal(r.States[0].Mass), r.Spec.Name)
					}
				}
			}
		})

		It("burns exactly the propellant of each stage", func() {
			burn1, burn2 := results[0], results[2]
			Expect(burn1.States[0].Mass - burn1.Final().Mass).To(BeNumerically("~", 0.2472, eps))
			Expect(burn2.States[0].Mass - burn2.Final().Mass).To(BeNumerically("~", 0.337, eps))
		})

		It("keeps height and velocity continuous across every boundary", func() {
			for i := 1; i < len(results); i++ {
				prev, next := results[i-1].Final(), results[i].States[0]
				Expect(next.Height).To(BeNumerically("~", prev.Height, eps))
				Expect(next.Velocity).To(BeNumerically("~", prev.Velocity, eps))
				Expect(results[i].Times[0]).To(Equal(results[i-1].Times[len(results[i-1].Times)-1]))
			}
		})

		It("drops the separation mass once, at second-stage ignition", func() {
			for i := 1; i < len(results); i++ {
				drop := results[i-1].Final().Mass - results[i].States[0].Mass
				if results[i].Spec.Name == "burn-2" {
					Expect(drop).To(BeNumerically("~", 1.995, eps))
				} else {
					Expect(drop).To(Equal(0.0), results[i].Spec.Name)
				}
			}
		})

		It("climbs", func() {
			Expect(results[1].Final().Height).To(BeNumerically(">", 0))
			Expect(results[0].Final().Velocity).To(BeNumerically(">", 100))
		})
	})

	Context("with invalid input", func() {
		DescribeTable("fails before integrating",
			func(mod func(*flight.Vehicle)) {
				mod(&vehicle)
				_, err := flight.New(physics.DefaultConstants(), vehicle, flight.WithSolver(solver)).Fly(ctx)
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue(), "got %v", err)
				Expect(solver.calls).To(BeZero())
			},
			Entry("negative mass flow rate", func(v *flight.Vehicle) { v.Stages[0].MassFlowRate = -0.2225 }),
			Entry("zero propellant mass", func(v *flight.Vehicle) { v.Stages[1].PropellantMass = 0 }),
			Entry("non-positive coast", func(v *flight.Vehicle) { v.Stages[0].CoastDuration = 0 }),
			Entry("oversized separation mass", func(v *flight.Vehicle) { v.Stages[0].SeparationMass = 10 }),
		)

		It("rejects fewer than two samples per phase", func() {
			_, err := flight.New(physics.DefaultConstants(), vehicle, flight.WithSolver(solver), flight.WithSamples(1)).Fly(ctx)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			Expect(solver.calls).To(BeZero())
		})

		It("rejects non-positive gravity", func() {
			c := physics.DefaultConstants()
			c.Gravity = 0
			_, err := flight.New(c, vehicle, flight.WithSolver(solver)).Fly(ctx)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})
	})

	It("reports solver failures with the phase name", func() {
		_, err := flight.New(physics.DefaultConstants(), vehicle, flight.WithSolver(failingSolver{})).Fly(ctx)
		Expect(errors.Is(err, dynamo.ErrIntegration)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Phase).To(Equal("burn-1"))
	})

	It("stops when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := flight.New(physics.DefaultConstants(), vehicle, flight.WithSolver(solver)).Fly(canceled)
		Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
		Expect(solver.calls).To(BeZero())
	})

	It("logs phase boundaries", func() {
		var buf bytes.Buffer
		logger, err := logging.New(&buf, "debug")
		Expect(err).NotTo(HaveOccurred())

		_, err = flight.New(physics.DefaultConstants(), vehicle, flight.WithLogger(logger)).Fly(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("phase=coast-2"))
		Expect(buf.String()).To(ContainSubstring(`msg="flight complete"`))
	})

	It("uses the fixed-step solver when asked", func() {
		rk4 := integrators.NewRK4(dynamo.DefaultConfig())
		results, err := flight.New(physics.DefaultConstants(), vehicle, flight.WithSolver(rk4), flight.WithSamples(50)).Fly(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		Expect(results[3].Times).To(HaveLen(50))
	})
})

var _ = Describe("RunPhase", func() {
	It("returns the initial state for a zero-duration phase", func() {
		initial := physics.State{Height: 12.5, Velocity: -3, Mass: 2.1}
		spec := flight.PhaseSpec{Name: "coast", Kind: physics.Coast{}, Start: 4, End: 4, Initial: initial}

		res, err := flight.RunPhase(integrators.NewRK45(), physics.DefaultConstants(), spec, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Times).To(Equal([]float64{4}))
		Expect(res.States).To(Equal([]physics.State{initial}))
	})

	It("surfaces invalid states from the model", func() {
		spec := flight.PhaseSpec{Name: "empty", Kind: physics.Coast{}, Start: 0, End: 5, Initial: physics.State{Mass: 0}}
		_, err := flight.RunPhase(integrators.NewRK45(), physics.DefaultConstants(), spec, 10)
		Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue(), "got %v", err)

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Phase).To(Equal("empty"))
	})

	It("fails when a burn outlasts the vehicle mass", func() {
		spec := flight.PhaseSpec{
			Name:    "starved",
			Kind:    physics.Burn{MassFlowRate: 1, ExhaustVelocity: 100},
			Start:   0,
			End:     5,
			Initial: physics.State{Mass: 1},
		}
		_, err := flight.RunPhase(integrators.NewRK45(), physics.DefaultConstants(), spec, 10)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dynamo.ErrIntegration) || errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue(), "got %v", err)
	})
})
