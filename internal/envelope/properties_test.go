package envelope_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/safecar/internal/envelope"
)

var _ = Describe("Engine", func() {
	var eng *envelope.Engine

	BeforeEach(func() {
		var err error
		eng, err = envelope.New(envelope.DefaultVehicle())
		Expect(err).NotTo(HaveOccurred())
	})

	speeds := []float64{-1.5, -0.4, 0, 0.2, 0.6, 1.0, 1.4, 2.0, 3.5}
	deltas := []float64{-1.1, -0.7, -0.3, 0, 0.15, 0.45, 0.8, 1.05, 1.1}

	Describe("NextStepBound", func() {
		It("keeps Max >= Min for every feasible interval", func() {
			for _, v := range speeds {
				for _, d := range deltas {
					iv, err := eng.NextStepBound(v, d)
					Expect(err).NotTo(HaveOccurred())
					if iv.Feasible() {
						Expect(iv.Max).To(BeNumerically(">=", iv.Min))
					}
				}
			}
		})

		It("does not widen as the steering angle grows", func() {
			violations := 0
			for _, v := range speeds {
				prev := math.Inf(1)
				for d := 0.0; d <= 1.1; d += 0.05 {
					iv, err := eng.NextStepBound(v, d)
					Expect(err).NotTo(HaveOccurred())
					if w := iv.Width(); w > prev+1e-12 {
						violations++
						GinkgoWriter.Printf("width grew at v=%.2f d=%.2f: %.6g > %.6g\n", v, d, w, prev)
					}
					prev = iv.Width()
				}
			}
			Expect(violations).To(BeZero())
		})
	})

	Describe("WorstCaseBound", func() {
		It("only ever lowers the upper edge of the next-step interval", func() {
			for _, v := range speeds {
				for _, d := range deltas {
					next, err := eng.NextStepBound(v, d)
					Expect(err).NotTo(HaveOccurred())
					worst, err := eng.WorstCaseBound(v, d, envelope.DefaultWorstCaseIterations, envelope.DefaultBisections)
					Expect(err).NotTo(HaveOccurred())

					if !worst.Feasible() {
						continue
					}
					Expect(next.Feasible()).To(BeTrue())
					Expect(worst.Min).To(Equal(next.Min))
					Expect(worst.Max).To(BeNumerically("<=", next.Max))
					Expect(worst.Width()).To(BeNumerically("<=", next.Width()))
				}
			}
		})

		It("is symmetric in the steering sign", func() {
			for _, v := range speeds {
				for _, d := range []float64{0.3, 0.8, 1.1} {
					pos, err := eng.WorstCaseBound(v, d, envelope.DefaultWorstCaseIterations, envelope.DefaultBisections)
					Expect(err).NotTo(HaveOccurred())
					neg, err := eng.WorstCaseBound(v, -d, envelope.DefaultWorstCaseIterations, envelope.DefaultBisections)
					Expect(err).NotTo(HaveOccurred())
					Expect(neg).To(Equal(pos))
				}
			}
		})
	})

	Describe("MaxSustainableSpeed", func() {
		It("returns a fixed point of the zero-steering bound", func() {
			speed, err := eng.MaxSustainableSpeed(envelope.DefaultMaxSpeedIterations)
			Expect(err).NotTo(HaveOccurred())
			Expect(speed).To(BeNumerically(">", 0))

			iv, err := eng.WorstCaseBound(speed, 0, envelope.DefaultWorstCaseIterations, envelope.DefaultBisections)
			Expect(err).NotTo(HaveOccurred())
			Expect(iv.Max).To(BeNumerically("~", speed, envelope.ConvergenceTolerance))
		})

		It("grows with the friction budget", func() {
			grippy := envelope.DefaultVehicle()
			grippy.Friction = 1.3
			fast, err := envelope.New(grippy)
			Expect(err).NotTo(HaveOccurred())

			base, err := eng.MaxSustainableSpeed(envelope.DefaultMaxSpeedIterations)
			Expect(err).NotTo(HaveOccurred())
			higher, err := fast.MaxSustainableSpeed(envelope.DefaultMaxSpeedIterations)
			Expect(err).NotTo(HaveOccurred())
			Expect(higher).To(BeNumerically(">", base))
		})
	})
})
