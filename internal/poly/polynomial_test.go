package poly

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestPolynomial_Degree(t *testing.T) {
	tests := []struct {
		name string
		p    Polynomial
		want int
	}{
		{"empty", Polynomial{}, -1},
		{"zero", Polynomial{0, 0}, -1},
		{"constant", Polynomial{3}, 0},
		{"trailing zeros", Polynomial{1, 2, 0, 0}, 1},
		{"quartic", Polynomial{1, 0, 0, 0, 2}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Degree(); got != tt.want {
				t.Errorf("Degree() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPolynomial_Eval(t *testing.T) {
	p := Polynomial{1, -3, 0, 2} // 2x^3 - 3x + 1
	cases := map[float64]float64{0: 1, 1: 0, 2: 11, -1: 2}
	for x, want := range cases {
		if got := p.Eval(x); math.Abs(got-want) > 1e-12 {
			t.Errorf("Eval(%v) = %v, want %v", x, got, want)
		}
	}

	z := p.EvalComplex(complex(1, 0))
	if cmplx.Abs(z) > 1e-12 {
		t.Errorf("EvalComplex(1) = %v, want 0", z)
	}
}

func TestPolynomial_Derivative(t *testing.T) {
	d := Polynomial{1, -3, 0, 2}.Derivative()
	want := Polynomial{-3, 0, 6}
	if len(d) != len(want) {
		t.Fatalf("Derivative length = %d, want %d", len(d), len(want))
	}
	for i := range want {
		if d[i] != want[i] {
			t.Errorf("d[%d] = %v, want %v", i, d[i], want[i])
		}
	}

	if c := (Polynomial{5}).Derivative(); c.Degree() != -1 {
		t.Errorf("derivative of constant should be zero, got %v", c)
	}
}

func TestPolynomial_RealRoots(t *testing.T) {
	tests := []struct {
		name string
		p    Polynomial
		want []float64
	}{
		{"linear", Polynomial{-3, 1.5}, []float64{2}},
		{"quadratic", Polynomial{-4, 0, 1}, []float64{-2, 2}},
		{"no real roots", Polynomial{1, 0, 1}, []float64{}},
		{"cubic", Polynomial{-6, 11, -6, 1}, []float64{1, 2, 3}},
		{"biquadratic", Polynomial{4, 0, -5, 0, 1}, []float64{-2, -1, 1, 2}},
		{"quartic two real", Polynomial{-1, 0, 0, 0, 1}, []float64{-1, 1}},
		{"constant", Polynomial{7}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.RealRoots(1e-9)
			if err != nil {
				t.Fatalf("RealRoots: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("RealRoots() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("root[%d] = %.12f, want %.12f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPolynomial_RootsCount(t *testing.T) {
	roots, err := Polynomial{1, 0, 0, 0, 1}.Roots()
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	if len(roots) != 4 {
		t.Fatalf("expected 4 roots, got %d", len(roots))
	}
	for _, z := range roots {
		if math.Abs(cmplx.Abs(z)-1) > 1e-9 {
			t.Errorf("root %v should lie on the unit circle", z)
		}
	}
}

func TestPolynomial_Polish(t *testing.T) {
	p := Polynomial{-2, 0, 1}
	x := p.Polish(1.4, DefaultPolishIterations)
	if math.Abs(x-math.Sqrt2) > 1e-14 {
		t.Errorf("Polish(1.4) = %.16f, want sqrt(2)", x)
	}

	exact := p.Polish(math.Sqrt2, DefaultPolishIterations)
	if math.Abs(exact-math.Sqrt2) > 1e-15 {
		t.Errorf("Polish moved an accurate root: %.16f", exact)
	}
}

func TestQuadraticRoots_Cancellation(t *testing.T) {
	// x^2 - 1e8 x + 1 has roots near 1e8 and 1e-8.
	r1, r2 := quadraticRoots(1, -1e8, 1)
	small := math.Min(real(r1), real(r2))
	if math.Abs(small-1e-8) > 1e-20 {
		t.Errorf("small root = %g, want 1e-8", small)
	}
}

func BenchmarkQuarticRealRoots(b *testing.B) {
	p := Polynomial{-9.0, -1600, 400, 0, 0.0953}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.RealRoots(1e-9)
	}
}
