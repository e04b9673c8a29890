package poly

import (
	"errors"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ErrNoConvergence indicates the eigenvalue solver failed on the companion matrix.
var ErrNoConvergence = errors.New("poly: eigenvalue decomposition did not converge")

// Polynomial holds coefficients in ascending order: p[i] multiplies x^i.
type Polynomial []float64

// Degree returns the index of the highest non-zero coefficient, or -1 for
// the zero polynomial.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return -1
}

// Eval evaluates p at x using Horner's scheme.
func (p Polynomial) Eval(x float64) float64 {
	sum := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		sum = sum*x + p[i]
	}
	return sum
}

// EvalComplex evaluates p at z.
func (p Polynomial) EvalComplex(z complex128) complex128 {
	var sum complex128
	for i := len(p) - 1; i >= 0; i-- {
		sum = sum*z + complex(p[i], 0)
	}
	return sum
}

// Derivative returns dp/dx.
func (p Polynomial) Derivative() Polynomial {
	if len(p) <= 1 {
		return Polynomial{0}
	}
	d := make(Polynomial, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}

// Roots returns all complex roots of p, with multiplicity. Constant and
// zero polynomials have no roots.
func (p Polynomial) Roots() ([]complex128, error) {
	n := p.Degree()
	switch {
	case n <= 0:
		return nil, nil
	case n == 1:
		return []complex128{complex(-p[0]/p[1], 0)}, nil
	case n == 2:
		r1, r2 := quadraticRoots(p[2], p[1], p[0])
		return []complex128{r1, r2}, nil
	}

	// Companion matrix of the monic polynomial, first row holding the
	// negated coefficients from x^(n-1) down to x^0.
	c := mat.NewDense(n, n, nil)
	lead := p[n]
	for j := 0; j < n; j++ {
		c.Set(0, j, -p[n-1-j]/lead)
	}
	for i := 1; i < n; i++ {
		c.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenNone); !ok {
		return nil, ErrNoConvergence
	}
	return eig.Values(nil), nil
}

// RealRoots returns the roots of p whose imaginary part is negligible,
// sorted ascending. A root z counts as real when
// |imag(z)| <= tol*max(1, |z|). Each accepted root is Newton-polished.
func (p Polynomial) RealRoots(tol float64) ([]float64, error) {
	roots, err := p.Roots()
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(roots))
	for _, z := range roots {
		if math.Abs(imag(z)) > tol*math.Max(1, cmplx.Abs(z)) {
			continue
		}
		out = append(out, p.Polish(real(z), DefaultPolishIterations))
	}
	slices.Sort(out)
	return out, nil
}

// DefaultPolishIterations bounds the Newton refinement of a single root.
const DefaultPolishIterations = 16

// Polish refines an approximate real root x with at most maxIter Newton
// steps. A step is only taken when it reduces |p(x)|, so a seed that is
// already accurate is never made worse.
func (p Polynomial) Polish(x float64, maxIter int) float64 {
	d := p.Derivative()
	fx := p.Eval(x)
	for i := 0; i < maxIter && fx != 0; i++ {
		dfx := d.Eval(x)
		if dfx == 0 {
			break
		}
		next := x - fx/dfx
		fnext := p.Eval(next)
		if math.Abs(fnext) >= math.Abs(fx) {
			break
		}
		x, fx = next, fnext
	}
	return x
}

// quadraticRoots solves a*x^2 + b*x + c = 0 for a != 0 without the
// cancellation of the textbook formula.
func quadraticRoots(a, b, c float64) (complex128, complex128) {
	disc := b*b - 4*a*c
	if disc < 0 {
		re := -b / (2 * a)
		im := math.Sqrt(-disc) / (2 * math.Abs(a))
		return complex(re, -im), complex(re, im)
	}
	sq := math.Sqrt(disc)
	q := -0.5 * (b + math.Copysign(sq, b))
	if q == 0 {
		return 0, 0
	}
	return complex(q/a, 0), complex(c/q, 0)
}
