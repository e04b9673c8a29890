// Package poly provides real-coefficient polynomials and their roots.
//
// Roots are computed as the eigenvalues of the companion matrix, the same
// construction numpy's roots uses, and real roots can be polished with
// Newton iterations against the original polynomial:
//
//	p := poly.Polynomial{-4, 0, 1} // x^2 - 4
//	real, _ := p.RealRoots(1e-9)   // [-2 2]
package poly
