package quadrature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gopfasst/utils"
)

// JacobiGL returns the N+1 Gauss-Lobatto points of the (alpha, beta) Jacobi weight on [-1,1]
func JacobiGL(alpha, beta float64, N int) (X utils.Vector) {
	var (
		x = make([]float64, N+1)
	)
	x[0] = -1
	x[N] = 1
	if N == 1 {
		X = utils.NewVector(N+1, x)
		return
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(x[1:N], xint.DataP())
	X = utils.NewVector(len(x), x)
	return
}

// JacobiGQ returns the N+1 Gauss points and weights of the (alpha, beta) Jacobi weight on [-1,1],
// computed from the eigen decomposition of the symmetric Jacobi matrix
func JacobiGQ(alpha, beta float64, N int) (X, W utils.Vector) {
	var (
		x          []float64
		fac        float64
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		x = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		return utils.NewVector(1, x), utils.NewVector(1, []float64{gamma0(alpha, beta)})
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: -(alpha^2-beta^2)/(h1+2)/h1
	d0 = make([]float64, N+1)
	fac = -(alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// h1[0] is zero for the Legendre weight
	if alpha+beta < 10*utils.NODETOL {
		d0[0] = 0.
	}

	var ip1 float64
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 = float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}

	JJ := utils.NewSymTriDiagonal(d0, d1)

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	x = eig.Values(nil)
	VVr = mat.NewDense(len(x), len(x), nil)
	eig.VectorsTo(VVr)
	w := make([]float64, len(x))
	g0 := gamma0(alpha, beta)
	for j := range w {
		v := VVr.At(0, j)
		w[j] = v * v * g0
	}
	// eigenvalues come back ascending, keep weights paired if an implementation differs
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	xs, ws := make([]float64, len(x)), make([]float64, len(x))
	for i, j := range idx {
		xs[i], ws[i] = x[j], w[j]
	}
	return utils.NewVector(N+1, xs), utils.NewVector(N+1, ws)
}

// JacobiP evaluates the normalized Jacobi polynomial of order N at r
func JacobiP(r utils.Vector, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = r.Len()
		rr = r.DataP()
	)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	if N == 0 {
		p = utils.ConstArray(Nc, rg)
		return
	}
	PL := mat.NewDense(N+1, Nc, nil)
	ab := alpha + beta
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	for i := 0; i < Nc; i++ {
		PL.Set(0, i, rg)
		PL.Set(1, i, rg1*((ab+2.0)*rr[i]/2.0+(alpha-beta)/2.0))
	}
	if N == 1 {
		p = PL.RawRowView(1)
		return
	}
	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		xi := PL.RawRowView(i)
		xip1 := PL.RawRowView(i + 1)
		xrow := PL.RawRowView(i + 2)
		for j := range xi {
			xrow[j] = (-aold*xi[j] + (rr[j]-bnew)*xip1[j]) / anew
		}
		aold = anew
	}
	p = PL.RawRowView(N)
	return
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}
