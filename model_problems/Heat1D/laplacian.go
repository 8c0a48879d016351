package Heat1D

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gopfasst/spectral"
	"github.com/notargets/gopfasst/utils"
)

// Laplacian is the second derivative on the periodic unit interval
type Laplacian interface {
	// Apply stores the Laplacian of u in dst
	Apply(dst, u []float64)
	// Solve stores the solution of (I - c*Lap) dst = rhs
	Solve(dst, rhs []float64, c float64)
	Name() string
}

type LaplacianType uint8

const (
	SpectralLaplacian LaplacianType = iota
	FiniteDifferenceLaplacian
)

var (
	LaplacianNames = map[string]LaplacianType{
		"spectral": SpectralLaplacian,
		"fd":       FiniteDifferenceLaplacian,
	}
)

func NewLaplacianType(label string) (lt LaplacianType, err error) {
	var ok bool
	if lt, ok = LaplacianNames[label]; !ok {
		err = fmt.Errorf("unknown spatial operator %q, choose spectral or fd", label)
	}
	return
}

func NewLaplacian(lt LaplacianType, N int) Laplacian {
	switch lt {
	case FiniteDifferenceLaplacian:
		return NewFDLaplacian(N)
	default:
		return NewSpectralLaplacian(N)
	}
}

// Spectral multiplies by -k^2 in Fourier space
type Spectral struct {
	fft *spectral.Workspace[float64]
	lap []float64
	z   []complex128
}

func NewSpectralLaplacian(N int) (sp *Spectral) {
	sp = &Spectral{
		fft: spectral.NewWorkspace[float64](N),
		lap: make([]float64, N),
		z:   make([]complex128, N),
	}
	for i, k := range spectral.Wavenumbers(N) {
		if k*k > 1.e-13 {
			sp.lap[i] = -k * k
		}
	}
	return
}

func (sp *Spectral) Name() string { return "spectral" }

func (sp *Spectral) Apply(dst, u []float64) {
	zu := sp.fft.Forward(u)
	for i := range sp.z {
		sp.z[i] = zu[i] * complex(sp.lap[i], 0)
	}
	sp.fft.Backward(sp.z, dst)
}

func (sp *Spectral) Solve(dst, rhs []float64, c float64) {
	zr := sp.fft.Forward(rhs)
	for i := range sp.z {
		sp.z[i] = zr[i] / complex(1-c*sp.lap[i], 0)
	}
	sp.fft.Backward(sp.z, dst)
}

// FD is the second order central difference Laplacian stored as a sparse matrix.
// The implicit systems are factored once per distinct c.
type FD struct {
	N   int
	L   *sparse.CSR
	lus map[float64]*mat.LU
	x   *mat.VecDense
}

func NewFDLaplacian(N int) (fd *FD) {
	var (
		h2  = 1. / float64(N*N)
		dok = sparse.NewDOK(N, N)
	)
	for i := 0; i < N; i++ {
		dok.Set(i, i, -2/h2)
		dok.Set(i, (i+1)%N, 1/h2)
		dok.Set(i, (i+N-1)%N, 1/h2)
	}
	fd = &FD{
		N:   N,
		L:   dok.ToCSR(),
		lus: make(map[float64]*mat.LU),
		x:   mat.NewVecDense(N, nil),
	}
	return
}

func (fd *FD) Name() string { return "fd" }

func (fd *FD) Apply(dst, u []float64) {
	for i := range dst {
		dst[i] = 0
	}
	fd.L.MulVecTo(dst, false, u)
}

func (fd *FD) Solve(dst, rhs []float64, c float64) {
	lu, ok := fd.lus[c]
	if !ok {
		A := utils.NewMatrix(fd.N, fd.N)
		A.M.Scale(-c, mat.DenseCopyOf(fd.L))
		for i := 0; i < fd.N; i++ {
			A.M.Set(i, i, A.M.At(i, i)+1)
		}
		lu = &mat.LU{}
		lu.Factorize(A.M)
		fd.lus[c] = lu
	}
	if err := lu.SolveVecTo(fd.x, false, mat.NewVecDense(fd.N, rhs)); err != nil {
		panic(fmt.Errorf("finite difference implicit solve with c=%g: %v", c, err))
	}
	copy(dst, fd.x.RawVector().Data)
}
