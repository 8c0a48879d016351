package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/notargets/gopfasst/encap"
)

// Workspace is a 1D complex FFT of fixed size with separate scratch for each direction
type Workspace[T encap.Scalar] struct {
	N   int
	fft *fourier.CmplxFFT
	fwd []complex128
	bwd []complex128
}

func NewWorkspace[T encap.Scalar](N int) *Workspace[T] {
	return &Workspace[T]{
		N:   N,
		fft: fourier.NewCmplxFFT(N),
		fwd: make([]complex128, N),
		bwd: make([]complex128, N),
	}
}

// Forward returns the unnormalized spectrum of x. The slice is borrowed from the
// workspace and is overwritten by the next Forward.
func (w *Workspace[T]) Forward(x []T) []complex128 {
	w.checkLen(len(x))
	for i, v := range x {
		w.fwd[i] = encap.ToComplex(v)
	}
	return w.fft.Coefficients(w.fwd, w.fwd)
}

// Backward writes the normalized inverse transform of z into dst
func (w *Workspace[T]) Backward(z []complex128, dst []T) {
	w.checkLen(len(z))
	w.checkLen(len(dst))
	w.fft.Sequence(w.bwd, z)
	scale := 1. / float64(w.N)
	for i, v := range w.bwd {
		dst[i] = encap.FromComplex[T](v * complex(scale, 0))
	}
}

func (w *Workspace[T]) checkLen(n int) {
	if n != w.N {
		panic(fmt.Errorf("fft workspace of size %d given %d values", w.N, n))
	}
}

// Workspaces holds one workspace per transform size
type Workspaces[T encap.Scalar] struct {
	ws map[int]*Workspace[T]
}

func NewWorkspaces[T encap.Scalar]() *Workspaces[T] {
	return &Workspaces[T]{ws: make(map[int]*Workspace[T])}
}

func (wss *Workspaces[T]) Get(N int) (w *Workspace[T]) {
	var ok bool
	if w, ok = wss.ws[N]; !ok {
		w = NewWorkspace[T](N)
		wss.ws[N] = w
	}
	return
}

func (wss *Workspaces[T]) Len() int { return len(wss.ws) }

// Wavenumbers returns 2*pi*k for the FFT ordering on a periodic domain of unit length
func Wavenumbers(N int) (k []float64) {
	k = make([]float64, N)
	for i := range k {
		kk := i
		if i > N/2 {
			kk = i - N
		}
		k[i] = 2 * math.Pi * float64(kk)
	}
	return
}
