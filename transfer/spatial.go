package transfer

import (
	"fmt"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/spectral"
	"github.com/notargets/gopfasst/sweeper"
)

type Encap[T encap.Scalar] = sweeper.Encap[T]

// SpatialOp moves one state between the coarse and fine spatial discretizations
type SpatialOp[T encap.Scalar] interface {
	// Interpolate fills the fine state from the coarse one
	Interpolate(fine, coarse *Encap[T]) error
	// Restrict fills the coarse state from the fine one
	Restrict(coarse, fine *Encap[T]) error
}

func sizes[T encap.Scalar](fine, coarse *Encap[T]) (nf, nc, factor int, err error) {
	nf, nc = fine.Size(), coarse.Size()
	if nc < 1 || nf < nc || nf%nc != 0 {
		err = fmt.Errorf("fine size %d is not a multiple of coarse size %d: %w", nf, nc, ErrValue)
		return
	}
	factor = nf / nc
	return
}

func strideRestrict[T encap.Scalar](coarse, fine *Encap[T], factor int) {
	var (
		c = coarse.Data()
		f = fine.Data()
	)
	for i := range c {
		c[i] = f[factor*i]
	}
}

// Spectral1D interpolates periodic states by zero padding their spectrum
// and restricts by point injection
type Spectral1D[T encap.Scalar] struct {
	fft     *spectral.Workspaces[T]
	padding map[int][]complex128
}

func NewSpectral1D[T encap.Scalar]() *Spectral1D[T] {
	return &Spectral1D[T]{
		fft:     spectral.NewWorkspaces[T](),
		padding: make(map[int][]complex128),
	}
}

func (sp *Spectral1D[T]) Interpolate(fine, coarse *Encap[T]) (err error) {
	var (
		nf, nc int
	)
	if nf, nc, _, err = sizes(fine, coarse); err != nil {
		return
	}
	if nf == nc {
		fine.Copy(coarse)
		return
	}
	zc := sp.fft.Get(nc).Forward(coarse.Data())
	zf, ok := sp.padding[nf]
	if !ok {
		zf = make([]complex128, nf)
		sp.padding[nf] = zf
	}
	clear(zf)
	// coarse forward is unnormalized, fine backward divides by nf
	c := complex(float64(nf)/float64(nc), 0)
	for i := 0; i < nc/2; i++ {
		zf[i] = c * zc[i]
	}
	for i := 1; i < nc/2; i++ {
		zf[nf-nc/2+i] = c * zc[nc/2+i]
	}
	sp.fft.Get(nf).Backward(zf, fine.Data())
	return
}

func (sp *Spectral1D[T]) Restrict(coarse, fine *Encap[T]) (err error) {
	var (
		nf, nc, factor int
	)
	if nf, nc, factor, err = sizes(fine, coarse); err != nil {
		return
	}
	if nf == nc {
		coarse.Copy(fine)
		return
	}
	strideRestrict(coarse, fine, factor)
	return
}

// Injection copies equal sized states, restricts by point injection and interpolates
// linearly between the coarse points of a periodic grid
type Injection[T encap.Scalar] struct{}

func (Injection[T]) Interpolate(fine, coarse *Encap[T]) (err error) {
	var (
		nf, nc, factor int
	)
	if nf, nc, factor, err = sizes(fine, coarse); err != nil {
		return
	}
	if nf == nc {
		fine.Copy(coarse)
		return
	}
	var (
		f = fine.Data()
		c = coarse.Data()
	)
	for i := range f {
		j, r := i/factor, i%factor
		w := float64(r) / float64(factor)
		f[i] = encap.FromFloat[T](1-w)*c[j] + encap.FromFloat[T](w)*c[(j+1)%nc]
	}
	return
}

func (Injection[T]) Restrict(coarse, fine *Encap[T]) (err error) {
	var (
		factor int
	)
	if _, _, factor, err = sizes(fine, coarse); err != nil {
		return
	}
	strideRestrict(coarse, fine, factor)
	return
}

// SpatialFuncs adapts caller supplied operators, a missing one reports ErrNotImplemented
type SpatialFuncs[T encap.Scalar] struct {
	InterpolateFunc func(fine, coarse *Encap[T]) error
	RestrictFunc    func(coarse, fine *Encap[T]) error
}

func (sf SpatialFuncs[T]) Interpolate(fine, coarse *Encap[T]) error {
	if sf.InterpolateFunc == nil {
		return fmt.Errorf("spatial interpolation: %w", ErrNotImplemented)
	}
	return sf.InterpolateFunc(fine, coarse)
}

func (sf SpatialFuncs[T]) Restrict(coarse, fine *Encap[T]) error {
	if sf.RestrictFunc == nil {
		return fmt.Errorf("spatial restriction: %w", ErrNotImplemented)
	}
	return sf.RestrictFunc(coarse, fine)
}
