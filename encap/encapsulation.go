package encap

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gopfasst/comm"
	"github.com/notargets/gopfasst/utils"
)

// Scalar is the component type of a state, complex states travel as interleaved real pairs
type Scalar interface {
	float64 | complex128
}

// Encapsulation is one solution or right hand side sample
type Encapsulation[T Scalar] struct {
	data    []T
	wire    []float64
	sendReq *comm.Request
	recvReq *comm.Request
}

func New[T Scalar](size int) *Encapsulation[T] {
	return &Encapsulation[T]{data: make([]T, size)}
}

// NewFrom wraps a copy of data
func NewFrom[T Scalar](data []T) (e *Encapsulation[T]) {
	e = New[T](len(data))
	copy(e.data, data)
	return
}

func (e *Encapsulation[T]) Data() []T  { return e.data }
func (e *Encapsulation[T]) Size() int  { return len(e.data) }
func (e *Encapsulation[T]) At(i int) T { return e.data[i] }

func (e *Encapsulation[T]) Zero() {
	clear(e.data)
}

func (e *Encapsulation[T]) Copy(other *Encapsulation[T]) {
	checkSize(e, other)
	copy(e.data, other.data)
}

// ScaledAdd computes e += a*x
func (e *Encapsulation[T]) ScaledAdd(a T, x *Encapsulation[T]) {
	checkSize(e, x)
	switch d := any(e.data).(type) {
	case []float64:
		floats.AddScaled(d, any(a).(float64), any(x.data).([]float64))
	case []complex128:
		cmplxs.AddScaled(d, any(a).(complex128), any(x.data).([]complex128))
	}
}

// Norm0 is the maximum absolute component
func (e *Encapsulation[T]) Norm0() (norm float64) {
	switch d := any(e.data).(type) {
	case []float64:
		norm = floats.Norm(d, math.Inf(1))
	case []complex128:
		norm = cmplxs.Norm(d, math.Inf(1))
	}
	return
}

// Send ships the state to dest, a non-blocking send first completes the previous one
func (e *Encapsulation[T]) Send(c comm.Communicator, dest, tag int, blocking bool) (err error) {
	if err = e.sendReq.Wait(); err != nil {
		return
	}
	e.sendReq = nil
	buf := Pack(e.data, nil)
	if blocking {
		return c.Send(buf, dest, tag)
	}
	e.sendReq, err = c.Isend(buf, dest, tag)
	return
}

// Recv fills the state from src. A non-blocking receive is completed by Wait.
func (e *Encapsulation[T]) Recv(c comm.Communicator, src, tag int, blocking bool) (err error) {
	if err = e.Wait(); err != nil {
		return
	}
	e.wire = e.wireBuffer()
	if blocking {
		if err = c.Recv(e.wire, src, tag); err != nil {
			return
		}
		Unpack(e.wire, e.data)
		return
	}
	e.recvReq, err = c.Irecv(e.wire, src, tag)
	return
}

// Wait completes an outstanding non-blocking receive and unpacks it
func (e *Encapsulation[T]) Wait() (err error) {
	if e.recvReq == nil {
		return
	}
	err = e.recvReq.Wait()
	e.recvReq = nil
	if err == nil {
		Unpack(e.wire, e.data)
	}
	return
}

// Pending reports whether a non-blocking receive is still in flight
func (e *Encapsulation[T]) Pending() bool {
	return e.recvReq != nil && !e.recvReq.Test()
}

func (e *Encapsulation[T]) Bcast(c comm.Communicator, root int) (err error) {
	if err = e.Wait(); err != nil {
		return
	}
	buf := Pack(e.data, e.wireBuffer())
	if err = c.Bcast(buf, root); err != nil {
		return
	}
	Unpack(buf, e.data)
	return
}

func (e *Encapsulation[T]) wireBuffer() []float64 {
	n := WireSize[T](len(e.data))
	if len(e.wire) != n {
		e.wire = make([]float64, n)
	}
	return e.wire
}

func (e *Encapsulation[T]) String() string {
	return fmt.Sprintf("%v", e.data)
}

func checkSize[T Scalar](a, b *Encapsulation[T]) {
	if len(a.data) != len(b.data) {
		panic(fmt.Errorf("encapsulation size mismatch: %d vs %d", len(a.data), len(b.data)))
	}
}

// FromFloat converts a real number into the scalar type
func FromFloat[T Scalar](v float64) (z T) {
	switch p := any(&z).(type) {
	case *float64:
		*p = v
	case *complex128:
		*p = complex(v, 0)
	}
	return
}

// FromComplex converts a complex number into the scalar type, real states keep the real part
func FromComplex[T Scalar](c complex128) (z T) {
	switch p := any(&z).(type) {
	case *float64:
		*p = real(c)
	case *complex128:
		*p = c
	}
	return
}

// ToComplex widens a scalar to complex128
func ToComplex[T Scalar](z T) complex128 {
	switch v := any(z).(type) {
	case float64:
		return complex(v, 0)
	case complex128:
		return v
	}
	return 0
}

func Abs[T Scalar](z T) float64 {
	switch v := any(z).(type) {
	case float64:
		return math.Abs(v)
	case complex128:
		return cmplx.Abs(v)
	}
	return 0
}

func WireSize[T Scalar](n int) int {
	var z T
	if _, ok := any(z).(complex128); ok {
		return 2 * n
	}
	return n
}

// Pack flattens data to reals, reusing dst when it has the right length
func Pack[T Scalar](data []T, dst []float64) []float64 {
	n := WireSize[T](len(data))
	if len(dst) != n {
		dst = make([]float64, n)
	}
	switch v := any(data).(type) {
	case []float64:
		copy(dst, v)
	case []complex128:
		for i, c := range v {
			dst[2*i], dst[2*i+1] = real(c), imag(c)
		}
	}
	return dst
}

func Unpack[T Scalar](src []float64, data []T) {
	switch v := any(data).(type) {
	case []float64:
		copy(v, src)
	case []complex128:
		for i := range v {
			v[i] = complex(src[2*i], src[2*i+1])
		}
	}
}

// Factory allocates encapsulations of a fixed size
type Factory[T Scalar] struct {
	size int
}

func NewFactory[T Scalar](size int) *Factory[T] {
	return &Factory[T]{size: size}
}

func (f *Factory[T]) Size() int     { return f.size }
func (f *Factory[T]) SetSize(n int) { f.size = n }
func (f *Factory[T]) Create() *Encapsulation[T] {
	return New[T](f.size)
}

// CreateN allocates n encapsulations
func (f *Factory[T]) CreateN(n int) (es []*Encapsulation[T]) {
	es = make([]*Encapsulation[T], n)
	for i := range es {
		es[i] = f.Create()
	}
	return
}

// Axpy returns a new encapsulation a*x + y
func Axpy[T Scalar](a T, x, y *Encapsulation[T]) (r *Encapsulation[T]) {
	r = New[T](y.Size())
	r.Copy(y)
	r.ScaledAdd(a, x)
	return
}

// MatApply computes dst[n] += a * sum_m M[n][m] src[m], zeroing dst first when asked
func MatApply[T Scalar](dst []*Encapsulation[T], a T, M utils.Matrix, src []*Encapsulation[T], zeroFirst bool) {
	var (
		nr, nc = M.Dims()
	)
	if len(dst) != nr || len(src) != nc {
		panic(fmt.Errorf("matrix apply shape mismatch: %d x %d matrix, %d destinations, %d sources",
			nr, nc, len(dst), len(src)))
	}
	for m := 1; m < nc; m++ {
		checkSize(src[0], src[m])
	}
	for n := 0; n < nr; n++ {
		if nc > 0 {
			checkSize(dst[n], src[0])
		}
		if zeroFirst {
			dst[n].Zero()
		}
		row := M.Row(n)
		for m, mv := range row {
			if mv == 0 {
				continue
			}
			dst[n].ScaledAdd(a*FromFloat[T](mv), src[m])
		}
	}
}

// MatMulVec returns fresh encapsulations holding a * M * src
func MatMulVec[T Scalar](a T, M utils.Matrix, src []*Encapsulation[T]) (dst []*Encapsulation[T]) {
	var (
		nr, _ = M.Dims()
	)
	dst = make([]*Encapsulation[T], nr)
	size := 0
	if len(src) > 0 {
		size = src[0].Size()
	}
	for n := range dst {
		dst[n] = New[T](size)
	}
	MatApply(dst, a, M, src, true)
	return
}

// CopyAll deep copies src into dst element by element
func CopyAll[T Scalar](dst, src []*Encapsulation[T]) {
	if len(dst) != len(src) {
		panic(fmt.Errorf("copy length mismatch: %d vs %d", len(dst), len(src)))
	}
	for i := range src {
		dst[i].Copy(src[i])
	}
}
