package quadrature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gopfasst/utils"
)

// Quadrature holds n nodes on [0,1] and the integration matrices built from them
type Quadrature struct {
	Type                    QuadratureType
	nodes                   []float64
	Q, S                    utils.Matrix // n x n
	B                       utils.Matrix // 1 x n
	leftIsNode, rightIsNode bool
}

func NewQuadrature(qt QuadratureType, numNodes int) (q *Quadrature, err error) {
	var (
		nodes []float64
	)
	if numNodes < qt.MinNodes() {
		err = fmt.Errorf("%s needs at least %d nodes, got %d: %w",
			qt, qt.MinNodes(), numNodes, ErrValue)
		return
	}
	switch qt {
	case GaussLegendre:
		X, _ := JacobiGQ(0, 0, numNodes-1)
		nodes = shift(X.DataP())
	case GaussLobatto:
		nodes = shift(JacobiGL(0, 0, numNodes-1).DataP())
		nodes[0], nodes[numNodes-1] = 0, 1
	case GaussRadau:
		X, _ := JacobiGQ(1, 0, numNodes-2)
		nodes = append(shift(X.DataP()), 1)
	case ClenshawCurtis:
		nodes = make([]float64, numNodes)
		for j := range nodes {
			nodes[j] = 0.5 * (1 - math.Cos(float64(j)*math.Pi/float64(numNodes-1)))
		}
		nodes[0], nodes[numNodes-1] = 0, 1
	case Uniform:
		nodes = make([]float64, numNodes)
		for j := range nodes {
			nodes[j] = float64(j) / float64(numNodes-1)
		}
	default:
		err = fmt.Errorf("unknown quadrature type %d: %w", int(qt), ErrValue)
		return
	}
	q = NewQuadratureFromNodes(nodes)
	q.Type = qt
	return
}

// NewQuadratureFromNodes builds the matrices for a caller supplied strictly increasing node set in [0,1]
func NewQuadratureFromNodes(nodes []float64) (q *Quadrature) {
	var (
		n = len(nodes)
	)
	for i := 1; i < n; i++ {
		if nodes[i] <= nodes[i-1] {
			panic(fmt.Errorf("nodes must be strictly increasing, have %v", nodes))
		}
	}
	q = &Quadrature{
		nodes:       append([]float64{}, nodes...),
		leftIsNode:  math.Abs(nodes[0]) < utils.NODETOL,
		rightIsNode: math.Abs(nodes[n-1]-1) < utils.NODETOL,
	}
	q.Q = ComputeQMatrix(q.nodes)
	q.S = ComputeSMatrix(q.Q)
	q.B = ComputeBVector(q.nodes)
	if q.rightIsNode {
		// exact copy so the end state of a right-node family equals its last node
		q.B = NewRowMatrix(q.Q.Row(n - 1))
	}
	q.Q.SetReadOnly("Q")
	q.S.SetReadOnly("S")
	q.B.SetReadOnly("B")
	return
}

func (q *Quadrature) Nodes() []float64   { return q.nodes }
func (q *Quadrature) QMat() utils.Matrix { return q.Q }
func (q *Quadrature) SMat() utils.Matrix { return q.S }
func (q *Quadrature) BMat() utils.Matrix { return q.B }
func (q *Quadrature) NumNodes() int      { return len(q.nodes) }
func (q *Quadrature) LeftIsNode() bool   { return q.leftIsNode }
func (q *Quadrature) RightIsNode() bool  { return q.rightIsNode }
func (q *Quadrature) ExpectedOrder() int { return q.Type.Order(len(q.nodes)) }
func (q *Quadrature) Weights() []float64 { return q.B.Row(0) }
func (q *Quadrature) String() string {
	return fmt.Sprintf("%s(%d) nodes=%v", q.Type, len(q.nodes), q.nodes)
}

// ComputeQMatrix integrates each Lagrange basis polynomial from 0 to every node
func ComputeQMatrix(nodes []float64) (Q utils.Matrix) {
	var (
		n = len(nodes)
	)
	Q = utils.NewMatrix(n, n)
	for i, c := range nodes {
		Q.SetRow(i, integrateLagrange(nodes, 0, c))
	}
	return
}

// ComputeSMatrix differences the rows of Q so row i integrates from node i-1 to node i
func ComputeSMatrix(Q utils.Matrix) (S utils.Matrix) {
	var (
		nr, nc = Q.Dims()
	)
	S = utils.NewMatrix(nr, nc)
	S.SetRow(0, Q.Row(0))
	for i := 1; i < nr; i++ {
		row := S.Row(i)
		floats.SubTo(row, Q.Row(i), Q.Row(i-1))
	}
	return
}

// ComputeBVector integrates each Lagrange basis polynomial over [0,1]
func ComputeBVector(nodes []float64) (B utils.Matrix) {
	return NewRowMatrix(integrateLagrange(nodes, 0, 1))
}

// integrateLagrange returns the integrals over [a,b] of the Lagrange basis on nodes.
// The basis is evaluated in product form at Gauss-Legendre points, n/2+1 of them are
// exact for its degree n-1.
func integrateLagrange(nodes []float64, a, b float64) (w []float64) {
	var (
		n    = len(nodes)
		X, W = JacobiGQ(0, 0, n/2)
		h    = 0.5 * (b - a)
		x    = make([]float64, X.Len())
	)
	w = make([]float64, n)
	if h == 0 {
		return
	}
	for k, xk := range X.DataP() {
		x[k] = a + h*(1+xk)
	}
	T := ComputeInterp(x, nodes)
	for k, wk := range W.DataP() {
		floats.AddScaled(w, h*wk, T.Row(k))
	}
	return
}

// ComputeInterp gives T with T[i][j] = l_j(dst[i]), l_j the Lagrange basis on src
func ComputeInterp(dst, src []float64) (T utils.Matrix) {
	T = utils.NewMatrix(len(dst), len(src))
	for i, x := range dst {
		for j, sj := range src {
			v := 1.
			for k, sk := range src {
				if k == j {
					continue
				}
				v *= (x - sk) / (sj - sk)
			}
			T.Set(i, j, v)
		}
	}
	return
}

func NewRowMatrix(row []float64) utils.Matrix {
	return utils.NewMatrix(1, len(row), append([]float64{}, row...))
}

// shift maps [-1,1] to [0,1]
func shift(x []float64) (c []float64) {
	c = make([]float64, len(x))
	for i, xx := range x {
		c[i] = 0.5 * (1 + xx)
	}
	return
}
