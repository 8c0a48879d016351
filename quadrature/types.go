package quadrature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/gopfasst/encap"
)

var (
	ErrValue = fmt.Errorf("quadrature: %w", encap.ErrValue)
)

type QuadratureType uint8

const (
	GaussLegendre QuadratureType = iota
	GaussLobatto
	GaussRadau
	ClenshawCurtis
	Uniform
)

var (
	QuadratureNames = map[string]QuadratureType{
		"gauss-legendre":  GaussLegendre,
		"legendre":        GaussLegendre,
		"gauss-lobatto":   GaussLobatto,
		"lobatto":         GaussLobatto,
		"gauss-radau":     GaussRadau,
		"radau":           GaussRadau,
		"clenshaw-curtis": ClenshawCurtis,
		"cc":              ClenshawCurtis,
		"uniform":         Uniform,
	}
	QuadraturePrintNames = []string{
		"Gauss-Legendre",
		"Gauss-Lobatto",
		"Gauss-Radau",
		"Clenshaw-Curtis",
		"Uniform",
	}
)

func (qt QuadratureType) String() string {
	if int(qt) < len(QuadraturePrintNames) {
		return QuadraturePrintNames[qt]
	}
	return fmt.Sprintf("QuadratureType(%d)", int(qt))
}

func NewQuadratureType(label string) (qt QuadratureType, err error) {
	var (
		ok bool
	)
	if len(label) == 0 {
		err = errors.New("empty quadrature type")
		return
	}
	if qt, ok = QuadratureNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use quadrature type named %q: %w", label, ErrValue)
	}
	return
}

// MinNodes is the smallest node count the family can be built with
func (qt QuadratureType) MinNodes() int {
	switch qt {
	case GaussLegendre:
		return 1
	default:
		return 2
	}
}

// Order is the formal collocation order for n nodes
func (qt QuadratureType) Order(n int) int {
	switch qt {
	case GaussLegendre:
		return 2 * n
	case GaussRadau:
		return 2*n - 1
	case GaussLobatto:
		return 2*n - 2
	default:
		return n
	}
}
