package InputParameters

import (
	"fmt"
	"math"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/utils"
)

var (
	ProblemNames = []string{"scalar", "heat1d", "advection_diffusion"}
)

// Parameters obtained from the YAML input file
type PFASSTParameters struct {
	Title                string    `yaml:"Title"`
	Problem              string    `yaml:"Problem"`
	TStart               float64   `yaml:"TStart"`
	TEnd                 float64   `yaml:"TEnd"`
	Dt                   float64   `yaml:"Dt"`
	NumSteps             int       `yaml:"NumSteps"`
	NumIters             int       `yaml:"NumIters"`
	AbsResTol            float64   `yaml:"AbsResTol"`
	RelResTol            float64   `yaml:"RelResTol"`
	QuadratureType       string    `yaml:"QuadratureType"`
	CoarseQuadratureType string    `yaml:"CoarseQuadratureType"`
	NumNodes             int       `yaml:"NumNodes"`
	CoarseNumNodes       int       `yaml:"CoarseNumNodes"`
	NumDofs              int       `yaml:"NumDofs"`
	CoarseNumDofs        int       `yaml:"CoarseNumDofs"`
	Lambda               []float64 `yaml:"Lambda"` // real and imaginary part
	Nu                   float64   `yaml:"Nu"`
	Velocity             float64   `yaml:"Velocity"`
	Ranks                int       `yaml:"Ranks"`
	SpatialOperator      string    `yaml:"SpatialOperator"`
	Verbosity            int       `yaml:"Verbosity"`
}

func NewPFASSTParameters() *PFASSTParameters {
	return &PFASSTParameters{
		Title:           "PFASST run",
		Problem:         "advection_diffusion",
		TEnd:            0.04,
		Dt:              0.01,
		NumIters:        8,
		QuadratureType:  "gauss-lobatto",
		NumNodes:        3,
		NumDofs:         128,
		Lambda:          []float64{-1, 1},
		Nu:              0.02,
		Velocity:        1,
		Ranks:           1,
		SpatialOperator: "spectral",
		Verbosity:       1,
	}
}

func (ip *PFASSTParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// Coarse fills the coarse level options that were left out from the fine level
func (ip *PFASSTParameters) Coarse() (qt string, nodes, dofs int) {
	qt, nodes, dofs = ip.CoarseQuadratureType, ip.CoarseNumNodes, ip.CoarseNumDofs
	if len(qt) == 0 {
		qt = ip.QuadratureType
	}
	if nodes == 0 {
		nodes = ip.NumNodes
	}
	if dofs == 0 {
		dofs = max(ip.NumDofs/2, 1)
	}
	return
}

func (ip *PFASSTParameters) LambdaValue() complex128 {
	switch len(ip.Lambda) {
	case 0:
		return complex(-1, 1)
	case 1:
		return complex(ip.Lambda[0], 0)
	default:
		return complex(ip.Lambda[0], ip.Lambda[1])
	}
}

// Duration resolves t_end and num_steps from each other, a given pair must be consistent
func (ip *PFASSTParameters) Duration() (tEnd float64, numSteps int, err error) {
	tEnd, numSteps = ip.TEnd, ip.NumSteps
	if ip.Dt <= 0 {
		err = fmt.Errorf("time step must be larger than zero, not %g", ip.Dt)
		return
	}
	switch {
	case tEnd == 0 && numSteps == 0:
		err = fmt.Errorf("neither TEnd nor NumSteps given")
	case tEnd == 0:
		tEnd = ip.TStart + float64(numSteps)*ip.Dt
	case numSteps == 0:
		numSteps = int(math.Round((tEnd - ip.TStart) / ip.Dt))
		if !utils.AlmostEqual(ip.TStart+float64(numSteps)*ip.Dt, tEnd) {
			err = fmt.Errorf("TEnd=%g is not reached with whole steps of Dt=%g from %g", tEnd, ip.Dt, ip.TStart)
		}
	default:
		if !utils.AlmostEqual(ip.TStart+float64(numSteps)*ip.Dt, tEnd) {
			err = fmt.Errorf("%d steps of Dt=%g from %g do not end at TEnd=%g", numSteps, ip.Dt, ip.TStart, tEnd)
		}
	}
	return
}

func (ip *PFASSTParameters) Validate() (err error) {
	var (
		qt quadrature.QuadratureType
	)
	if _, _, err = ip.Duration(); err != nil {
		return
	}
	if ip.NumIters < 0 {
		return fmt.Errorf("negative NumIters %d", ip.NumIters)
	}
	found := false
	for _, name := range ProblemNames {
		found = found || strings.EqualFold(name, ip.Problem)
	}
	if !found {
		return fmt.Errorf("unknown problem %q, use one of %v", ip.Problem, ProblemNames)
	}
	cqtName, cnodes, cdofs := ip.Coarse()
	for _, level := range []struct {
		qt          string
		nodes, dofs int
	}{
		{ip.QuadratureType, ip.NumNodes, ip.NumDofs},
		{cqtName, cnodes, cdofs},
	} {
		if qt, err = quadrature.NewQuadratureType(level.qt); err != nil {
			return
		}
		if level.nodes < qt.MinNodes() {
			return fmt.Errorf("%s needs at least %d nodes, not %d", qt, qt.MinNodes(), level.nodes)
		}
		if level.dofs < 1 {
			return fmt.Errorf("number of dofs must be positive, not %d", level.dofs)
		}
	}
	if ip.Ranks < 1 {
		return fmt.Errorf("number of ranks must be positive, not %d", ip.Ranks)
	}
	return
}

func (ip *PFASSTParameters) Print() {
	cqt, cnodes, cdofs := ip.Coarse()
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t= Problem\n", ip.Problem)
	fmt.Printf("%8.5f\t\t= TStart\n", ip.TStart)
	fmt.Printf("%8.5f\t\t= TEnd\n", ip.TEnd)
	fmt.Printf("%8.5f\t\t= Dt\n", ip.Dt)
	fmt.Printf("[%d]\t\t\t\t= NumSteps\n", ip.NumSteps)
	fmt.Printf("[%d]\t\t\t\t= NumIters\n", ip.NumIters)
	fmt.Printf("%8.2e\t\t= AbsResTol\n", ip.AbsResTol)
	fmt.Printf("%8.2e\t\t= RelResTol\n", ip.RelResTol)
	fmt.Printf("[%s] [%d] [%d]\t= Fine Quadrature, Nodes, Dofs\n", ip.QuadratureType, ip.NumNodes, ip.NumDofs)
	fmt.Printf("[%s] [%d] [%d]\t= Coarse Quadrature, Nodes, Dofs\n", cqt, cnodes, cdofs)
	fmt.Printf("%v\t\t= Lambda\n", ip.LambdaValue())
	fmt.Printf("%8.5f\t\t= Nu\n", ip.Nu)
	fmt.Printf("%8.5f\t\t= Velocity\n", ip.Velocity)
	fmt.Printf("[%s]\t\t= SpatialOperator\n", ip.SpatialOperator)
	fmt.Printf("[%d]\t\t\t\t= Ranks\n", ip.Ranks)
}
