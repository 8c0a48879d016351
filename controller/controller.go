package controller

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/status"
	"github.com/notargets/gopfasst/sweeper"
	"github.com/notargets/gopfasst/utils"
)

var (
	ErrValue = fmt.Errorf("controller: %w", encap.ErrValue)
	ErrLogic = fmt.Errorf("controller: %w", encap.ErrLogic)
)

// Options is the explicit run context handed to a controller
type Options struct {
	AbsResTol, RelResTol float64
	Log                  io.Writer
	Verbosity            int
	Name                 string
}

// Controller holds the time stepping state shared by all controllers.
// The concrete controllers own the sweepers and drive them through Run.
type Controller struct {
	Options
	Status   *status.Status
	NumSteps int
	isReady  bool
}

func newController(opts Options, name string) (c Controller) {
	if opts.Log == nil {
		opts.Log = os.Stdout
	}
	if opts.Name == "" {
		opts.Name = name
	}
	c = Controller{
		Options: opts,
		Status:  status.NewStatus(),
	}
	return
}

// SetDuration positions the controller at t0 with step size dt. A positive numSteps
// must agree with tEnd, numSteps == 0 derives it from tEnd.
func (c *Controller) SetDuration(t0, tEnd, dt float64, numSteps, maxIterations int) {
	c.Status.Time, c.Status.TEnd, c.Status.Dt = t0, tEnd, dt
	c.Status.NumSteps = numSteps
	c.Status.MaxIterations = maxIterations
	c.Status.Step, c.Status.Iteration = 0, 0
}

func (c *Controller) logf(level int, format string, args ...interface{}) {
	if c.Verbosity >= level {
		fmt.Fprintf(c.Log, "%-10s "+format+"\n", append([]interface{}{c.Name}, args...)...)
	}
}

func (c *Controller) IsReady() bool { return c.isReady }

// Setup validates the duration and computes the number of steps
func (c *Controller) Setup() (err error) {
	var (
		st = c.Status
	)
	if c.isReady {
		c.logf(0, "controller has already been setup")
	}
	switch {
	case st.TEnd <= 0:
		return fmt.Errorf("end time point must be larger than zero, not %g: %w", st.TEnd, ErrValue)
	case st.Dt <= 0:
		return fmt.Errorf("time step must be larger than zero, not %g: %w", st.Dt, ErrValue)
	case st.TEnd <= st.Time:
		return fmt.Errorf("end time point %g is not after the start %g: %w", st.TEnd, st.Time, ErrValue)
	case st.MaxIterations < 0:
		return fmt.Errorf("negative maximum number of iterations %d: %w", st.MaxIterations, ErrValue)
	}
	var (
		span = st.TEnd - st.Time
		n    = int(math.Round(span / st.Dt))
	)
	if n < 1 || !utils.AlmostEqual(float64(n)*st.Dt, span) {
		return fmt.Errorf("duration %g is not an integral multiple of dt=%g: %w", span, st.Dt, ErrValue)
	}
	if st.NumSteps > 0 && st.NumSteps != n {
		return fmt.Errorf("%d steps of dt=%g from t=%g do not end at %g: %w",
			st.NumSteps, st.Dt, st.Time, st.TEnd, ErrValue)
	}
	st.NumSteps = n
	c.NumSteps = n
	if st.MaxIterations == 0 && c.AbsResTol == 0 && c.RelResTol == 0 {
		c.logf(0, "no maximum number of iterations and no residual tolerance, every step stops after the prediction")
	} else if st.MaxIterations == 0 {
		c.logf(0, "you should define a maximum number of iterations to avoid endless runs")
	}
	c.logf(1, "setup %d steps of dt=%g from t=%g to t=%g with at most %d iterations",
		n, st.Dt, st.Time, st.TEnd, st.MaxIterations)
	c.isReady = true
	return
}

func (c *Controller) checkReady() error {
	if !c.isReady {
		return fmt.Errorf("controller is not ready to run, setup not called: %w", ErrLogic)
	}
	return nil
}

// AdvanceTime moves numSteps steps forward. It refuses, without changing anything,
// to step past the end time or onto it.
func (c *Controller) AdvanceTime(numSteps int) bool {
	var (
		st      = c.Status
		newTime = st.Time + float64(numSteps)*st.Dt
	)
	switch {
	case newTime > st.TEnd && !utils.AlmostEqual(newTime, st.TEnd):
		c.logf(2, "not advancing %d step(s) with dt=%g to t=%g as it exceeds t_end=%g",
			numSteps, st.Dt, newTime, st.TEnd)
		return false
	case utils.AlmostEqual(newTime, st.TEnd):
		c.logf(2, "end time point reached: %g", st.TEnd)
		return false
	}
	st.Time = newTime
	st.Step += numSteps
	st.Iteration = 0
	c.logf(2, "advancing %d step(s) with dt=%g to t=%g", numSteps, st.Dt, newTime)
	return true
}

// AdvanceIteration refuses once the maximum number of iterations is reached
func (c *Controller) AdvanceIteration() bool {
	st := c.Status
	if st.Iteration+1 > st.MaxIterations {
		c.logf(2, "not advancing to iteration %d, maximum is %d", st.Iteration+1, st.MaxIterations)
		return false
	}
	st.Iteration++
	return true
}

// PostRun prints the summary block of the final step
func (c *Controller) PostRun() {
	fmt.Fprintf(c.Log, "%-10s Run Finished.\n", c.Name)
	fmt.Fprintf(c.Log, "%-10s   Final Step:        %d of %d (t=%8.4f)\n", c.Name, c.Status.Step+1, c.NumSteps, c.Status.Time+c.Status.Dt)
	for _, line := range c.Status.Summary() {
		fmt.Fprintf(c.Log, "%-10s   %s\n", c.Name, line)
	}
}

// checkFinite stops a run whose end state has blown up
func checkFinite[T encap.Scalar](st *status.Status, sw sweeper.Sweeper[T]) error {
	if utils.IsNan(sw.EndState().Data()) {
		return fmt.Errorf("end state of step %d is not a number after %d iterations: %w",
			st.Step+1, st.Iteration, ErrValue)
	}
	return nil
}
