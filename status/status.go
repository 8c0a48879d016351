package status

import (
	"fmt"
	"math"

	"github.com/notargets/gopfasst/comm"
)

type State int

const (
	CONVERGED State = 0
	FAILED    State = 1

	PREDICTING State = 10
	ITERATING  State = 11

	PRE_ITER_COARSE  State = 20
	ITER_COARSE      State = 21
	POST_ITER_COARSE State = 22

	PRE_ITER_FINE  State = 30
	ITER_FINE      State = 31
	POST_ITER_FINE State = 32

	UNKNOWN State = math.MaxInt32
)

var (
	StateNames = map[State]string{
		CONVERGED:        "CONVERGED",
		FAILED:           "FAILED",
		PREDICTING:       "PREDICTING",
		ITERATING:        "ITERATING",
		PRE_ITER_COARSE:  "PRE_ITER_COARSE",
		ITER_COARSE:      "ITER_COARSE",
		POST_ITER_COARSE: "POST_ITER_COARSE",
		PRE_ITER_FINE:    "PRE_ITER_FINE",
		ITER_FINE:        "ITER_FINE",
		POST_ITER_FINE:   "POST_ITER_FINE",
		UNKNOWN:          "UNKNOWN",
	}
)

func (s State) String() string {
	if name, ok := StateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Done is true for the terminal states
func (s State) Done() bool {
	return s == CONVERGED || s == FAILED
}

// Status is the per rank record shared by a controller and its sweepers.
// Sweepers read the time fields and write only State and the residual norms.
type Status struct {
	State         State
	Step          int
	NumSteps      int
	Iteration     int
	MaxIterations int
	Time          float64
	Dt            float64
	TEnd          float64
	AbsResNorm    float64
	RelResNorm    float64

	wire    [2][]float64
	recvReq [2]*comm.Request
	sendReq [2]*comm.Request
}

func NewStatus() *Status {
	return &Status{State: UNKNOWN}
}

// Residual is the scalar summary exchanged between ranks
func (s *Status) Residual() float64 { return s.AbsResNorm }

// Send transmits the residual on tag and the state on tag+1
func (s *Status) Send(c comm.Communicator, dest, tag int, blocking bool) (err error) {
	msgs := [2][]float64{{s.AbsResNorm}, {float64(s.State)}}
	for i, msg := range msgs {
		if blocking {
			if err = c.Send(msg, dest, tag+i); err != nil {
				return
			}
			continue
		}
		if err = s.sendReq[i].Wait(); err != nil {
			return
		}
		if s.sendReq[i], err = c.Isend(msg, dest, tag+i); err != nil {
			return
		}
	}
	return
}

// Recv overwrites the residual and state with the values sent by src.
// A non-blocking receive is completed by Wait.
func (s *Status) Recv(c comm.Communicator, src, tag int, blocking bool) (err error) {
	if err = s.Wait(); err != nil {
		return
	}
	for i := range s.wire {
		s.wire[i] = make([]float64, 1)
		if blocking {
			if err = c.Recv(s.wire[i], src, tag+i); err != nil {
				return
			}
			continue
		}
		if s.recvReq[i], err = c.Irecv(s.wire[i], src, tag+i); err != nil {
			return
		}
	}
	if blocking {
		s.unpack()
	}
	return
}

func (s *Status) Wait() (err error) {
	if s.recvReq[0] == nil && s.recvReq[1] == nil {
		return
	}
	for i, req := range s.recvReq {
		if e := req.Wait(); e != nil && err == nil {
			err = e
		}
		s.recvReq[i] = nil
	}
	if err == nil {
		s.unpack()
	}
	return
}

func (s *Status) unpack() {
	s.AbsResNorm = s.wire[0][0]
	s.State = State(int(s.wire[1][0]))
}

// Bcast copies the residual and state of root to every rank
func (s *Status) Bcast(c comm.Communicator, root int) (err error) {
	buf := []float64{s.AbsResNorm, float64(s.State)}
	if err = c.Bcast(buf, root); err != nil {
		return
	}
	s.AbsResNorm, s.State = buf[0], State(int(buf[1]))
	return
}

func (s *Status) Summary() (lines []string) {
	lines = []string{
		fmt.Sprintf("Number Iterations: %d", s.Iteration),
		fmt.Sprintf("Final State:       %s", s.State),
		fmt.Sprintf("Final Residuals:   %12.6e (abs) %12.6e (rel)", s.AbsResNorm, s.RelResNorm),
	}
	return
}

func (s *Status) String() string {
	return fmt.Sprintf("Status(t=%8.4f, dt=%8.4f, t_end=%8.4f, step=%d, iter=%d, k_max=%d, state=%s)",
		s.Time, s.Dt, s.TEnd, s.Step, s.Iteration, s.MaxIterations, s.State)
}
