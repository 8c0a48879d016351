package comm

import (
	"errors"
	"fmt"
)

var (
	ErrCommunicator = errors.New("communicator error")
	ErrAborted      = fmt.Errorf("world aborted: %w", ErrCommunicator)
)

// Communicator moves real valued buffers between time ranks.
// Messages between a (source, destination, tag) triple are delivered in order.
type Communicator interface {
	Size() int
	Rank() int
	IsFirst() bool
	IsLast() bool
	Send(data []float64, dest, tag int) error
	Isend(data []float64, dest, tag int) (*Request, error)
	Recv(data []float64, src, tag int) error
	Irecv(data []float64, src, tag int) (*Request, error)
	Bcast(data []float64, root int) error
	Abort(code int)
}

// Request is the handle of a non-blocking send or receive
type Request struct {
	done chan struct{}
	err  error
}

func newRequest() *Request {
	return &Request{done: make(chan struct{})}
}

func (r *Request) finish(err error) {
	r.err = err
	close(r.done)
}

// Wait blocks until the operation completes, a nil request is already complete
func (r *Request) Wait() error {
	if r == nil {
		return nil
	}
	<-r.done
	return r.err
}

// Test reports whether the operation has completed without blocking
func (r *Request) Test() bool {
	if r == nil {
		return true
	}
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func checkPeer(c Communicator, peer int) error {
	if peer < 0 || peer >= c.Size() {
		return fmt.Errorf("rank %d of %d has no peer %d: %w", c.Rank(), c.Size(), peer, ErrCommunicator)
	}
	if peer == c.Rank() {
		return fmt.Errorf("rank %d cannot message itself: %w", peer, ErrCommunicator)
	}
	return nil
}
