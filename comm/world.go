package comm

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

const (
	// MaxInFlight is the eager buffer depth of each (source, destination, tag) channel
	MaxInFlight = 64
	bcastTag    = -1
)

type channelKey struct {
	src, dst, tag int
}

// World is an in-process set of time ranks, each rank runs on its own goroutine
// and talks to the others through buffered channels
type World struct {
	NP        int
	mu        sync.Mutex
	channels  map[channelKey]chan []float64
	abort     chan struct{}
	aborted   atomic.Bool
	abortCode atomic.Int64
	ranks     []*Rank
}

func NewWorld(NP int) (w *World) {
	if NP < 1 {
		panic(fmt.Sprintf("world size must be positive, have %d", NP))
	}
	w = &World{
		NP:       NP,
		channels: make(map[channelKey]chan []float64),
		abort:    make(chan struct{}),
		ranks:    make([]*Rank, NP),
	}
	for r := 0; r < NP; r++ {
		w.ranks[r] = &Rank{
			world:   w,
			rank:    r,
			pending: make(map[pendingKey]*Request),
		}
	}
	return
}

// Comm returns the communicator of one rank
func (w *World) Comm(rank int) *Rank { return w.ranks[rank] }

func (w *World) channel(src, dst, tag int) (ch chan []float64) {
	var (
		ok  bool
		key = channelKey{src, dst, tag}
	)
	w.mu.Lock()
	defer w.mu.Unlock()
	if ch, ok = w.channels[key]; !ok {
		ch = make(chan []float64, MaxInFlight)
		w.channels[key] = ch
	}
	return
}

// Abort releases every rank blocked in the world, later operations return ErrAborted
func (w *World) Abort(code int) {
	if w.aborted.CAS(false, true) {
		w.abortCode.Store(int64(code))
		close(w.abort)
	}
}

func (w *World) Aborted() (aborted bool, code int) {
	return w.aborted.Load(), int(w.abortCode.Load())
}

// Run executes f on every rank concurrently and returns the combined errors.
// The first failing rank aborts the world so its peers do not block forever.
func (w *World) Run(f func(c Communicator) error) (err error) {
	var (
		wg   sync.WaitGroup
		errs = make([]error, w.NP)
	)
	for r := 0; r < w.NP; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errs[r] = fmt.Errorf("rank %d panic: %v", r, p)
					w.Abort(1)
				}
			}()
			if errs[r] = f(w.ranks[r]); errs[r] != nil {
				errs[r] = fmt.Errorf("rank %d: %w", r, errs[r])
				w.Abort(1)
			}
		}(r)
	}
	wg.Wait()
	for _, e := range errs {
		err = multierr.Append(err, e)
	}
	return
}

type pendingKey struct {
	peer, tag int
	recv      bool
}

// Rank is one member of a World
type Rank struct {
	world   *World
	rank    int
	mu      sync.Mutex
	pending map[pendingKey]*Request
}

func (r *Rank) Size() int     { return r.world.NP }
func (r *Rank) Rank() int     { return r.rank }
func (r *Rank) IsFirst() bool { return r.rank == 0 }
func (r *Rank) IsLast() bool  { return r.rank == r.world.NP-1 }
func (r *Rank) Abort(code int) {
	r.world.Abort(code)
}

// force completes an outstanding request on the same (peer, tag) before it is reused
func (r *Rank) force(key pendingKey) (err error) {
	r.mu.Lock()
	req, ok := r.pending[key]
	delete(r.pending, key)
	r.mu.Unlock()
	if ok {
		err = req.Wait()
	}
	return
}

func (r *Rank) track(key pendingKey, req *Request) {
	r.mu.Lock()
	r.pending[key] = req
	r.mu.Unlock()
}

func (r *Rank) send(data []float64, dest, tag int) error {
	msg := make([]float64, len(data))
	copy(msg, data)
	ch := r.world.channel(r.rank, dest, tag)
	select {
	case <-r.world.abort:
		return ErrAborted
	default:
	}
	select {
	case ch <- msg:
		return nil
	case <-r.world.abort:
		return ErrAborted
	}
}

func (r *Rank) recv(data []float64, src, tag int) error {
	ch := r.world.channel(src, r.rank, tag)
	select {
	case msg := <-ch:
		if len(msg) != len(data) {
			return fmt.Errorf("rank %d expected %d values from %d tag %d, got %d: %w",
				r.rank, len(data), src, tag, len(msg), ErrCommunicator)
		}
		copy(data, msg)
		return nil
	case <-r.world.abort:
		return ErrAborted
	}
}

// Send buffers the message eagerly, it blocks only when MaxInFlight messages are queued
func (r *Rank) Send(data []float64, dest, tag int) (err error) {
	if err = checkPeer(r, dest); err != nil {
		return
	}
	if err = r.force(pendingKey{dest, tag, false}); err != nil {
		return
	}
	return r.send(data, dest, tag)
}

// Isend copies data before returning so the caller may reuse the buffer
func (r *Rank) Isend(data []float64, dest, tag int) (req *Request, err error) {
	if err = checkPeer(r, dest); err != nil {
		return
	}
	key := pendingKey{dest, tag, false}
	if err = r.force(key); err != nil {
		return
	}
	msg := make([]float64, len(data))
	copy(msg, data)
	req = newRequest()
	go func() { req.finish(r.send(msg, dest, tag)) }()
	r.track(key, req)
	return
}

func (r *Rank) Recv(data []float64, src, tag int) (err error) {
	if err = checkPeer(r, src); err != nil {
		return
	}
	if err = r.force(pendingKey{src, tag, true}); err != nil {
		return
	}
	return r.recv(data, src, tag)
}

// Irecv fills data in the background, data must not be read before Wait returns
func (r *Rank) Irecv(data []float64, src, tag int) (req *Request, err error) {
	if err = checkPeer(r, src); err != nil {
		return
	}
	key := pendingKey{src, tag, true}
	if err = r.force(key); err != nil {
		return
	}
	req = newRequest()
	go func() { req.finish(r.recv(data, src, tag)) }()
	r.track(key, req)
	return
}

// Bcast copies root's data into every other rank's data
func (r *Rank) Bcast(data []float64, root int) (err error) {
	if root < 0 || root >= r.world.NP {
		return fmt.Errorf("broadcast root %d out of range: %w", root, ErrCommunicator)
	}
	if r.rank != root {
		return r.recv(data, root, bcastTag)
	}
	for dst := 0; dst < r.world.NP; dst++ {
		if dst == root {
			continue
		}
		if err = r.send(data, dst, bcastTag); err != nil {
			return
		}
	}
	return
}
