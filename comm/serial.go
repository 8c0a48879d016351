package comm

import "fmt"

// Serial is the communicator of a single time rank
type Serial struct{}

func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Size() int     { return 1 }
func (s *Serial) Rank() int     { return 0 }
func (s *Serial) IsFirst() bool { return true }
func (s *Serial) IsLast() bool  { return true }

func (s *Serial) Send(data []float64, dest, tag int) error { return checkPeer(s, dest) }
func (s *Serial) Recv(data []float64, src, tag int) error  { return checkPeer(s, src) }

func (s *Serial) Isend(data []float64, dest, tag int) (*Request, error) {
	return nil, checkPeer(s, dest)
}

func (s *Serial) Irecv(data []float64, src, tag int) (*Request, error) {
	return nil, checkPeer(s, src)
}

func (s *Serial) Bcast(data []float64, root int) error {
	if root != 0 {
		return fmt.Errorf("broadcast root %d out of range: %w", root, ErrCommunicator)
	}
	return nil
}

func (s *Serial) Abort(code int) {
	panic(fmt.Sprintf("serial communicator aborted with code %d", code))
}
