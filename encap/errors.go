package encap

import "errors"

// Error kinds shared by every package of the engine, packages wrap these with their own context
var (
	ErrNotImplemented = errors.New("not implemented")
	ErrValue          = errors.New("value error")
	ErrLogic          = errors.New("logic error")
)
