package server

import (
	"errors"
	"fmt"
	"syscall"
)

// ListenError reports a failure to bind the listening socket.
type ListenError struct {
	Port int
	Err  error
}

func (e *ListenError) Error() string {
	switch {
	case errors.Is(e.Err, syscall.EADDRINUSE):
		return fmt.Sprintf("port %d is already in use", e.Port)
	case errors.Is(e.Err, syscall.EACCES):
		return fmt.Sprintf("permission denied to bind to port %d", e.Port)
	default:
		return fmt.Sprintf("listen on port %d: %v", e.Port, e.Err)
	}
}

func (e *ListenError) Unwrap() error { return e.Err }

func newListenError(port int, err error) error {
	return &ListenError{Port: port, Err: err}
}
