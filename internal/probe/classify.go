package probe

import (
	"errors"
	"net"
	"syscall"
)

// classifyTCPDialError maps a failed connect to a port state. A refused,
// reset or unroutable connect means a host answered with a negative; silence
// until the deadline means something dropped the packets.
func classifyTCPDialError(err error) State {
	switch {
	case isTimeout(err):
		return StateFiltered
	case isRefused(err),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return StateClosed
	default:
		return StateError
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
