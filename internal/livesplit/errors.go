package livesplit

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionUnavailable reports a handle that never connected or has
	// been disconnected.
	ErrConnectionUnavailable = errors.New("livesplit connection unavailable")
	// ErrConnectionLost reports an established connection that failed mid-use.
	// The handle is unusable afterwards; the caller must reconnect.
	ErrConnectionLost = errors.New("livesplit connection lost")
	// ErrUnsupported reports an operation the handle's transport cannot carry.
	ErrUnsupported = errors.New("operation not supported by transport")
	// ErrUnavailable reports that no split index could be read. It covers
	// malformed replies as well as ErrTimeout.
	ErrUnavailable = errors.New("split index unavailable")
	// ErrTimeout reports a query that got no reply before its deadline.
	ErrTimeout = fmt.Errorf("%w: no reply within %s", ErrUnavailable, QueryTimeout)
)

// Outcome classifies err into a short stable label for logs and the journal.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrConnectionLost):
		return "connection_lost"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrConnectionUnavailable):
		return "connection_unavailable"
	default:
		return "error"
	}
}

// Fatal reports whether err means the handle must be replaced.
func Fatal(err error) bool {
	return errors.Is(err, ErrConnectionLost)
}

func connectionLost(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConnectionLost, op, err)
}
