package livesplit

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// Kind tags the transport behind a Handle.
type Kind int

const (
	KindDisconnected Kind = iota
	KindPipe
	KindSocket
	KindBroadcast
)

func (k Kind) String() string {
	switch k {
	case KindPipe:
		return "pipe"
	case KindSocket:
		return "socket"
	case KindBroadcast:
		return "broadcast"
	default:
		return "disconnected"
	}
}

// Pipe is a duplex byte-mode named pipe. Available reports how many bytes can
// be read without blocking.
type Pipe interface {
	io.ReadWriteCloser
	Available() (int, error)
}

// Relay fans broadcast-mode messages out to attached listeners.
type Relay interface {
	// Start brings the relay up in the background. It must not block and
	// must tolerate repeated calls.
	Start()
	// Broadcast attempts delivery to every attached listener and returns the
	// number of listeners it tried.
	Broadcast(message string) int
}

var errHandleClosed = fmt.Errorf("%w: handle disconnected", ErrConnectionUnavailable)

// Handle is one live connection to LiveSplit, tagged by Kind. Its methods are
// safe for concurrent use; I/O on a handle is serialized so a query's write
// and read are never interleaved with another command.
type Handle struct {
	mu    sync.Mutex
	kind  Kind
	pipe  Pipe
	conn  net.Conn
	relay Relay
	cause error
}

// NewPipeHandle wraps an opened named pipe.
func NewPipeHandle(p Pipe) *Handle {
	return &Handle{kind: KindPipe, pipe: p}
}

// NewSocketHandle wraps a connected TCP stream.
func NewSocketHandle(conn net.Conn) *Handle {
	return &Handle{kind: KindSocket, conn: conn}
}

// NewBroadcastHandle routes commands through relay.
func NewBroadcastHandle(relay Relay) *Handle {
	return &Handle{kind: KindBroadcast, relay: relay}
}

// Disconnected returns a handle that carries no transport. cause, when set,
// explains why and is wrapped so it still matches ErrConnectionUnavailable.
func Disconnected(cause error) *Handle {
	switch {
	case cause == nil:
		cause = ErrConnectionUnavailable
	case !errors.Is(cause, ErrConnectionUnavailable):
		cause = fmt.Errorf("%w: %w", ErrConnectionUnavailable, cause)
	}
	return &Handle{kind: KindDisconnected, cause: cause}
}

// Kind returns the transport tag.
func (h *Handle) Kind() Kind {
	if h == nil {
		return KindDisconnected
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kind
}

// Cause explains why a handle is disconnected. It is nil for live handles.
func (h *Handle) Cause() error {
	if h == nil {
		return ErrConnectionUnavailable
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.kind != KindDisconnected {
		return nil
	}
	return h.unavailableLocked()
}

// Disconnect closes the underlying pipe or socket and leaves the handle
// disconnected. The relay behind a broadcast handle is owned by the Connector
// and keeps running. Disconnecting twice is a no-op.
func (h *Handle) Disconnect() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeLocked(errHandleClosed)
}

func (h *Handle) closeLocked(cause error) error {
	var err error
	switch h.kind {
	case KindPipe:
		err = h.pipe.Close()
	case KindSocket:
		err = h.conn.Close()
	case KindDisconnected:
		return nil
	}
	h.kind = KindDisconnected
	h.pipe = nil
	h.conn = nil
	h.relay = nil
	h.cause = cause
	return err
}

func (h *Handle) unavailableLocked() error {
	if h.cause != nil {
		return h.cause
	}
	return ErrConnectionUnavailable
}

// writeLocked pushes one encoded message onto the pipe or socket. Writes carry no
// deadline: a stalled peer blocks the caller.
func (h *Handle) writeLocked(message string) error {
	var w io.Writer
	switch h.kind {
	case KindPipe:
		w = h.pipe
	case KindSocket:
		w = h.conn
	default:
		return fmt.Errorf("%w: write on %s handle", ErrUnsupported, h.kind)
	}
	if _, err := io.WriteString(w, message); err != nil {
		return connectionLost("write "+h.kind.String(), err)
	}
	return nil
}
