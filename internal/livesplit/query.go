package livesplit

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// QueryTimeout bounds how long a query waits for LiveSplit's reply.
	QueryTimeout = 500 * time.Millisecond
	// maxReplyBytes caps a single reply read.
	maxReplyBytes = 1000
	// pipePollInterval is the pause between availability checks on a pipe.
	pipePollInterval = time.Millisecond
	// staleReadWindow bounds each read that clears a late reply off a socket.
	staleReadWindow = time.Millisecond
)

// QueryIndex asks LiveSplit for the current split index. It fails with
// ErrTimeout when no reply arrives within QueryTimeout, with ErrUnavailable
// when the reply is not an integer, with ErrConnectionLost when the transport
// breaks, and with ErrUnsupported on broadcast handles.
//
// A reply that arrives after its query timed out is discarded before the next
// query is written, so it is never read as the answer to that query.
func (h *Handle) QueryIndex() (int, error) {
	if h == nil {
		return 0, ErrConnectionUnavailable
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.kind {
	case KindSocket:
		return h.querySocketLocked()
	case KindPipe:
		return h.queryPipeLocked()
	case KindBroadcast:
		return 0, fmt.Errorf("%w: %s over %s", ErrUnsupported, CommandQueryIndex, h.kind)
	default:
		return 0, h.unavailableLocked()
	}
}

func (h *Handle) querySocketLocked() (int, error) {
	if err := h.discardStaleSocketLocked(); err != nil {
		return 0, err
	}
	if err := h.writeLocked(lineCommands[CommandQueryIndex]); err != nil {
		return 0, err
	}
	if err := h.conn.SetReadDeadline(time.Now().Add(QueryTimeout)); err != nil {
		return 0, connectionLost("set read deadline", err)
	}
	defer h.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, maxReplyBytes)
	n, err := h.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return 0, ErrTimeout
		}
		return 0, fmt.Errorf("%w: read socket: %w", ErrUnavailable, err)
	}
	return parseIndex(buf[:n])
}

func (h *Handle) queryPipeLocked() (int, error) {
	if err := h.discardStalePipeLocked(); err != nil {
		return 0, err
	}
	if err := h.writeLocked(lineCommands[CommandQueryIndex]); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(QueryTimeout)
	for {
		available, err := h.pipe.Available()
		if err != nil {
			return 0, connectionLost("peek pipe", err)
		}
		if available > 0 {
			break
		}
		if !time.Now().Before(deadline) {
			return 0, ErrTimeout
		}
		time.Sleep(pipePollInterval)
	}

	buf := make([]byte, maxReplyBytes)
	n, err := h.pipe.Read(buf)
	if err != nil {
		return 0, connectionLost("read pipe", err)
	}
	return parseIndex(buf[:n])
}

// discardStaleSocketLocked reads off anything already buffered on the socket.
// Read errors other than the short deadline are left for the query to report.
func (h *Handle) discardStaleSocketLocked() error {
	buf := make([]byte, maxReplyBytes)
	for {
		if err := h.conn.SetReadDeadline(time.Now().Add(staleReadWindow)); err != nil {
			return connectionLost("set read deadline", err)
		}
		if _, err := h.conn.Read(buf); err != nil {
			return nil
		}
	}
}

func (h *Handle) discardStalePipeLocked() error {
	buf := make([]byte, maxReplyBytes)
	for {
		available, err := h.pipe.Available()
		if err != nil {
			return connectionLost("peek pipe", err)
		}
		if available == 0 {
			return nil
		}
		if _, err := h.pipe.Read(buf); err != nil {
			return connectionLost("read pipe", err)
		}
	}
}

func parseIndex(reply []byte) (int, error) {
	text := strings.TrimSpace(string(reply))
	index, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed reply %q", ErrUnavailable, text)
	}
	return index, nil
}

// Probe checks liveness using the same query cycle as QueryIndex. Broadcast
// handles always pass without wire traffic, since the relay cannot see
// whether LiveSplit is listening.
func (h *Handle) Probe() error {
	switch h.Kind() {
	case KindDisconnected:
		return h.Cause()
	case KindBroadcast:
		return nil
	}
	_, err := h.QueryIndex()
	return err
}

// IsConnected reports whether Probe succeeds.
func (h *Handle) IsConnected() bool {
	return h.Probe() == nil
}
