package testsupport

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// LiveSplitServer mimics LiveSplit's TCP server component. It records every
// line it receives and answers getsplitindex with the configured index.
type LiveSplitServer struct {
	t  testing.TB
	ln net.Listener

	mu     sync.Mutex
	lines  []string
	index  int
	reply  string
	silent bool
	conns  map[net.Conn]struct{}

	wg sync.WaitGroup
}

// NewLiveSplitServer starts a fake server on an ephemeral loopback port and
// registers cleanup.
func NewLiveSplitServer(t testing.TB) *LiveSplitServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &LiveSplitServer{
		t:     t,
		ln:    ln,
		conns: make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Host returns the listening host.
func (s *LiveSplitServer) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *LiveSplitServer) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// SetIndex sets the split index reported to getsplitindex.
func (s *LiveSplitServer) SetIndex(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.reply = ""
}

// SetReply makes getsplitindex answer with raw text instead of an index.
func (s *LiveSplitServer) SetReply(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = raw
}

// SetSilent stops the server from answering queries.
func (s *LiveSplitServer) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

// Lines returns a copy of every line received so far, without terminators.
func (s *LiveSplitServer) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// WaitForLines blocks until at least n lines arrived and returns them.
func (s *LiveSplitServer) WaitForLines(n int) []string {
	s.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if lines := s.Lines(); len(lines) >= n {
			return lines
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.t.Fatalf("timed out waiting for %d lines, got %q", n, s.Lines())
	return nil
}

// DropConnections closes every accepted connection, simulating LiveSplit
// going away while the listener stays up.
func (s *LiveSplitServer) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// Close stops the server and waits for its goroutines.
func (s *LiveSplitServer) Close() {
	_ = s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
}

func (s *LiveSplitServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *LiveSplitServer) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.lines = append(s.lines, line)
		answer := ""
		if line == "getsplitindex" && !s.silent {
			answer = s.reply
			if answer == "" {
				answer = fmt.Sprintf("%d\r\n", s.index)
			}
		}
		s.mu.Unlock()

		if answer != "" {
			if _, err := conn.Write([]byte(answer)); err != nil {
				return
			}
		}
	}
}

// UnusedTCPPort returns a loopback port that was free a moment ago.
func UnusedTCPPort(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		t.Fatalf("close probe listener: %v", err)
	}
	return port
}
