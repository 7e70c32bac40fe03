package livesplit_test

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"splitlink/internal/livesplit"
	"splitlink/internal/testsupport"
)

type fakeRelay struct {
	mu       sync.Mutex
	starts   int
	messages []string
}

func (r *fakeRelay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
}

func (r *fakeRelay) Broadcast(message string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return 1
}

func (r *fakeRelay) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, append([]string(nil), r.messages...)
}

func dialFake(t *testing.T, server *testsupport.LiveSplitServer) *livesplit.Handle {
	t.Helper()
	conn, err := net.Dial("tcp", net.JoinHostPort(server.Host(), itoa(server.Port())))
	if err != nil {
		t.Fatalf("dial fake server: %v", err)
	}
	handle := livesplit.NewSocketHandle(conn)
	t.Cleanup(func() { _ = handle.Disconnect() })
	return handle
}

func TestSocketSendWritesLineCommands(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	handle := dialFake(t, server)

	steps := []func() error{handle.Split, handle.Skip, handle.Undo, handle.Reset, handle.Restart}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	got := server.WaitForLines(6)
	want := []string{"startorsplit", "skipsplit", "unsplit", "reset", "reset", "starttimer"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q (all %q)", i, got[i], want[i], got)
		}
	}
}

func TestSendRejectsQueryIndex(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	handle := dialFake(t, server)
	if err := handle.Send(livesplit.CommandQueryIndex); !errors.Is(err, livesplit.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDisconnectedHandleSendsNothing(t *testing.T) {
	handle := livesplit.Disconnected(nil)
	for _, cmd := range livesplit.Commands() {
		if err := handle.Send(cmd); !errors.Is(err, livesplit.ErrConnectionUnavailable) {
			t.Fatalf("Send(%s) = %v, want ErrConnectionUnavailable", cmd, err)
		}
	}
	if _, err := handle.QueryIndex(); !errors.Is(err, livesplit.ErrConnectionUnavailable) {
		t.Fatalf("QueryIndex = %v, want ErrConnectionUnavailable", err)
	}
	if handle.IsConnected() {
		t.Fatal("disconnected handle reported connected")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	pipe := testsupport.NewFakePipe("")
	handle := livesplit.NewPipeHandle(pipe)

	if err := handle.Disconnect(); err != nil {
		t.Fatalf("first disconnect: %v", err)
	}
	if err := handle.Disconnect(); err != nil {
		t.Fatalf("second disconnect: %v", err)
	}
	if !pipe.Closed() {
		t.Fatal("pipe not closed")
	}
	if handle.Kind() != livesplit.KindDisconnected {
		t.Fatalf("kind = %s, want disconnected", handle.Kind())
	}
	if err := handle.Split(); !errors.Is(err, livesplit.ErrConnectionUnavailable) {
		t.Fatalf("send after disconnect = %v", err)
	}
	if len(pipe.Written()) != 0 {
		t.Fatalf("unexpected writes: %q", pipe.Written())
	}
	if err := livesplit.Disconnected(nil).Disconnect(); err != nil {
		t.Fatalf("disconnect on disconnected handle: %v", err)
	}
}

func TestZeroHandleIsNotConnected(t *testing.T) {
	var handle livesplit.Handle
	if handle.IsConnected() {
		t.Fatal("zero handle reported connected")
	}
}

func TestBroadcastRestartOrdering(t *testing.T) {
	relay := &fakeRelay{}
	handle := livesplit.NewBroadcastHandle(relay)

	if err := handle.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	_, messages := relay.snapshot()
	want := []string{`{"command": "reset"}`, `{"command": "splitOrStart"}`}
	if len(messages) != 2 || messages[0] != want[0] || messages[1] != want[1] {
		t.Fatalf("messages = %q, want %q", messages, want)
	}
}

func TestBroadcastAlwaysConnected(t *testing.T) {
	relay := &fakeRelay{}
	handle := livesplit.NewBroadcastHandle(relay)

	if !handle.IsConnected() {
		t.Fatal("broadcast handle should report connected")
	}
	if _, messages := relay.snapshot(); len(messages) != 0 {
		t.Fatalf("health check produced traffic: %q", messages)
	}
	if _, err := handle.QueryIndex(); !errors.Is(err, livesplit.ErrUnsupported) {
		t.Fatalf("QueryIndex = %v, want ErrUnsupported", err)
	}
	if err := handle.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if handle.IsConnected() {
		t.Fatal("disconnected broadcast handle should not report connected")
	}
}

func TestPipeWriteFailureIsConnectionLost(t *testing.T) {
	pipe := testsupport.NewFakePipe("")
	pipe.FailWrite(errors.New("broken pipe"))
	handle := livesplit.NewPipeHandle(pipe)

	if err := handle.Split(); !errors.Is(err, livesplit.ErrConnectionLost) {
		t.Fatalf("Split = %v, want ErrConnectionLost", err)
	}
}

func TestSocketWriteAfterPeerCloseIsConnectionLost(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	handle := dialFake(t, server)
	if err := handle.Split(); err != nil {
		t.Fatalf("split: %v", err)
	}
	server.WaitForLines(1)
	server.DropConnections()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		err := handle.Split()
		if errors.Is(err, livesplit.ErrConnectionLost) {
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("write never reported connection loss")
}
