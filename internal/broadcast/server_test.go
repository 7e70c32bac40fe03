package broadcast_test

import (
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"splitlink/internal/broadcast"
)

func startRelay(t *testing.T) *broadcast.Server {
	t.Helper()
	srv := broadcast.New(broadcast.Options{
		Addr:         "127.0.0.1:0",
		LockPath:     filepath.Join(t.TempDir(), "relay.lock"),
		WriteTimeout: time.Second,
	})
	srv.Start()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("relay never became ready")
	}
	if err := srv.Err(); err != nil {
		t.Fatalf("relay start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func dial(t *testing.T, srv *broadcast.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(data)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBroadcastReachesEveryListenerInOrder(t *testing.T) {
	srv := startRelay(t)
	connA := dial(t, srv)
	connB := dial(t, srv)
	waitFor(t, "two listeners", func() bool { return srv.Listeners() == 2 })

	if n := srv.Broadcast(`{"command": "reset"}`); n != 2 {
		t.Fatalf("attempted %d listeners, want 2", n)
	}
	srv.Broadcast(`{"command": "splitOrStart"}`)

	for _, conn := range []*websocket.Conn{connA, connB} {
		if got := readMessage(t, conn); got != `{"command": "reset"}` {
			t.Fatalf("first message = %q", got)
		}
		if got := readMessage(t, conn); got != `{"command": "splitOrStart"}` {
			t.Fatalf("second message = %q", got)
		}
	}
}

func TestBroadcastWithoutListeners(t *testing.T) {
	srv := startRelay(t)
	if n := srv.Broadcast(`{"command": "reset"}`); n != 0 {
		t.Fatalf("attempted %d listeners, want 0", n)
	}
}

func TestListenerRemovedWhenLinkCloses(t *testing.T) {
	srv := startRelay(t)
	conn := dial(t, srv)
	waitFor(t, "listener attach", func() bool { return srv.Listeners() == 1 })

	_ = conn.Close()
	waitFor(t, "listener removal", func() bool { return srv.Listeners() == 0 })

	if n := srv.Broadcast(`{"command": "reset"}`); n != 0 {
		t.Fatalf("broadcast after removal attempted %d listeners", n)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	srv := startRelay(t)
	addr := srv.Addr()
	srv.Start()
	srv.Start()
	if srv.Addr() != addr || !srv.Running() {
		t.Fatalf("relay changed after repeated Start: %s running=%v", srv.Addr(), srv.Running())
	}
}

func TestStartRetriesAfterFailedBind(t *testing.T) {
	holder, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("hold port: %v", err)
	}
	addr := holder.Addr().String()

	srv := broadcast.New(broadcast.Options{
		Addr:     addr,
		LockPath: filepath.Join(t.TempDir(), "relay.lock"),
	})
	t.Cleanup(func() { _ = srv.Close() })

	srv.Start()
	<-srv.Ready()
	if srv.Err() == nil || srv.Running() {
		t.Fatalf("expected bind failure while port is held: running=%v err=%v", srv.Running(), srv.Err())
	}

	if err := holder.Close(); err != nil {
		t.Fatalf("release port: %v", err)
	}
	srv.Start()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("second start never finished")
	}
	if err := srv.Err(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !srv.Running() || srv.Addr() != addr {
		t.Fatalf("relay not running on %s after retry: running=%v addr=%s", addr, srv.Running(), srv.Addr())
	}

	conn := dial(t, srv)
	waitFor(t, "listener attach", func() bool { return srv.Listeners() == 1 })
	srv.Broadcast(`{"command": "reset"}`)
	if got := readMessage(t, conn); got != `{"command": "reset"}` {
		t.Fatalf("message = %q", got)
	}
}

func TestSecondRelayIsBusy(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "relay.lock")
	first := broadcast.New(broadcast.Options{Addr: "127.0.0.1:0", LockPath: lockPath})
	if err := first.Listen(); err != nil {
		t.Fatalf("first listen: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	second := broadcast.New(broadcast.Options{Addr: "127.0.0.1:0", LockPath: lockPath})
	if err := second.Listen(); !errors.Is(err, broadcast.ErrRelayBusy) {
		t.Fatalf("second listen = %v, want ErrRelayBusy", err)
	}
	<-second.Ready()
	if !errors.Is(second.Err(), broadcast.ErrRelayBusy) {
		t.Fatalf("Err = %v", second.Err())
	}
}

func TestCloseDisconnectsListeners(t *testing.T) {
	srv := startRelay(t)
	conn := dial(t, srv)
	waitFor(t, "listener attach", func() bool { return srv.Listeners() == 1 })

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read error after relay close")
	}
	if srv.Running() {
		t.Fatal("relay still running after close")
	}
}
