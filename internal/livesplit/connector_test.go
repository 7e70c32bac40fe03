package livesplit_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"splitlink/internal/config"
	"splitlink/internal/livesplit"
	"splitlink/internal/testsupport"
)

func TestConnectTCP(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTCPEndpoint(server.Host(), server.Port()))
	relay := &fakeRelay{}

	handle := livesplit.NewConnector(relay).Connect(context.Background(), cfg.Connection)
	t.Cleanup(func() { _ = handle.Disconnect() })

	if handle.Kind() != livesplit.KindSocket {
		t.Fatalf("kind = %s, want socket", handle.Kind())
	}
	if starts, _ := relay.snapshot(); starts != 0 {
		t.Fatalf("relay started %d times on successful connect", starts)
	}
	if err := handle.Split(); err != nil {
		t.Fatalf("split: %v", err)
	}
	if lines := server.WaitForLines(1); lines[0] != "startorsplit" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestConnectTCPFallsBackToBroadcast(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTCPEndpoint("127.0.0.1", testsupport.UnusedTCPPort(t)))
	relay := &fakeRelay{}

	handle := livesplit.NewConnector(relay).Connect(context.Background(), cfg.Connection)

	if handle.Kind() != livesplit.KindBroadcast {
		t.Fatalf("kind = %s, want broadcast", handle.Kind())
	}
	if starts, _ := relay.snapshot(); starts != 1 {
		t.Fatalf("relay started %d times, want 1", starts)
	}
	if !handle.IsConnected() {
		t.Fatal("broadcast handle should report connected")
	}
}

func TestConnectTCPWithoutRelay(t *testing.T) {
	dial := func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	cfg := testsupport.NewConfig(t)

	handle := livesplit.NewConnector(nil, livesplit.WithDialer(dial)).Connect(context.Background(), cfg.Connection)

	if handle.Kind() != livesplit.KindDisconnected {
		t.Fatalf("kind = %s, want disconnected", handle.Kind())
	}
	if !errors.Is(handle.Cause(), livesplit.ErrConnectionUnavailable) {
		t.Fatalf("cause = %v", handle.Cause())
	}
}

func TestConnectPipe(t *testing.T) {
	pipe := testsupport.NewFakePipe("0\r\n")
	var gotHost string
	opener := func(host string) (livesplit.Pipe, error) {
		gotHost = host
		return pipe, nil
	}
	cfg := testsupport.NewConfig(t, testsupport.WithConnectionKind(config.ConnectionPipe))
	relay := &fakeRelay{}

	handle := livesplit.NewConnector(relay, livesplit.WithPipeOpener(opener)).Connect(context.Background(), cfg.Connection)

	if handle.Kind() != livesplit.KindPipe {
		t.Fatalf("kind = %s, want pipe", handle.Kind())
	}
	if gotHost != "." {
		t.Fatalf("opened host %q, want .", gotHost)
	}
	if !handle.IsConnected() {
		t.Fatal("pipe handle should report connected")
	}
	if starts, _ := relay.snapshot(); starts != 0 {
		t.Fatal("pipe mode must not start the relay")
	}
}

func TestConnectPipeFailureDoesNotFallBack(t *testing.T) {
	opener := func(string) (livesplit.Pipe, error) {
		return nil, livesplit.ErrUnsupported
	}
	cfg := testsupport.NewConfig(t, testsupport.WithConnectionKind(config.ConnectionPipe))
	relay := &fakeRelay{}

	handle := livesplit.NewConnector(relay, livesplit.WithPipeOpener(opener)).Connect(context.Background(), cfg.Connection)

	if handle.Kind() != livesplit.KindDisconnected {
		t.Fatalf("kind = %s, want disconnected", handle.Kind())
	}
	cause := handle.Cause()
	if !errors.Is(cause, livesplit.ErrConnectionUnavailable) || !errors.Is(cause, livesplit.ErrUnsupported) {
		t.Fatalf("cause = %v", cause)
	}
	if starts, _ := relay.snapshot(); starts != 0 {
		t.Fatal("pipe failure must not start the relay")
	}
}

func TestConnectUnknownKind(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConnectionKind(config.ConnectionKind(7)))
	relay := &fakeRelay{}

	handle := livesplit.NewConnector(relay).Connect(context.Background(), cfg.Connection)

	if handle.Kind() != livesplit.KindDisconnected {
		t.Fatalf("kind = %s, want disconnected", handle.Kind())
	}
	if handle.IsConnected() {
		t.Fatal("unknown kind should not be connected")
	}
}

func TestPipePath(t *testing.T) {
	if got := livesplit.PipePath(""); got != `\\.\pipe\LiveSplit` {
		t.Fatalf("PipePath(\"\") = %q", got)
	}
	if got := livesplit.PipePath("box"); got != `\\box\pipe\LiveSplit` {
		t.Fatalf("PipePath(box) = %q", got)
	}
}
