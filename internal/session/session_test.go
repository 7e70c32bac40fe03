package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"splitlink/internal/broadcast"
	"splitlink/internal/livesplit"
	"splitlink/internal/session"
	"splitlink/internal/testsupport"
)

func newSession(t *testing.T, relay *broadcast.Server, port int) (*session.Session, func() []string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithTCPEndpoint("127.0.0.1", port))
	store := testsupport.MustOpenJournal(t, cfg)
	var connectorRelay livesplit.Relay
	var status session.RelayStatus
	if relay != nil {
		connectorRelay = relay
		status = relay
	}
	sess := session.New(session.Options{
		Connection: cfg.Connection,
		Connector:  livesplit.NewConnector(connectorRelay),
		Relay:      status,
		Journal:    store,
	})
	t.Cleanup(func() { _ = sess.Close() })

	outcomes := func() []string {
		entries, err := store.Recent(context.Background(), 0)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		out := make([]string, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].SessionID != sess.ID() {
				t.Fatalf("entry from foreign session: %#v", entries[i])
			}
			out = append(out, entries[i].Command+":"+entries[i].Outcome)
		}
		return out
	}
	return sess, outcomes
}

func TestSessionSocketRoundTrip(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	server.SetIndex(5)
	sess, outcomes := newSession(t, nil, server.Port())
	ctx := context.Background()

	status := sess.Connect(ctx)
	if status.Transport != "socket" || !status.Connected {
		t.Fatalf("unexpected status after connect: %#v", status)
	}
	if err := sess.Send(ctx, livesplit.CommandSplit); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	index, err := sess.SplitIndex(ctx)
	if err != nil || index != 5 {
		t.Fatalf("SplitIndex = %d, %v", index, err)
	}

	status = sess.Status(ctx)
	if status.LastIndex == nil || *status.LastIndex != 5 {
		t.Fatalf("expected last index 5, got %#v", status.LastIndex)
	}
	if !status.Journal {
		t.Fatal("expected journal to be reported")
	}

	want := []string{"connect:ok", "split:ok", "index:ok"}
	got := outcomes()
	if len(got) != len(want) {
		t.Fatalf("journal = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("journal = %q, want %q", got, want)
		}
	}
}

func TestSessionTimeoutKeepsHandle(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	server.SetSilent(true)
	sess, outcomes := newSession(t, nil, server.Port())
	ctx := context.Background()
	sess.Connect(ctx)

	if _, err := sess.SplitIndex(ctx); !errors.Is(err, livesplit.ErrTimeout) {
		t.Fatalf("SplitIndex = %v, want ErrTimeout", err)
	}
	if err := sess.Send(ctx, livesplit.CommandReset); err != nil {
		t.Fatalf("Send after timeout failed: %v", err)
	}
	got := outcomes()
	if got[len(got)-2] != "index:timeout" || got[len(got)-1] != "reset:ok" {
		t.Fatalf("journal = %q", got)
	}
}

func TestSessionDropsHandleOnConnectionLoss(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	sess, _ := newSession(t, nil, server.Port())
	ctx := context.Background()
	sess.Connect(ctx)
	if err := sess.Send(ctx, livesplit.CommandSplit); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	server.WaitForLines(1)
	server.DropConnections()

	var lost error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := sess.Send(ctx, livesplit.CommandSkip); err != nil {
			lost = err
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !errors.Is(lost, livesplit.ErrConnectionLost) {
		t.Fatalf("expected ErrConnectionLost, got %v", lost)
	}

	status := sess.Status(ctx)
	if status.Transport != "disconnected" || status.Connected {
		t.Fatalf("expected disconnected session, got %#v", status)
	}
	if err := sess.Send(ctx, livesplit.CommandSkip); !errors.Is(err, livesplit.ErrConnectionUnavailable) {
		t.Fatalf("Send after loss = %v, want ErrConnectionUnavailable", err)
	}

	status = sess.Connect(ctx)
	if status.Transport != "socket" || !status.Connected {
		t.Fatalf("reconnect failed: %#v", status)
	}
}

func TestSessionFallsBackToRelay(t *testing.T) {
	relay := broadcast.New(broadcast.Options{Addr: "127.0.0.1:0", WriteTimeout: time.Second})
	t.Cleanup(func() { _ = relay.Close() })
	sess, outcomes := newSession(t, relay, testsupport.UnusedTCPPort(t))
	ctx := context.Background()

	status := sess.Connect(ctx)
	if status.Transport != "broadcast" || !status.Connected {
		t.Fatalf("unexpected status: %#v", status)
	}
	<-relay.Ready()
	if err := relay.Err(); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+relay.Addr()+"/", nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for relay.Listeners() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := sess.Send(ctx, livesplit.CommandRestart); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	for _, want := range []string{`{"command": "reset"}`, `{"command": "splitOrStart"}`} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(data) != want {
			t.Fatalf("message = %q, want %q", data, want)
		}
	}

	if _, err := sess.SplitIndex(ctx); !errors.Is(err, livesplit.ErrUnsupported) {
		t.Fatalf("SplitIndex = %v, want ErrUnsupported", err)
	}
	status = sess.Status(ctx)
	if !status.RelayRunning || status.Listeners != 1 {
		t.Fatalf("unexpected relay status: %#v", status)
	}
	got := outcomes()
	if got[len(got)-1] != "index:unsupported" {
		t.Fatalf("journal = %q", got)
	}
}

func TestSessionDisconnectIsIdempotent(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	sess, _ := newSession(t, nil, server.Port())
	ctx := context.Background()
	sess.Connect(ctx)

	if err := sess.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if err := sess.Disconnect(ctx); err != nil {
		t.Fatalf("second Disconnect failed: %v", err)
	}
	if sess.IsConnected() {
		t.Fatal("session still connected")
	}
}

func TestHistoryWithoutJournal(t *testing.T) {
	sess := session.New(session.Options{})
	if _, err := sess.History(context.Background(), 5); !errors.Is(err, session.ErrJournalDisabled) {
		t.Fatalf("History = %v, want ErrJournalDisabled", err)
	}
	if err := sess.Send(context.Background(), livesplit.CommandSplit); !errors.Is(err, livesplit.ErrConnectionUnavailable) {
		t.Fatalf("Send before connect = %v", err)
	}
}

func TestDispatchReportsTransportUsed(t *testing.T) {
	server := testsupport.NewLiveSplitServer(t)
	server.SetIndex(3)
	sess, _ := newSession(t, nil, server.Port())
	ctx := context.Background()
	sess.Connect(ctx)

	sent := sess.Dispatch(ctx, livesplit.CommandSplit)
	if sent.Err != nil || sent.Transport != livesplit.KindSocket || sent.Command != livesplit.CommandSplit {
		t.Fatalf("unexpected split dispatch: %#v", sent)
	}
	queried := sess.Dispatch(ctx, livesplit.CommandQueryIndex)
	if queried.Err != nil || queried.Index != 3 || queried.Transport != livesplit.KindSocket {
		t.Fatalf("unexpected index dispatch: %#v", queried)
	}

	server.WaitForLines(2)
	server.DropConnections()

	var lost session.Dispatch
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		lost = sess.Dispatch(ctx, livesplit.CommandSkip)
		if lost.Err != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !errors.Is(lost.Err, livesplit.ErrConnectionLost) || lost.Transport != livesplit.KindSocket {
		t.Fatalf("lost dispatch should name the socket it failed on: %#v", lost)
	}

	after := sess.Dispatch(ctx, livesplit.CommandSkip)
	if after.Transport != livesplit.KindDisconnected || !errors.Is(after.Err, livesplit.ErrConnectionUnavailable) {
		t.Fatalf("unexpected dispatch after loss: %#v", after)
	}
}
