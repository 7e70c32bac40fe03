package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"splitlink/internal/ipc"
	"splitlink/internal/testsupport"
)

func TestTimerCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, name := range []string{"split", "skip", "undo", "reset", "restart"} {
		out, _, err := runCLI(t, []string{name}, env.socketPath, env.configPath)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		requireContains(t, out, "Sent "+name+" via socket")
	}

	var sent []string
	waitFor(t, 2*time.Second, func() bool {
		sent = sent[:0]
		for _, line := range env.livesplit.Lines() {
			if line != "getsplitindex" {
				sent = append(sent, line)
			}
		}
		return len(sent) >= 6
	})
	want := "startorsplit,skipsplit,unsplit,reset,reset,starttimer"
	if got := strings.Join(sent, ","); got != want {
		t.Fatalf("LiveSplit received %q, want %q", got, want)
	}
}

func TestIndexCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.livesplit.SetIndex(9)

	out, _, err := runCLI(t, []string{"index"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if strings.TrimSpace(out) != "9" {
		t.Fatalf("unexpected index output %q", out)
	}

	env.livesplit.SetSilent(true)
	if _, _, err := runCLI(t, []string{"index"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected index to fail when LiveSplit is silent")
	} else {
		requireContains(t, err.Error(), "no reply")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "[OK] Socket")
	requireContains(t, out, "[OK] Responding")
	requireContains(t, out, "[INFO] Idle")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var resp ipc.StatusResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode status json: %v", err)
	}
	if resp.Transport != "socket" || !resp.Connected {
		t.Fatalf("unexpected status json: %#v", resp)
	}
}

func TestConnectDisconnectCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"disconnect"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	requireContains(t, out, "Disconnected")

	_, _, err = runCLI(t, []string{"split"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected split to fail while disconnected")
	}
	requireContains(t, err.Error(), "unavailable")

	out, _, err = runCLI(t, []string{"connect"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	requireContains(t, out, "Connected via socket (healthy: yes)")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"split"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("split: %v", err)
	}
	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Command")
	requireContains(t, out, "split")
	requireContains(t, out, "connect")
	requireContains(t, out, "Socket")

	out, _, err = runCLI(t, []string{"history", "--json", "-n", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var entries []ipc.HistoryEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history json: %v", err)
	}
	if len(entries) != 1 || entries[0].Command != "split" || entries[0].Outcome != "ok" {
		t.Fatalf("unexpected history: %#v", entries)
	}

	if _, _, err := runCLI(t, []string{"history", "-n", "-1"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected negative limit to fail")
	}
}

func TestBroadcastFallbackViaCLI(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithTCPEndpoint("127.0.0.1", testsupport.UnusedTCPPort(t)))

	out, _, err := runCLI(t, []string{"restart"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	requireContains(t, out, "Sent restart via broadcast")
	waitFor(t, 2*time.Second, func() bool {
		return env.daemon.Status(context.Background()).Session.RelayRunning
	})

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[WARN] Broadcast")
	requireContains(t, out, "Listening on 127.0.0.1:")

	if _, _, err := runCLI(t, []string{"index"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected index to fail in broadcast mode")
	}
}

func TestCommandsWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := testsupport.WriteConfig(t, cfg)
	socket := filepath.Join(testsupport.BaseDir(cfg), "missing.sock")

	_, _, err := runCLI(t, []string{"split"}, socket, configPath)
	if err == nil {
		t.Fatal("expected error without daemon")
	}
	requireContains(t, err.Error(), "splitlink serve")
}

func TestServeCommand(t *testing.T) {
	fake := testsupport.NewLiveSplitServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTCPEndpoint(fake.Host(), fake.Port()))
	configPath := testsupport.WriteConfig(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		cmd := newRootCommand()
		cmd.SetArgs([]string{"--config", configPath, "serve"})
		done <- cmd.ExecuteContext(ctx)
	}()

	waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(cfg.SocketPath())
		return err == nil
	})

	out, _, err := runCLI(t, []string{"split"}, "", configPath)
	if err != nil {
		t.Fatalf("split through served daemon: %v", err)
	}
	requireContains(t, out, "Sent split via socket")
	waitFor(t, 2*time.Second, func() bool {
		for _, line := range fake.Lines() {
			if line == "startorsplit" {
				return true
			}
		}
		return false
	})

	if _, err := os.Stat(filepath.Join(cfg.LogDir(), "splitlink.log")); err != nil {
		t.Fatalf("expected current log pointer: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
	if _, err := os.Stat(cfg.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed after shutdown, got %v", err)
	}
}
