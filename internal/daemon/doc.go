// Package daemon coordinates the long-running splitlink process.
//
// It wires configuration, the command journal, the websocket relay, and the
// LiveSplit session into a single lifecycle with flock-based locking to prevent
// multiple instances sharing a state directory. The IPC server drives the
// daemon; CLI commands never touch LiveSplit directly.
//
// Keep orchestration here: transport behavior lives in livesplit, fan-out in
// broadcast, and persistence in journal.
package daemon
