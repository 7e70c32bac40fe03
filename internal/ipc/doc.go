// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Command
// outcomes travel as data (Outcome plus Error) rather than RPC errors so the
// CLI can tell a timeout from a lost connection without parsing messages.
package ipc
