// Command splitlink drives LiveSplit from the command line.
//
// `splitlink serve` runs the daemon that holds the LiveSplit connection and,
// when LiveSplit's TCP server is unreachable, the websocket relay. The timer,
// status, connect and history subcommands talk to that daemon over its
// JSON-RPC socket. `check`, `logs` and `config` work without a daemon.
package main
