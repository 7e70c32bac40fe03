// Package livesplit drives a LiveSplit timer over one of its three transports:
// a Windows named pipe, a TCP socket, or a local websocket relay that fans
// commands out to every attached listener.
//
// A Connector turns connection settings into a Handle. The Handle's Kind is
// the only thing callers branch on; every operation dispatches on it once and
// picks the matching wire encoding and I/O path. Connection problems never
// escape Connect: they yield a disconnected Handle whose Cause explains why.
// Mid-session failures are reported through the sentinel errors in errors.go
// so callers can tell a lost connection (reconnect) from a slow reply (retry
// later).
package livesplit
