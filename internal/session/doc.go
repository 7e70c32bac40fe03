// Package session owns the LiveSplit handle for a running splitlink process.
//
// A Session serializes every operation on its handle, journals each dispatch,
// and drops the handle when the transport reports a lost connection. It never
// reconnects on its own; callers decide when to call Connect again.
package session
