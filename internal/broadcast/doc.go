// Package broadcast runs the websocket relay used when LiveSplit's TCP server
// cannot be reached.
//
// Anything that connects to the relay (typically LiveSplit's own websocket
// client, or an overlay) becomes a listener and receives every command the
// relay broadcasts, in the order Broadcast was called. A file lock keeps one
// relay per state directory so two processes never fight over the port.
package broadcast
