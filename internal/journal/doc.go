// Package journal persists every command dispatched to LiveSplit in a small
// SQLite database so operators can see what was sent, over which transport,
// and how it went.
package journal
