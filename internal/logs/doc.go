// Package logs reads the daemon's run logs for the CLI.
//
// Last returns the trailing lines of a log file with bounded memory, and
// Follow polls the same file for appended lines until its context ends. The
// current run is reached through the splitlink.log pointer the daemon keeps
// in the log directory, so a pointer that swaps to a shorter file restarts
// the read from the top.
package logs
