// Package preflight provides readiness checks for the paths and endpoints
// splitlink depends on.
//
// The CLI "splitlink check" command runs RunAll before a user starts the
// daemon. Checks never send timer commands; the LiveSplit probe only opens
// and closes a connection.
package preflight
