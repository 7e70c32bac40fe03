// Package logging assembles structured slog loggers and formatting helpers used
// across splitlink.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so transport and relay code can
// tag log lines with the session, transport, and command they concern. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
