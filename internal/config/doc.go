// Package config loads, normalizes, and validates splitlink configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SPLITLINK_TCP_HOST. The Config type centralizes the connection settings the
// LiveSplit transports read at connect time together with the daemon's state
// directory, relay bind address, journal, and logging knobs.
//
// The connection kind is passed through untouched: choosing what to do with an
// unknown kind belongs to the connector, not to validation.
package config
