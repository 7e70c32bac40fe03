package preflight

import (
	"context"

	"splitlink/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.LogDir()),
	}

	switch cfg.Connection.Kind {
	case config.ConnectionPipe:
		results = append(results, CheckPipe(cfg.Connection.PipeHost))
	case config.ConnectionTCP:
		results = append(results, CheckTCPEndpoint(ctx, cfg.Connection.TCPHost, cfg.Connection.TCPPort, cfg.Connection.DialTimeout()))
		// The relay only matters when TCP can fail over to it.
		results = append(results, CheckRelayBind(cfg.Broadcast.Bind))
	default:
		results = append(results, Result{Name: "LiveSplit", Detail: "unknown connection kind " + cfg.Connection.Kind.String()})
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
