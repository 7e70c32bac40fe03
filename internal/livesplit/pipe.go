package livesplit

import "fmt"

// PipeName is the named pipe LiveSplit's server component listens on.
const PipeName = "LiveSplit"

// PipeOpener opens the LiveSplit pipe on host.
type PipeOpener func(host string) (Pipe, error)

// PipePath returns the full pipe path for host. An empty host means the local
// machine.
func PipePath(host string) string {
	if host == "" {
		host = "."
	}
	return fmt.Sprintf(`\\%s\pipe\%s`, host, PipeName)
}
