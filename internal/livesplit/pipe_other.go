//go:build !windows

package livesplit

import "fmt"

// OpenPipe fails outside Windows; named pipes are a Windows transport.
func OpenPipe(host string) (Pipe, error) {
	return nil, fmt.Errorf("%w: named pipe %s requires windows", ErrUnsupported, PipePath(host))
}
