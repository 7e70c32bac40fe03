package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"splitlink/internal/livesplit"
)

const defaultDialTimeout = 3 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTCPEndpoint verifies that the LiveSplit server accepts connections.
func CheckTCPEndpoint(ctx context.Context, host string, port int, timeout time.Duration) Result {
	const name = "LiveSplit TCP"
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", addr, summarizeDialError(err))}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", addr)}
}

// CheckPipe verifies that LiveSplit's named pipe can be opened on host.
func CheckPipe(host string) Result {
	const name = "LiveSplit pipe"
	pipe, err := livesplit.OpenPipe(host)
	if err != nil {
		if errors.Is(err, livesplit.ErrUnsupported) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (unsupported on this platform)", livesplit.PipePath(host))}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (%v)", livesplit.PipePath(host), err)}
	}
	_ = pipe.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (open ok)", livesplit.PipePath(host))}
}

// CheckRelayBind verifies that the broadcast relay could listen on addr.
func CheckRelayBind(addr string) Result {
	const name = "Broadcast relay"
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (in use; a running daemon may own it)", addr)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (%v)", addr, err)}
	}
	_ = ln.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (bindable)", addr)}
}

func summarizeDialError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connect timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connect timed out"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused"
	}
	return err.Error()
}
