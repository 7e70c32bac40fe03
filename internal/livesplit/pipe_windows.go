//go:build windows

package livesplit

import (
	"fmt"
	"io"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const pipeReadModeByte = 0x0

var procPeekNamedPipe = windows.NewLazySystemDLL("kernel32.dll").NewProc("PeekNamedPipe")

type windowsPipe struct {
	handle windows.Handle
	once   sync.Once
}

// OpenPipe opens LiveSplit's named pipe on host in byte read mode.
func OpenPipe(host string) (Pipe, error) {
	name, err := windows.UTF16PtrFromString(PipePath(host))
	if err != nil {
		return nil, fmt.Errorf("encode pipe path: %w", err)
	}
	handle, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", PipePath(host), err)
	}
	mode := uint32(pipeReadModeByte)
	if err := windows.SetNamedPipeHandleState(handle, &mode, nil, nil); err != nil {
		_ = windows.CloseHandle(handle)
		return nil, fmt.Errorf("set pipe mode: %w", err)
	}
	return &windowsPipe{handle: handle}, nil
}

func (p *windowsPipe) Read(buf []byte) (int, error) {
	var n uint32
	if err := windows.ReadFile(p.handle, buf, &n, nil); err != nil {
		if err == windows.ERROR_BROKEN_PIPE {
			return int(n), io.EOF
		}
		return int(n), err
	}
	return int(n), nil
}

func (p *windowsPipe) Write(buf []byte) (int, error) {
	var n uint32
	if err := windows.WriteFile(p.handle, buf, &n, nil); err != nil {
		return int(n), err
	}
	return int(n), nil
}

// Available peeks the pipe without consuming data.
func (p *windowsPipe) Available() (int, error) {
	var avail uint32
	r, _, err := procPeekNamedPipe.Call(
		uintptr(p.handle),
		0,
		0,
		0,
		uintptr(unsafe.Pointer(&avail)),
		0,
	)
	if r == 0 {
		return 0, fmt.Errorf("PeekNamedPipe: %w", err)
	}
	return int(avail), nil
}

func (p *windowsPipe) Close() error {
	var err error
	p.once.Do(func() {
		err = windows.CloseHandle(p.handle)
	})
	return err
}
