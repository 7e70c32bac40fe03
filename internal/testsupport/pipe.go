package testsupport

import (
	"errors"
	"io"
	"sync"
)

// FakePipe is an in-memory stand-in for LiveSplit's named pipe. Writes are
// recorded; a getsplitindex write queues Reply for the next Read.
type FakePipe struct {
	mu        sync.Mutex
	written   []string
	pending   []byte
	closed    bool
	reply     string
	peekErr   error
	writeErr  error
	peekCalls int
}

// NewFakePipe returns a pipe that answers queries with reply. An empty reply
// leaves queries unanswered.
func NewFakePipe(reply string) *FakePipe {
	return &FakePipe{reply: reply}
}

// FailPeek makes Available return err.
func (p *FakePipe) FailPeek(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peekErr = err
}

// FailWrite makes Write return err.
func (p *FakePipe) FailWrite(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// Inject queues data for Read as if LiveSplit had written it unprompted,
// such as a reply to a query that already timed out.
func (p *FakePipe) Inject(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, data...)
}

// Written returns every write in order.
func (p *FakePipe) Written() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.written...)
}

// PeekCalls reports how often Available was polled.
func (p *FakePipe) PeekCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peekCalls
}

// Closed reports whether Close was called.
func (p *FakePipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakePipe) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, string(buf))
	if string(buf) == "getsplitindex\r\n" && p.reply != "" {
		p.pending = append(p.pending, p.reply...)
	}
	return len(buf), nil
}

func (p *FakePipe) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.pending) == 0 {
		return 0, errors.New("fake pipe: read with nothing available")
	}
	n := copy(buf, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Available reports the queued reply size.
func (p *FakePipe) Available() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peekCalls++
	if p.peekErr != nil {
		return 0, p.peekErr
	}
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return len(p.pending), nil
}

func (p *FakePipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
