package broadcast

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Listener is one attached websocket peer.
type Listener struct {
	ID       string
	Remote   string
	Attached time.Time

	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (l *Listener) send(message string, timeout time.Duration) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if timeout > 0 {
		if err := l.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return l.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

func (l *Listener) close() error {
	return l.conn.Close()
}

// Registry tracks attached listeners. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	listeners map[string]*Listener
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[string]*Listener)}
}

// Add registers conn and returns its listener.
func (r *Registry) Add(conn *websocket.Conn) *Listener {
	listener := &Listener{
		ID:       uuid.NewString(),
		Remote:   conn.RemoteAddr().String(),
		Attached: time.Now().UTC(),
		conn:     conn,
	}
	r.mu.Lock()
	r.listeners[listener.ID] = listener
	r.mu.Unlock()
	return listener
}

// Remove drops the listener with id. It reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listeners[id]; !ok {
		return false
	}
	delete(r.listeners, id)
	return true
}

// Snapshot returns the current listeners, oldest first.
func (r *Registry) Snapshot() []*Listener {
	r.mu.RLock()
	out := make([]*Listener, 0, len(r.listeners))
	for _, listener := range r.listeners {
		out = append(out, listener)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attached.Equal(out[j].Attached) {
			return out[i].ID < out[j].ID
		}
		return out[i].Attached.Before(out[j].Attached)
	})
	return out
}

// Len returns the number of attached listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

func (r *Registry) closeAll() {
	for _, listener := range r.Snapshot() {
		_ = listener.close()
		r.Remove(listener.ID)
	}
}

// Result summarizes one broadcast.
type Result struct {
	Attempted int
	Failed    []string
}

// Broadcast writes message once to every listener registered when it starts.
// Failed writes are reported in the result only. The listener stays
// registered until its own read loop sees the link close.
func Broadcast(r *Registry, message string, timeout time.Duration) Result {
	listeners := r.Snapshot()
	result := Result{Attempted: len(listeners)}
	for _, listener := range listeners {
		if err := listener.send(message, timeout); err != nil {
			result.Failed = append(result.Failed, listener.ID)
		}
	}
	return result
}
