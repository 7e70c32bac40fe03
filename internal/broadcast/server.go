package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/gorilla/websocket"

	"splitlink/internal/logging"
)

// ErrRelayBusy reports that another process holds the relay lock.
var ErrRelayBusy = errors.New("broadcast relay already running")

// Options configures a Server.
type Options struct {
	// Addr is the host:port the relay listens on.
	Addr string
	// LockPath, when set, is flocked while the relay listens.
	LockPath string
	// WriteTimeout bounds a single frame write to one listener.
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Server is the websocket relay.
type Server struct {
	opts     Options
	logger   *slog.Logger
	registry *Registry
	upgrader websocket.Upgrader

	mu       sync.Mutex
	ln       net.Listener
	httpSrv  *http.Server
	lock     *flock.Flock
	startErr error
	closed   bool
	starting bool
	// ready belongs to the current bind attempt and is closed when it ends.
	ready     chan struct{}
	readyDone bool
}

// New constructs a relay. Nothing listens until Start or Listen is called.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "broadcast"),
		registry: NewRegistry(),
		ready:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if opts.LockPath != "" {
		s.lock = flock.New(opts.LockPath)
	}
	return s
}

// Start brings the relay up on a background goroutine. It does nothing while
// the relay is listening or a bind attempt is in flight, so repeated calls are
// cheap. A failed attempt is logged and exposed through Err once Ready is
// closed; the next Start tries again.
func (s *Server) Start() {
	s.mu.Lock()
	if s.closed || s.ln != nil || s.starting {
		s.mu.Unlock()
		return
	}
	s.starting = true
	s.renewReadyLocked()
	s.mu.Unlock()

	go func() {
		if err := s.Listen(); err != nil {
			logging.ErrorWithContext(s.logger, "broadcast relay failed to start", "relay_start_failed",
				logging.String("addr", s.opts.Addr),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check broadcast.bind and whether another relay is running"),
				logging.String(logging.FieldImpact, "broadcast commands reach no listeners until the next connect"),
			)
			return
		}
		if err := s.Serve(); err != nil {
			logging.ErrorWithContext(s.logger, "broadcast relay stopped", "relay_serve_failed",
				logging.Error(err),
			)
		}
	}()
}

// renewReadyLocked starts a new attempt signal once the previous one ended.
func (s *Server) renewReadyLocked() {
	if s.readyDone {
		s.ready = make(chan struct{})
		s.readyDone = false
		s.startErr = nil
	}
}

// Listen acquires the relay lock and binds the listening socket.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}
	s.renewReadyLocked()
	err := s.listenLocked()
	s.startErr = err
	s.starting = false
	if !s.readyDone {
		close(s.ready)
		s.readyDone = true
	}
	return err
}

func (s *Server) listenLocked() error {
	if s.closed {
		return http.ErrServerClosed
	}

	if s.lock != nil {
		if err := os.MkdirAll(filepath.Dir(s.opts.LockPath), 0o755); err != nil {
			return fmt.Errorf("create lock dir: %w", err)
		}
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire relay lock: %w", err)
		}
		if !ok {
			return ErrRelayBusy
		}
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		if s.lock != nil {
			_ = s.lock.Unlock()
		}
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("broadcast relay listening",
		logging.String(logging.FieldEventType, "relay_listening"),
		logging.String("addr", ln.Addr().String()),
	)
	return nil
}

// Serve accepts listeners until Close. Listen must have succeeded first.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln, srv := s.ln, s.httpSrv
	s.mu.Unlock()
	if ln == nil {
		return errors.New("broadcast relay not listening")
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once the current bind attempt finished, successfully or
// not. After a failed attempt, Start begins a new one with a fresh channel.
func (s *Server) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Err returns the Listen failure, if any.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startErr
}

// Running reports whether the relay is accepting listeners.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln != nil && !s.closed
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.opts.Addr
}

// Listeners returns the number of attached listeners.
func (s *Server) Listeners() int {
	return s.registry.Len()
}

// Snapshot returns the attached listeners, oldest first.
func (s *Server) Snapshot() []*Listener {
	return s.registry.Snapshot()
}

// Broadcast sends message to every attached listener and returns how many it
// attempted. Delivery is not confirmed.
func (s *Server) Broadcast(message string) int {
	result := Broadcast(s.registry, message, s.opts.WriteTimeout)
	for _, id := range result.Failed {
		s.logger.Debug("listener write failed",
			logging.String(logging.FieldEventType, "relay_write_failed"),
			logging.String(logging.FieldListenerID, id),
		)
	}
	s.logger.Debug("relay broadcast",
		logging.String(logging.FieldEventType, "relay_broadcast"),
		logging.String("message", message),
		logging.Int("listeners", result.Attempted),
		logging.Int("failed", len(result.Failed)),
	)
	return result.Attempted
}

// ServeHTTP upgrades the request and keeps the listener registered until its
// link closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed",
			logging.String(logging.FieldEventType, "relay_upgrade_failed"),
			logging.Error(err),
		)
		return
	}

	listener := s.registry.Add(conn)
	s.logger.Info("listener attached",
		logging.String(logging.FieldEventType, "listener_attached"),
		logging.String(logging.FieldListenerID, listener.ID),
		logging.String("remote", listener.Remote),
	)
	defer func() {
		s.registry.Remove(listener.ID)
		_ = listener.close()
		s.logger.Info("listener detached",
			logging.String(logging.FieldEventType, "listener_detached"),
			logging.String(logging.FieldListenerID, listener.ID),
		)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.logger.Debug("listener message",
			logging.String(logging.FieldListenerID, listener.ID),
			logging.String("payload", string(data)),
		)
	}
}

// Close stops accepting, disconnects every listener and releases the lock.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.httpSrv
	s.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = srv.Shutdown(ctx)
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			err = srv.Close()
		}
	}
	s.registry.closeAll()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}
