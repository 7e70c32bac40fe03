package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"splitlink/internal/config"
	"splitlink/internal/journal"
	"splitlink/internal/livesplit"
	"splitlink/internal/logging"
)

// ErrJournalDisabled is returned by History when no journal is attached.
var ErrJournalDisabled = errors.New("command journal disabled")

// Journal is the subset of journal.Store a session writes to.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) (int64, error)
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// RelayStatus reports on the broadcast relay.
type RelayStatus interface {
	Running() bool
	Listeners() int
}

// Options configures a Session.
type Options struct {
	Connection config.Connection
	Connector  *livesplit.Connector
	Relay      RelayStatus
	Journal    Journal
	Logger     *slog.Logger
}

// Status is a point-in-time view of the session.
type Status struct {
	SessionID    string
	Transport    string
	Connected    bool
	Cause        string
	ConnectedAt  time.Time
	RelayRunning bool
	Listeners    int
	LastError    string
	LastIndex    *int
	Journal      bool
}

// Session wraps one LiveSplit handle.
type Session struct {
	id        string
	cfg       config.Connection
	connector *livesplit.Connector
	relay     RelayStatus
	journal   Journal
	logger    *slog.Logger

	mu          sync.Mutex
	handle      *livesplit.Handle
	connectedAt time.Time
	lastErr     error
	lastIndex   *int
}

// New builds a disconnected session. Call Connect to establish a handle.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	connector := opts.Connector
	if connector == nil {
		connector = livesplit.NewConnector(nil, livesplit.WithLogger(logger))
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		cfg:       opts.Connection,
		connector: connector,
		relay:     opts.Relay,
		journal:   opts.Journal,
		logger:    logging.NewComponentLogger(logger, "session").With(logging.String(logging.FieldSessionID, id)),
		handle:    livesplit.Disconnected(nil),
	}
}

// ID returns the session identifier recorded in the journal.
func (s *Session) ID() string {
	return s.id
}

// Connect replaces the current handle with a fresh one. Establishment
// failures leave a disconnected handle; the returned status carries the cause.
func (s *Session) Connect(ctx context.Context) Status {
	s.mu.Lock()
	if err := s.handle.Disconnect(); err != nil {
		s.logger.Debug("closing previous handle failed", logging.Error(err))
	}
	handle := s.connector.Connect(ctx, s.cfg)
	s.handle = handle
	s.connectedAt = time.Now().UTC()
	s.lastErr = handle.Cause()
	s.mu.Unlock()

	s.record(ctx, "connect", handle.Kind(), handle.Cause(), nil, 0)
	return s.Status(ctx)
}

// Disconnect closes the current handle. It is a no-op when already
// disconnected.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	kind := s.handle.Kind()
	if kind == livesplit.KindDisconnected {
		s.mu.Unlock()
		return nil
	}
	err := s.handle.Disconnect()
	s.mu.Unlock()

	s.record(ctx, "disconnect", kind, err, nil, 0)
	return err
}

// IsConnected runs the handle's health check.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle.IsConnected()
}

// Dispatch is the outcome of one command sent through the session.
// Transport is the handle kind the command actually went out on.
type Dispatch struct {
	Command   livesplit.Command
	Transport livesplit.Kind
	Index     int
	Err       error
}

// Dispatch sends cmd, or queries the split index for
// livesplit.CommandQueryIndex. A lost connection drops the handle.
func (s *Session) Dispatch(ctx context.Context, cmd livesplit.Command) Dispatch {
	result := Dispatch{Command: cmd}

	s.mu.Lock()
	handle := s.handle
	result.Transport = handle.Kind()
	start := time.Now()
	if cmd == livesplit.CommandQueryIndex {
		result.Index, result.Err = handle.QueryIndex()
		if result.Err == nil {
			value := result.Index
			s.lastIndex = &value
		}
	} else {
		result.Err = handle.Send(cmd)
	}
	s.afterDispatchLocked(result.Err)
	s.mu.Unlock()

	var recorded *int
	if cmd == livesplit.CommandQueryIndex && result.Err == nil {
		value := result.Index
		recorded = &value
	}
	elapsed := time.Since(start)
	s.record(ctx, cmd.String(), result.Transport, result.Err, recorded, elapsed)
	if result.Err != nil {
		s.logDispatchFailure(cmd, result.Transport, result.Err, elapsed)
	}
	return result
}

// Send dispatches cmd and returns its error.
func (s *Session) Send(ctx context.Context, cmd livesplit.Command) error {
	return s.Dispatch(ctx, cmd).Err
}

// SplitIndex queries the current split index.
func (s *Session) SplitIndex(ctx context.Context) (int, error) {
	result := s.Dispatch(ctx, livesplit.CommandQueryIndex)
	return result.Index, result.Err
}

// Status reports the session state. It runs the handle's health check, which
// can take up to livesplit.QueryTimeout on pipe and socket transports.
func (s *Session) Status(ctx context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	probeErr := s.handle.Probe()
	if livesplit.Fatal(probeErr) {
		s.afterDispatchLocked(probeErr)
	}

	status := Status{
		SessionID:   s.id,
		Transport:   s.handle.Kind().String(),
		Connected:   probeErr == nil,
		ConnectedAt: s.connectedAt,
		Journal:     s.journal != nil,
	}
	if cause := s.handle.Cause(); cause != nil {
		status.Cause = cause.Error()
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.lastIndex != nil {
		value := *s.lastIndex
		status.LastIndex = &value
	}
	if s.relay != nil {
		status.RelayRunning = s.relay.Running()
		status.Listeners = s.relay.Listeners()
	}
	return status
}

// History returns recent journal entries, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Recent(ctx, limit)
}

// Close disconnects the handle.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle.Disconnect()
}

func (s *Session) afterDispatchLocked(err error) {
	s.lastErr = err
	if !livesplit.Fatal(err) {
		return
	}
	_ = s.handle.Disconnect()
	s.handle = livesplit.Disconnected(err)
}

func (s *Session) logDispatchFailure(cmd livesplit.Command, kind livesplit.Kind, err error, elapsed time.Duration) {
	attrs := []logging.Attr{
		logging.String(logging.FieldCommand, cmd.String()),
		logging.String(logging.FieldTransport, kind.String()),
		logging.Duration("elapsed", elapsed),
		logging.Error(err),
	}
	switch {
	case livesplit.Fatal(err):
		logging.WarnWithContext(s.logger, "LiveSplit connection lost", "connection_lost", append(attrs,
			logging.String(logging.FieldErrorHint, "run splitlink connect once LiveSplit is reachable"),
			logging.String(logging.FieldImpact, "commands fail until the session reconnects"),
		)...)
	case errors.Is(err, livesplit.ErrConnectionUnavailable):
		logging.WarnWithContext(s.logger, "command dropped, not connected", "command_dropped", append(attrs,
			logging.String(logging.FieldErrorHint, "run splitlink connect"),
			logging.String(logging.FieldImpact, "the command did not reach LiveSplit"),
		)...)
	default:
		s.logger.Info("command did not complete", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "command_incomplete"),
			logging.String("outcome", livesplit.Outcome(err)),
		)...)...)
	}
}

func (s *Session) record(ctx context.Context, command string, kind livesplit.Kind, err error, index *int, elapsed time.Duration) {
	if s.journal == nil {
		return
	}
	entry := journal.Entry{
		SessionID:  s.id,
		Command:    command,
		Transport:  kind.String(),
		Outcome:    livesplit.Outcome(err),
		SplitIndex: index,
		Duration:   elapsed,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if _, recErr := s.journal.Record(ctx, entry); recErr != nil {
		logging.WarnWithContext(s.logger, "journal write failed", "journal_write_failed",
			logging.String(logging.FieldCommand, command),
			logging.Error(recErr),
			logging.String(logging.FieldImpact, "history will miss this command"),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the state directory"),
		)
	}
}
