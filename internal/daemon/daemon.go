package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"splitlink/internal/broadcast"
	"splitlink/internal/config"
	"splitlink/internal/journal"
	"splitlink/internal/livesplit"
	"splitlink/internal/logging"
	"splitlink/internal/session"
)

// Daemon owns the LiveSplit session and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	journal *journal.Store
	relay   *broadcast.Server
	session *session.Session
	logPath string

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Session      session.Status
	RelayAddr    string
	LockFilePath string
	JournalPath  string
	LogPath      string
	PID          int
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	connector []livesplit.Option
}

// WithConnectorOptions passes options through to the LiveSplit connector.
func WithConnectorOptions(opts ...livesplit.Option) Option {
	return func(o *options) {
		o.connector = append(o.connector, opts...)
	}
}

// New constructs a daemon. The journal is opened here when enabled; the lock,
// relay, and LiveSplit connection wait for Start.
func New(cfg *config.Config, logger *slog.Logger, logPath string, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		logPath:  logPath,
		lockPath: cfg.DaemonLockPath(),
		lock:     flock.New(cfg.DaemonLockPath()),
	}

	var sessionJournal session.Journal
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.JournalPath())
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		d.journal = store
		sessionJournal = store
	}

	d.relay = broadcast.New(broadcast.Options{
		Addr:         cfg.Broadcast.Bind,
		LockPath:     cfg.RelayLockPath(),
		WriteTimeout: cfg.Broadcast.WriteTimeout(),
		Logger:       logger,
	})
	connectorOpts := append([]livesplit.Option{livesplit.WithLogger(logger)}, o.connector...)
	d.session = session.New(session.Options{
		Connection: cfg.Connection,
		Connector:  livesplit.NewConnector(d.relay, connectorOpts...),
		Relay:      d.relay,
		Journal:    sessionJournal,
		Logger:     logger,
	})
	return d, nil
}

// Start acquires the daemon lock, prunes the journal, and connects to
// LiveSplit. A LiveSplit that cannot be reached does not fail Start; the
// session reports the degraded transport instead.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another splitlink daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(logging.WithSessionID(ctx, d.session.ID()))
	d.pruneJournal(d.ctx)
	status := d.session.Connect(d.ctx)

	d.running.Store(true)
	logging.WithContext(d.ctx, d.logger).Info("splitlink daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldTransport, status.Transport),
		logging.Bool("journal", d.journal != nil),
	)
	return nil
}

// Stop disconnects from LiveSplit, stops the relay, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.session.Close(); err != nil {
		d.logger.Debug("session close failed", logging.Error(err))
	}
	if err := d.relay.Close(); err != nil {
		logging.WarnWithContext(d.logger, "failed to stop broadcast relay", "relay_stop_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "relay port may stay bound until the process exits"),
		)
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next daemon start may report another instance"),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("splitlink daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status reports daemon and session state.
func (d *Daemon) Status(ctx context.Context) Status {
	return d.statusFrom(d.session.Status(ctx))
}

func (d *Daemon) statusFrom(sessionStatus session.Status) Status {
	status := Status{
		Running:      d.running.Load(),
		Session:      sessionStatus,
		RelayAddr:    d.relay.Addr(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		PID:          os.Getpid(),
	}
	if d.journal != nil {
		status.JournalPath = d.journal.Path()
	}
	return status
}

// Dispatch sends cmd through the session and reports the transport used.
func (d *Daemon) Dispatch(ctx context.Context, cmd livesplit.Command) session.Dispatch {
	return d.session.Dispatch(ctx, cmd)
}

// Send dispatches a logical command to LiveSplit.
func (d *Daemon) Send(ctx context.Context, cmd livesplit.Command) error {
	return d.session.Send(ctx, cmd)
}

// SplitIndex queries LiveSplit for the current split index.
func (d *Daemon) SplitIndex(ctx context.Context) (int, error) {
	return d.session.SplitIndex(ctx)
}

// Connect replaces the session's handle and reports the resulting status.
func (d *Daemon) Connect(ctx context.Context) Status {
	return d.statusFrom(d.session.Connect(ctx))
}

// Disconnect closes the session's handle.
func (d *Daemon) Disconnect(ctx context.Context) error {
	return d.session.Disconnect(ctx)
}

// History returns recent journal entries.
func (d *Daemon) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	return d.session.History(ctx, limit)
}

func (d *Daemon) pruneJournal(ctx context.Context) {
	if d.journal == nil || d.cfg.Journal.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -d.cfg.Journal.RetentionDays)
	logger := logging.WithContext(ctx, d.logger)
	removed, err := d.journal.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(logger, "journal prune failed", "journal_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old journal entries are kept"),
		)
		return
	}
	if removed > 0 {
		logger.Info("pruned journal",
			logging.String(logging.FieldEventType, "journal_pruned"),
			logging.Int64("removed", removed),
		)
	}
}
