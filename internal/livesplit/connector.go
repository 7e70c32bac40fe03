package livesplit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"splitlink/internal/config"
	"splitlink/internal/logging"
)

// DialFunc dials a TCP endpoint.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Connector turns a connection config into a Handle. It owns the broadcast
// relay, which outlives any individual handle.
type Connector struct {
	relay    Relay
	dial     DialFunc
	openPipe PipeOpener
	logger   *slog.Logger
}

// Option customizes a Connector.
type Option func(*Connector)

// WithDialer overrides the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *Connector) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WithPipeOpener overrides how named pipes are opened.
func WithPipeOpener(open PipeOpener) Option {
	return func(c *Connector) {
		if open != nil {
			c.openPipe = open
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConnector builds a Connector. relay may be nil, in which case a failed
// TCP connect yields a disconnected handle instead of falling back.
func NewConnector(relay Relay, opts ...Option) *Connector {
	dialer := &net.Dialer{}
	c := &Connector{
		relay:    relay,
		dial:     dialer.DialContext,
		openPipe: OpenPipe,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "connector")
	return c
}

// Connect establishes a handle for cfg. It never fails: every establishment
// error degrades to a disconnected handle whose Cause explains the failure.
// A TCP connect failure falls back to broadcast mode exactly once, starting
// the relay in the background.
func (c *Connector) Connect(ctx context.Context, cfg config.Connection) *Handle {
	switch cfg.Kind {
	case config.ConnectionPipe:
		return c.connectPipe(cfg)
	case config.ConnectionTCP:
		return c.connectTCP(ctx, cfg)
	default:
		cause := fmt.Errorf("unknown connection kind %s", cfg.Kind)
		logging.WarnWithContext(c.logger, "connection kind not recognized", "connect_unknown_kind",
			logging.String("kind", cfg.Kind.String()),
			logging.String(logging.FieldErrorHint, "set connection.kind to 0 (pipe) or 1 (tcp)"),
			logging.String(logging.FieldImpact, "commands will not reach LiveSplit"),
		)
		return Disconnected(cause)
	}
}

func (c *Connector) connectPipe(cfg config.Connection) *Handle {
	pipe, err := c.openPipe(cfg.PipeHost)
	if err != nil {
		logging.WarnWithContext(c.logger, "named pipe unavailable", "connect_pipe_failed",
			logging.String(logging.FieldTransport, KindPipe.String()),
			logging.String("path", PipePath(cfg.PipeHost)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "start LiveSplit and its server component"),
			logging.String(logging.FieldImpact, "commands will not reach LiveSplit"),
		)
		return Disconnected(err)
	}
	c.logger.Info("connected to LiveSplit",
		logging.String(logging.FieldEventType, "connect_pipe"),
		logging.String(logging.FieldTransport, KindPipe.String()),
		logging.String("path", PipePath(cfg.PipeHost)),
	)
	return NewPipeHandle(pipe)
}

func (c *Connector) connectTCP(ctx context.Context, cfg config.Connection) *Handle {
	address := net.JoinHostPort(cfg.TCPHost, strconv.Itoa(cfg.TCPPort))
	dialCtx := ctx
	if timeout := cfg.DialTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := c.dial(dialCtx, "tcp", address)
	if err == nil {
		c.logger.Info("connected to LiveSplit",
			logging.String(logging.FieldEventType, "connect_socket"),
			logging.String(logging.FieldTransport, KindSocket.String()),
			logging.String("address", address),
		)
		return NewSocketHandle(conn)
	}

	if c.relay == nil {
		logging.WarnWithContext(c.logger, "LiveSplit server unreachable", "connect_socket_failed",
			logging.String(logging.FieldTransport, KindSocket.String()),
			logging.String("address", address),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no relay configured, commands will not reach LiveSplit"),
		)
		return Disconnected(fmt.Errorf("dial %s: %w", address, err))
	}

	c.relay.Start()
	logging.WarnWithContext(c.logger, "LiveSplit server unreachable, relaying over websocket", "connect_fallback_broadcast",
		logging.Alert("degraded_transport"),
		logging.String(logging.FieldTransport, KindBroadcast.String()),
		logging.String("address", address),
		logging.Error(err),
		logging.String(logging.FieldImpact, "commands are broadcast without confirmation"),
	)
	return NewBroadcastHandle(c.relay)
}
