package testsupport

import (
	"path/filepath"
	"testing"

	"splitlink/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp state directory per
// test. The relay binds an ephemeral loopback port so parallel tests never
// collide on the default address.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Broadcast.Bind = "127.0.0.1:0"
	cfgVal.Connection.TCPHost = "127.0.0.1"
	cfgVal.Connection.DialTimeoutSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTCPEndpoint points the config at a TCP LiveSplit server.
func WithTCPEndpoint(host string, port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Connection.Kind = config.ConnectionTCP
		b.cfg.Connection.TCPHost = host
		b.cfg.Connection.TCPPort = port
	}
}

// WithConnectionKind overrides the transport kind.
func WithConnectionKind(kind config.ConnectionKind) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Connection.Kind = kind
	}
}

// WithBroadcastBind overrides the relay bind address.
func WithBroadcastBind(bind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Broadcast.Bind = bind
	}
}

// WithJournal toggles the command journal.
func WithJournal(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
