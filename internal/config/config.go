package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConnectionKind selects the LiveSplit transport. The numeric values are the
// ones LiveSplit users already write in their configs (0 pipe, 1 tcp).
type ConnectionKind int

const (
	ConnectionPipe ConnectionKind = 0
	ConnectionTCP  ConnectionKind = 1
)

func (k ConnectionKind) String() string {
	switch k {
	case ConnectionPipe:
		return "pipe"
	case ConnectionTCP:
		return "tcp"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Connection describes how to reach the LiveSplit server.
type Connection struct {
	Kind               ConnectionKind `toml:"kind"`
	PipeHost           string         `toml:"pipe_host"`
	TCPHost            string         `toml:"tcp_host"`
	TCPPort            int            `toml:"tcp_port"`
	DialTimeoutSeconds int            `toml:"dial_timeout_seconds"`
}

// DialTimeout returns the TCP connect timeout.
func (c Connection) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// Broadcast configures the websocket relay used when TCP is unreachable.
type Broadcast struct {
	Bind                string `toml:"bind"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// WriteTimeout bounds a single frame write to one listener.
func (b Broadcast) WriteTimeout() time.Duration {
	return time.Duration(b.WriteTimeoutSeconds) * time.Second
}

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Journal controls the command journal.
type Journal struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for splitlink.
//
// Configuration sections by subsystem:
//   - Connection: transport kind and LiveSplit endpoints
//   - Broadcast: websocket relay bind address
//   - Paths: state directory (socket, locks, journal, logs)
//   - Journal: command journal toggle and retention
//   - Logging: log format, level, and run-log retention
type Config struct {
	Connection Connection `toml:"connection"`
	Broadcast  Broadcast  `toml:"broadcast"`
	Paths      Paths      `toml:"paths"`
	Journal    Journal    `toml:"journal"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/splitlink/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("splitlink.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir is where the daemon writes its log files.
func (c *Config) LogDir() string {
	return filepath.Join(c.Paths.StateDir, "logs")
}

// SocketPath is the daemon's JSON-RPC socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "splitlink.sock")
}

// DaemonLockPath guards against two daemons sharing a state directory.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.StateDir, "splitlinkd.lock")
}

// RelayLockPath guards the websocket relay port across processes.
func (c *Config) RelayLockPath() string {
	return filepath.Join(c.Paths.StateDir, "relay.lock")
}

// JournalPath is the sqlite command journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

const sampleHeader = `# splitlink configuration
#
# connection.kind selects the LiveSplit transport: 0 = named pipe, 1 = TCP.
# When TCP is unreachable splitlink starts a websocket relay on broadcast.bind
# and forwards commands to every attached listener instead.

`

// Sample renders the default configuration as TOML.
func Sample() (string, error) {
	data, err := toml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("render sample config: %w", err)
	}
	return sampleHeader + string(data), nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample, err := Sample()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
