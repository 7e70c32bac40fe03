package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeConnection(); err != nil {
		return err
	}
	c.normalizeBroadcast()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConnection() error {
	if value, ok := os.LookupEnv("SPLITLINK_TCP_HOST"); ok && strings.TrimSpace(value) != "" {
		c.Connection.TCPHost = value
	}
	if value, ok := os.LookupEnv("SPLITLINK_TCP_PORT"); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("SPLITLINK_TCP_PORT: %w", err)
		}
		c.Connection.TCPPort = port
	}
	c.Connection.PipeHost = strings.TrimSpace(c.Connection.PipeHost)
	if c.Connection.PipeHost == "" {
		c.Connection.PipeHost = defaultPipeHost
	}
	c.Connection.TCPHost = strings.TrimSpace(c.Connection.TCPHost)
	if c.Connection.TCPHost == "" {
		c.Connection.TCPHost = defaultTCPHost
	}
	if c.Connection.DialTimeoutSeconds <= 0 {
		c.Connection.DialTimeoutSeconds = defaultDialTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeBroadcast() {
	c.Broadcast.Bind = strings.TrimSpace(c.Broadcast.Bind)
	if c.Broadcast.Bind == "" {
		c.Broadcast.Bind = defaultBroadcastBind
	}
	if c.Broadcast.WriteTimeoutSeconds <= 0 {
		c.Broadcast.WriteTimeoutSeconds = defaultBroadcastWriteSecs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
