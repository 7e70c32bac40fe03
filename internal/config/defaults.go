package config

const (
	defaultPipeHost            = "."
	defaultTCPHost             = "localhost"
	defaultTCPPort             = 16834
	defaultDialTimeoutSeconds  = 2
	defaultBroadcastBind       = "localhost:5678"
	defaultBroadcastWriteSecs  = 2
	defaultStateDir            = "~/.local/share/splitlink"
	defaultJournalEnabled      = true
	defaultJournalRetentionDay = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Connection: Connection{
			Kind:               ConnectionTCP,
			PipeHost:           defaultPipeHost,
			TCPHost:            defaultTCPHost,
			TCPPort:            defaultTCPPort,
			DialTimeoutSeconds: defaultDialTimeoutSeconds,
		},
		Broadcast: Broadcast{
			Bind:                defaultBroadcastBind,
			WriteTimeoutSeconds: defaultBroadcastWriteSecs,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Journal: Journal{
			Enabled:       defaultJournalEnabled,
			RetentionDays: defaultJournalRetentionDay,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
