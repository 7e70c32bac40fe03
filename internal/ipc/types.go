package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and session status.
type StatusResponse struct {
	Running      bool      `json:"running"`
	SessionID    string    `json:"session_id"`
	Transport    string    `json:"transport"`
	Connected    bool      `json:"connected"`
	Cause        string    `json:"cause"`
	ConnectedAt  time.Time `json:"connected_at"`
	RelayAddr    string    `json:"relay_addr"`
	RelayRunning bool      `json:"relay_running"`
	Listeners    int       `json:"listeners"`
	LastError    string    `json:"last_error"`
	LastIndex    *int      `json:"last_index"`
	LockPath     string    `json:"lock_path"`
	JournalPath  string    `json:"journal_path"`
	LogPath      string    `json:"log_path"`
	PID          int       `json:"pid"`
}

// SendRequest dispatches a logical command by name.
type SendRequest struct {
	Command string `json:"command"`
}

// SendResponse reports how the dispatch went.
type SendResponse struct {
	Command   string `json:"command"`
	Transport string `json:"transport"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error"`
}

// SplitIndexRequest queries the current split index.
type SplitIndexRequest struct{}

// SplitIndexResponse carries the index when Outcome is "ok".
type SplitIndexResponse struct {
	Index     int    `json:"index"`
	Transport string `json:"transport"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error"`
}

// ConnectRequest replaces the daemon's LiveSplit handle.
type ConnectRequest struct{}

// ConnectResponse reports the new session status.
type ConnectResponse struct {
	Status StatusResponse `json:"status"`
}

// DisconnectRequest closes the daemon's LiveSplit handle.
type DisconnectRequest struct{}

// DisconnectResponse indicates the disconnect result.
type DisconnectResponse struct {
	Disconnected bool   `json:"disconnected"`
	Error        string `json:"error"`
}

// HistoryRequest lists journal entries, newest first.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEntry is the wire form of a journal entry.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Transport  string    `json:"transport"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error"`
	SplitIndex *int      `json:"split_index"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryResponse contains journal entries.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
