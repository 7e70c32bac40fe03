package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "relay_started").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldSessionID identifies one logical LiveSplit session.
	FieldSessionID = "session_id"
	// FieldTransport is the transport tag (pipe, socket, broadcast, disconnected).
	FieldTransport = "transport"
	// FieldCommand is the logical command being dispatched.
	FieldCommand = "command"
	// FieldListenerID identifies a relay listener.
	FieldListenerID = "listener_id"
)
