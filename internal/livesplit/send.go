package livesplit

import "fmt"

// Send delivers cmd over the handle's transport. Pipe and socket commands are
// written directly; broadcast commands are handed to the relay in order.
// Delivery is not confirmed. A write failure returns ErrConnectionLost.
func (h *Handle) Send(cmd Command) error {
	if h == nil {
		return ErrConnectionUnavailable
	}
	if cmd == CommandQueryIndex {
		return fmt.Errorf("%w: %s expects a reply, use QueryIndex", ErrUnsupported, cmd)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.kind == KindDisconnected {
		return h.unavailableLocked()
	}
	messages, err := Encode(h.kind, cmd)
	if err != nil {
		return err
	}
	for _, message := range messages {
		if h.kind == KindBroadcast {
			h.relay.Broadcast(message)
			continue
		}
		if err := h.writeLocked(message); err != nil {
			return err
		}
	}
	return nil
}

// Split starts the timer or splits.
func (h *Handle) Split() error { return h.Send(CommandSplit) }

// Reset resets the timer.
func (h *Handle) Reset() error { return h.Send(CommandReset) }

// Restart resets and immediately starts the timer again.
func (h *Handle) Restart() error { return h.Send(CommandRestart) }

// Skip skips the current split.
func (h *Handle) Skip() error { return h.Send(CommandSkip) }

// Undo reverts the last split.
func (h *Handle) Undo() error { return h.Send(CommandUndo) }
