package livesplit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is a logical timer command, independent of its wire encoding.
type Command int

const (
	CommandSplit Command = iota + 1
	CommandReset
	CommandRestart
	CommandSkip
	CommandUndo
	CommandQueryIndex
)

var commandNames = map[Command]string{
	CommandSplit:      "split",
	CommandReset:      "reset",
	CommandRestart:    "restart",
	CommandSkip:       "skip",
	CommandUndo:       "undo",
	CommandQueryIndex: "index",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand maps a command name (as printed by String) back to a Command.
func ParseCommand(name string) (Command, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for cmd, candidate := range commandNames {
		if candidate == needle {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// Commands lists the commands that can be sent without expecting a reply.
func Commands() []Command {
	return []Command{CommandSplit, CommandReset, CommandRestart, CommandSkip, CommandUndo}
}

// Pipe and socket share LiveSplit's line protocol. Restart is a single write.
var lineCommands = map[Command]string{
	CommandSplit:      "startorsplit\r\n",
	CommandReset:      "reset\r\n",
	CommandRestart:    "reset\r\nstarttimer\r\n",
	CommandSkip:       "skipsplit\r\n",
	CommandUndo:       "unsplit\r\n",
	CommandQueryIndex: "getsplitindex\r\n",
}

// The relay speaks the LiveSplit websocket command names. Restart is two
// separate messages and must be delivered in this order.
var relayCommands = map[Command][]string{
	CommandSplit:   {"splitOrStart"},
	CommandReset:   {"reset"},
	CommandRestart: {"reset", "splitOrStart"},
	CommandSkip:    {"skipSplit"},
	CommandUndo:    {"undoSplit"},
}

// Encode returns the ordered wire messages that carry cmd over a transport of
// the given kind. Pipe and socket commands are always a single message.
func Encode(kind Kind, cmd Command) ([]string, error) {
	if _, ok := commandNames[cmd]; !ok {
		return nil, fmt.Errorf("encode: unknown command %d", int(cmd))
	}
	switch kind {
	case KindPipe, KindSocket:
		return []string{lineCommands[cmd]}, nil
	case KindBroadcast:
		names, ok := relayCommands[cmd]
		if !ok {
			return nil, fmt.Errorf("%w: %s over %s", ErrUnsupported, cmd, kind)
		}
		messages := make([]string, 0, len(names))
		for _, name := range names {
			messages = append(messages, relayEnvelope(name))
		}
		return messages, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrConnectionUnavailable, cmd)
	}
}

// relayEnvelope renders {"command": "<name>"} exactly as LiveSplit's
// websocket listeners expect it.
func relayEnvelope(name string) string {
	quoted, _ := json.Marshal(name)
	return `{"command": ` + string(quoted) + `}`
}
