package output

import (
	"fmt"
	"strings"
)

// State is the logical state of the LED. There is no transitional state.
type State string

// LED states as they appear in the status view.
const (
	On  State = "ON"
	Off State = "OFF"
)

// IsOn reports whether s is On.
func (s State) IsOn() bool {
	return s == On
}

// Wire returns the lower-case form used in board commands ("on" or "off").
func (s State) Wire() string {
	return strings.ToLower(string(s))
}

// ParseState parses "on" or "off" in any case.
func ParseState(raw string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on":
		return On, nil
	case "off":
		return Off, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
}

// Command is a request to change the LED state.
type Command string

// Commands accepted on /led?state=.
const (
	CommandOn     Command = "on"
	CommandOff    Command = "off"
	CommandToggle Command = "toggle"
)

// ParseCommand parses the state query parameter. Matching is exact.
func ParseCommand(raw string) (Command, error) {
	switch c := Command(raw); c {
	case CommandOn, CommandOff, CommandToggle:
		return c, nil
	case "":
		return "", fmt.Errorf("%w: missing state", ErrInvalidCommand)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCommand, raw)
	}
}

// Next returns the state that results from applying c to current.
func (c Command) Next(current State) State {
	switch c {
	case CommandOn:
		return On
	case CommandOff:
		return Off
	default:
		if current.IsOn() {
			return Off
		}
		return On
	}
}
