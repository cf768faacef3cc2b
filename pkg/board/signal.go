package board

import (
	"fmt"
	"strings"
)

// Signal represents the progress status of a task.
type Signal string

const (
	SignalEmpty      Signal = "empty"
	SignalInProgress Signal = "inProgress"
	SignalDelegated  Signal = "delegated"
	SignalDone       Signal = "done"
	SignalCanceled   Signal = "canceled"
)

// Signals holds every signal value.
var Signals = [...]Signal{SignalEmpty, SignalInProgress, SignalDelegated, SignalDone, SignalCanceled}

// Next cycles a signal through empty → in progress → delegated → done → empty.
// Canceled is only reachable through a direct assignment and always cycles
// back to empty.
func (s Signal) Next() Signal {
	switch s {
	case SignalEmpty:
		return SignalInProgress
	case SignalInProgress:
		return SignalDelegated
	case SignalDelegated:
		return SignalDone
	default:
		return SignalEmpty
	}
}

// Valid reports whether s is a known signal.
func (s Signal) Valid() bool {
	for _, v := range Signals {
		if s == v {
			return true
		}
	}
	return false
}

// Icon returns a single-glyph marker for the signal.
func (s Signal) Icon() string {
	switch s {
	case SignalInProgress:
		return "◐"
	case SignalDelegated:
		return "↪"
	case SignalDone:
		return "✓"
	case SignalCanceled:
		return "✗"
	default:
		return "○"
	}
}

// Color returns the signal's display color as a hex string.
func (s Signal) Color() string {
	switch s {
	case SignalInProgress:
		return "#E5C07B"
	case SignalDelegated:
		return "#4285F4"
	case SignalDone:
		return "#25A065"
	case SignalCanceled:
		return "#E05252"
	default:
		return "#626262"
	}
}

// Label returns the human-readable name of the signal.
func (s Signal) Label() string {
	switch s {
	case SignalEmpty:
		return "Unmarked"
	case SignalInProgress:
		return "In progress"
	case SignalDelegated:
		return "Delegated"
	case SignalDone:
		return "Completed"
	case SignalCanceled:
		return "Canceled"
	}
	return string(s)
}

// ParseSignal parses a signal name. Matching is case-insensitive and
// accepts "in-progress" / "in_progress" for SignalInProgress.
func ParseSignal(s string) (Signal, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	for _, v := range Signals {
		if strings.ToLower(string(v)) == norm {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown signal %q", s)
}
