package syncer

import "time"

type State int

const (
	// StatePending: local changes are waiting out the debounce.
	StatePending State = iota
	StateSyncing
	StateSynced
	StateFailed
	// StateReceived: a remote document replaced local state.
	StateReceived
	StateSubscribeFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSyncing:
		return "syncing"
	case StateSynced:
		return "synced"
	case StateFailed:
		return "failed"
	case StateReceived:
		return "received"
	case StateSubscribeFailed:
		return "subscribe failed"
	default:
		return "unknown"
	}
}

// Status is one event on the engine's status channel. Key is empty for
// events that cover every written document.
type Status struct {
	State State
	Key   string
	Err   error
	At    time.Time
}
