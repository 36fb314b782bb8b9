package dock

import "fmt"

// PipeState is the state of a pipe. The states and the operations allowed
// in each one follow the desktop integration library the device firmware
// was written against.
type PipeState int

const (
	StateUninitialized PipeState = iota
	StateInvalidConnection
	StateStartup
	StateListening
	StateConnectPending
	StateConnected
	StateBusy
	StateAborting
	StateDisconnectPending
	StateDisconnected

	// StateUserBase is the first state available to applications.
	StateUserBase PipeState = 100
)

var stateNames = map[PipeState]string{
	StateUninitialized:     "uninitialized",
	StateInvalidConnection: "invalid connection",
	StateStartup:           "startup",
	StateListening:         "listening",
	StateConnectPending:    "connect pending",
	StateConnected:         "connected",
	StateBusy:              "busy",
	StateAborting:          "aborting",
	StateDisconnectPending: "disconnect pending",
	StateDisconnected:      "disconnected",
}

// UserState returns the n-th application-defined state.
func UserState(n int) PipeState {
	return StateUserBase + PipeState(n)
}

func (s PipeState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	if s >= StateUserBase {
		return fmt.Sprintf("user state %d", int(s-StateUserBase))
	}
	return fmt.Sprintf("state %d", int(s))
}

// IsUser reports whether s is an application-defined state.
func (s PipeState) IsUser() bool {
	return s >= StateUserBase
}
