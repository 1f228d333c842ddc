package console

// State represents the current state of a console connection
type State string

const (
	// StateConnecting represents credential fetch and dial in progress
	StateConnecting State = "connecting"

	// StateConnected represents an open transport streaming console output
	StateConnected State = "connected"

	// StateDisconnected represents a closed transport; a retry may be pending
	StateDisconnected State = "disconnected"

	// StateForbidden represents rejection by the server (close 4001/4003);
	// only a manual Reconnect leaves this state
	StateForbidden State = "forbidden"

	// StateTokenError represents a failed credential fetch; no transport was
	// ever dialed and no retry is scheduled
	StateTokenError State = "token_error"
)

// StateInfo carries user-facing metadata for a connection state
type StateInfo struct {
	Label       string
	Description string
	CanSend     bool
	Recoverable bool // true when the connection may recover without Reconnect
}

var stateInfos = map[State]StateInfo{
	StateConnecting: {
		Label:       "Connecting",
		Description: "Establishing console connection",
		Recoverable: true,
	},
	StateConnected: {
		Label:       "Connected",
		Description: "Console connected",
		CanSend:     true,
		Recoverable: true,
	},
	StateDisconnected: {
		Label:       "Disconnected",
		Description: "Console disconnected",
		Recoverable: true,
	},
	StateForbidden: {
		Label:       "Access denied",
		Description: "The server rejected this console session",
	},
	StateTokenError: {
		Label:       "Token error",
		Description: "Could not obtain a console token",
	},
}

// Info returns the user-facing metadata for the state
func (s State) Info() StateInfo {
	if info, ok := stateInfos[s]; ok {
		return info
	}
	return StateInfo{Label: string(s)}
}

func (s State) String() string {
	return string(s)
}
