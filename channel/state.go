package channel

// State is the lifecycle state of a Channel.
type State int

const (
	// StateClosed means the channel has no connection and will not open one.
	StateClosed State = iota
	// StateOpening means a connection attempt is in flight.
	StateOpening
	// StateOpen means the connection is live and subscriptions are attached.
	StateOpen
	// StateReconnecting means a reconnect attempt is scheduled.
	StateReconnecting
	// StateFailed means reconnect attempts were exhausted.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// alive reports whether the channel may still deliver events.
func (s State) alive() bool {
	return s == StateOpening || s == StateOpen || s == StateReconnecting
}
