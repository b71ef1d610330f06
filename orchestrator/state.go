package orchestrator

// State is the lifecycle state of an Orchestrator.
//
//	Idle -> ConnectingBackends -> Ready <-> ProcessingQuery
//	Ready -> Disconnecting -> Closed
type State int

// Orchestrator states.
const (
	StateIdle State = iota
	StateConnectingBackends
	StateReady
	StateProcessingQuery
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnectingBackends:
		return "connecting_backends"
	case StateReady:
		return "ready"
	case StateProcessingQuery:
		return "processing_query"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
