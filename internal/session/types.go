package session

// State is the lifecycle state of a session.
type State string

const (
	StateIdle             State = "idle"
	StateTokenizing       State = "tokenizing"
	StateEmbedding        State = "embedding"
	StateSending          State = "sending"
	StateAwaitingResponse State = "awaiting_response"
	StateDecoding         State = "decoding"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// Snapshot is a read-only projection of the current session state. It is the
// only thing the core publishes outward; no presentation code is referenced.
type Snapshot struct {
	State   State
	Message string
}
