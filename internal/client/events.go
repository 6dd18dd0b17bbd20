package client

type EventKind string

const (
	// EventState signals a change of the session or playback state.
	EventState EventKind = "state"
	// EventTranscript signals that the transcript changed.
	EventTranscript EventKind = "transcript"
)

// State is a snapshot of the observable session state.
type State struct {
	Active   bool
	Muted    bool
	Speaking bool
	Queued   int
}

// Event is published to subscribers whenever the session state or the
// transcript changes.
type Event struct {
	Kind  EventKind
	State State
}
