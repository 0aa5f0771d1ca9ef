package reserver

import "fmt"

type State int

const (
	StateReceived State = iota
	StateUploading
	StatePersisted
	StateExhausted
	StateFallingBack
	StateFallbackSent
	StateFallbackFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateUploading:
		return "uploading"
	case StatePersisted:
		return "persisted"
	case StateExhausted:
		return "exhausted"
	case StateFallingBack:
		return "falling_back"
	case StateFallbackSent:
		return "fallback_sent"
	case StateFallbackFailed:
		return "fallback_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == StatePersisted || s == StateFallbackSent || s == StateFallbackFailed
}

type event int

const (
	eventAttemptStarted event = iota
	eventUploaded
	eventAttemptsExhausted
	eventFault
	eventFallbackStarted
	eventFallbackDelivered
	eventFallbackFailed
)

func (e event) String() string {
	switch e {
	case eventAttemptStarted:
		return "attempt_started"
	case eventUploaded:
		return "uploaded"
	case eventAttemptsExhausted:
		return "attempts_exhausted"
	case eventFault:
		return "fault"
	case eventFallbackStarted:
		return "fallback_started"
	case eventFallbackDelivered:
		return "fallback_delivered"
	case eventFallbackFailed:
		return "fallback_failed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// transition is the only place a persist sequence changes state. A fault
// (panic or unexpected error) before a terminal upload state goes straight
// to the fallback.
func transition(from State, e event) (State, error) {
	switch {
	case e == eventAttemptStarted && (from == StateReceived || from == StateUploading):
		return StateUploading, nil
	case e == eventUploaded && from == StateUploading:
		return StatePersisted, nil
	case e == eventAttemptsExhausted && from == StateUploading:
		return StateExhausted, nil
	case e == eventFault && (from == StateReceived || from == StateUploading):
		return StateFallingBack, nil
	case e == eventFallbackStarted && from == StateExhausted:
		return StateFallingBack, nil
	case e == eventFallbackDelivered && from == StateFallingBack:
		return StateFallbackSent, nil
	case e == eventFallbackFailed && from == StateFallingBack:
		return StateFallbackFailed, nil
	}
	return from, fmt.Errorf("invalid transition from %s on %s", from, e)
}
