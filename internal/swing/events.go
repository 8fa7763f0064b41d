package swing

import "time"

// Event is the tagged union delivered on the detector's event stream:
// either a PhaseChanged or a SwingCompleted.
type Event interface {
	eventTime() time.Time
}

// PhaseChanged reports a phase transition, including implicit resets back
// to Idle.
type PhaseChanged struct {
	Time time.Time
	From Phase
	To   Phase
}

func (e PhaseChanged) eventTime() time.Time { return e.Time }

// SwingCompleted carries a finalized, immutable analytics record.
type SwingCompleted struct {
	Time      time.Time
	Analytics *Analytics
}

func (e SwingCompleted) eventTime() time.Time { return e.Time }
