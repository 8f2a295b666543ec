package forms

import "fmt"

// Phase is where a form action is in its lifecycle. Pages render it on the
// action's button, where the browser marks the button submitting while the
// request is in flight.
type Phase int

const (
	Idle Phase = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var transitions = map[Phase][]Phase{
	Idle:       {Validating},
	Validating: {Submitting, Failed},
	Submitting: {Succeeded, Failed},
	Succeeded:  {Validating},
	Failed:     {Validating},
}

// Action tracks the phase of one submit action. The zero value is Idle.
type Action struct {
	phase Phase
}

func (a *Action) Phase() Phase { return a.phase }

// Advance moves to the next phase, rejecting transitions the lifecycle
// Idle -> Validating -> Submitting -> Succeeded|Failed does not allow.
func (a *Action) Advance(to Phase) error {
	for _, next := range transitions[a.phase] {
		if next == to {
			a.phase = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s", a.phase, to)
}
