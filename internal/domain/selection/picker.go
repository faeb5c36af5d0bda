package selection

import (
	"time"

	"stayquote/internal/domain/shared/daterange"
)

// Picker holds one session's state and reports completed ranges.
// It is not safe for concurrent use; a picker belongs to one interactive session.
type Picker struct {
	state       State
	constraints Constraints
	onComplete  func(daterange.DateRange)
}

// NewPicker starts a session. onComplete fires once per accepted check-out click.
func NewPicker(initial daterange.DateRange, c Constraints, onComplete func(daterange.DateRange)) *Picker {
	return &Picker{state: NewState(initial), constraints: c, onComplete: onComplete}
}

func (p *Picker) State() State { return p.state }

func (p *Picker) Click(date time.Time) Outcome {
	out := Select(p.state, date, p.constraints)
	p.state = out.State
	if out.Completed && p.onComplete != nil {
		p.onComplete(out.State.Range)
	}
	return out
}

// Reset clears the range and waits for a new check-in.
func (p *Picker) Reset() {
	p.state = State{Phase: AwaitingStart}
}
