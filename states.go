package robot

import (
	"errors"
)

// ErrAdvance is returned from a sub-state's Update to tell an enclosing
// Sequence to move on to the next sub-state. A Sequence whose last sub-state
// advances returns ErrAdvance itself, so sequences compose; at the top level
// an unhandled ErrAdvance reaches the runner like any other error.
var ErrAdvance = errors.New("advance to next state")

// StateFunc adapts a plain function to a BehaviorState:
//
//	spin := robot.NewStateFunc("spin", func(c robot.Controller) error {
//	    c.SetSpeed(0, 0.5)
//	    return nil
//	})
//
// The function runs once per dispatch with the bound controller.
type StateFunc struct {
	BaseState

	name string
	fn   func(c Controller) error
}

// NewStateFunc wraps fn as a BehaviorState with the given name.
func NewStateFunc(name string, fn func(c Controller) error) *StateFunc {
	if fn == nil {
		panic("robot: NewStateFunc requires a function")
	}
	return &StateFunc{name: name, fn: fn}
}

// StateName returns the name given at construction.
func (s *StateFunc) StateName() string {
	return s.name
}

func (s *StateFunc) Update() error {
	return s.fn(s.Controller())
}

// Sequence chains sub-states: the current sub-state handles every dispatch
// until its Update returns ErrAdvance, at which point it is deactivated and
// the next sub-state takes over. Deactivating the sequence rewinds it to the
// first sub-state, so a reactivated sequence starts fresh.
type Sequence struct {
	BaseState

	states []BehaviorState
	idx    int
	done   bool
}

// NewSequence builds a Sequence from the given sub-states.
func NewSequence(states ...BehaviorState) *Sequence {
	if len(states) == 0 {
		panic("robot: NewSequence requires at least one state")
	}
	return &Sequence{states: states}
}

// Activate binds the sequence and its current sub-state to the controller.
func (s *Sequence) Activate(c Controller) {
	s.BaseState.Activate(c)
	s.states[s.idx].Activate(c)
}

// Deactivate unbinds the current sub-state and rewinds to the first.
func (s *Sequence) Deactivate() {
	if !s.done {
		s.states[s.idx].Deactivate()
	}
	s.idx = 0
	s.done = false
	s.BaseState.Deactivate()
}

// Current returns the sub-state handling dispatches right now.
func (s *Sequence) Current() BehaviorState {
	return s.states[s.idx]
}

func (s *Sequence) Update() error {
	if s.done {
		return ErrAdvance
	}

	err := s.states[s.idx].Update()
	if !errors.Is(err, ErrAdvance) {
		return err
	}

	s.states[s.idx].Deactivate()
	if s.idx+1 >= len(s.states) {
		// Exhausted; let the enclosing sequence (or runner) decide.
		s.done = true
		return ErrAdvance
	}
	s.idx++
	s.states[s.idx].Activate(s.Controller())
	return nil
}
