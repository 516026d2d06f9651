package theater

import (
	"errors"
	"fmt"
)

// ErrPoison is the sentinel a scene returns to end its own gig cleanly
// and have its agent suspended and buried by its manager, bypassing the
// usual guard judgement entirely — the actor's own chosen death rather
// than a failure for its supervisor to judge.
var ErrPoison = errors.New("theater: poison")

// ErrAgentReset is the Stop reason given to every gig still pending on
// an agent's workload, agenda, or postponed queues when that agent
// resets (suspend, resume, or bury).
var ErrAgentReset = errors.New("theater: agent reset")

// ErrAgentDead is returned by operations attempted against an agent
// that has already been buried.
var ErrAgentDead = errors.New("theater: agent is dead")

// ErrGhost is the Stop reason given to a gig posted to an agent that is
// already dead (boundary scenario D).
var ErrGhost = errors.New("theater: posted to a dead agent")

// ErrStageOpen is returned by Surprise when the scheduler is already
// handling another interrupt; Surprise never nests.
var ErrStageOpen = errors.New("theater: stage is already open")

// ProtocolError reports a misuse of the theater state machine — a gig
// finished twice, a nested interrupt, a stage found occupied, a
// Surprise whose scene does not finish in one turn. It is never
// recovered locally.
type ProtocolError struct {
	Op  string
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("theater: protocol violation in %s: %s", e.Op, e.Msg)
}

// UnknownSelectorError is returned when a role has no scene registered
// for a given selector and does not implement Improviser.
type UnknownSelectorError struct {
	Selector string
}

func (e *UnknownSelectorError) Error() string {
	return fmt.Sprintf("theater: no scene registered for selector %q", e.Selector)
}
