package theater

// Incident describes a gig's unhandled scene error, as seen by the
// offending agent's manager.
type Incident struct {
	Offender   *Agent
	Blooper    error
	Selector   string
	Parameters any
}

// Guard judges an Incident and returns the Verdict its offender (and,
// for Punish/Escalate/Recast, the offender's own team) will suffer.
type Guard func(Incident) Verdict

// DefaultGuard escalates every incident: absent an explicit guard at
// Cast time, failures propagate up the supervision tree rather than
// being silently forgiven.
func DefaultGuard(Incident) Verdict { return Escalate() }

// Verdict is a closed set of supervision outcomes: Forgive, Punish,
// Escalate, or Recast.
type Verdict interface {
	verdict()
}

type forgiveVerdict struct{}

func (forgiveVerdict) verdict() {}

// Forgive lets the offending agent continue unharmed; only the failing
// gig itself finishes as a blooper.
func Forgive() Verdict { return forgiveVerdict{} }

type punishVerdict struct{}

func (punishVerdict) verdict() {}

// Punish suspends and buries the offending agent (and transitively its
// whole team) without involving the manager's own supervision scope.
func Punish() Verdict { return punishVerdict{} }

type escalateVerdict struct{}

func (escalateVerdict) verdict() {}

// Escalate buries the offender like Punish, then raises a fresh
// incident in the manager's own supervision scope: the manager becomes
// the offender from its own manager's guard's point of view.
func Escalate() Verdict { return escalateVerdict{} }

type recastVerdict struct{ casting Casting }

func (recastVerdict) verdict() {}

// Recast suspends the offender (burying its team, per the reset
// protocol) and reinstalls a fresh role built from casting in its
// place: the agent keeps its identity and mailbox but starts over.
func Recast(casting Casting) Verdict { return recastVerdict{casting: casting} }

// Casting is everything Cast needs to bring a new agent, or a recast
// replacement role, into being.
type Casting struct {
	// RoleFactory builds the Role instance from Params.
	RoleFactory func(params any) Role
	Params      any
	// Guard supervises incidents raised by this agent, as seen by its
	// manager. A nil Guard defaults to DefaultGuard.
	Guard Guard
}
