package theater

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand/theater/pkg/future"
	"github.com/stagehand/theater/pkg/status"
	"github.com/stagehand/theater/pkg/theaterevents"
)

var gigQueueLink = func(g *Gig) *status.Link[Gig] { return &g.queueLink }

// Agent is a live actor: a role, a mailbox of gigs split across
// workload/agenda/postponed, and a place in its manager's team.
type Agent struct {
	mu sync.Mutex

	theater *Theater
	id      string

	role    Role
	manager *Agent
	team    map[*Agent]Guard

	suspended    bool
	dead         bool
	initializing *Gig

	workload  *status.List[Gig]
	agenda    *status.List[Gig]
	postponed *status.List[Gig]

	schedLink status.Link[Agent]

	destiny *future.Destiny[bool]
}

func newAgent(t *Theater, role Role, manager *Agent) *Agent {
	a := &Agent{
		theater: t,
		id:      uuid.NewString(),
		role:    role,
		manager: manager,
		team:    make(map[*Agent]Guard),
		destiny: future.NewDestiny[bool](),
	}
	a.workload = status.New[Gig]("workload", gigQueueLink)
	a.agenda = status.New[Gig]("agenda", gigQueueLink)
	a.postponed = status.New[Gig]("postponed", gigQueueLink)
	t.registerAgent(a)
	return a
}

// ID returns the agent's identity, stable for its whole lifetime.
func (a *Agent) ID() string { return a.id }

// Dead reports whether the agent has been buried.
func (a *Agent) Dead() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dead
}

// Mourn returns a Hint revealing once the agent is buried.
func (a *Agent) Mourn() future.Hint[struct{}] {
	return future.Capture(a.destiny.Autocue(), func(future.Signal[bool]) future.Signal[struct{}] {
		return future.Prompt(struct{}{})
	})
}

// post is the single entry point that places a gig into exactly one of
// the agent's three queues: postponed while an initialisation gig is
// still running (and this isn't it), agenda while its commitment is
// still pending, or workload otherwise. It is re-entered every time a
// gig's pending hint resolves, which is what moves it Agenda -> Workload.
func (a *Agent) post(g *Gig) {
	g.mu.Lock()
	hasRollback := g.rollback != nil
	g.mu.Unlock()

	a.mu.Lock()
	if a.dead {
		a.mu.Unlock()
		g.mu.Lock()
		inert := g.state == gigInert
		g.mu.Unlock()
		if inert {
			g.finish(future.Blooper[any](ErrGhost))
		} else {
			g.Stop(ErrGhost)
		}
		return
	}
	switch {
	case a.initializing != nil && g != a.initializing:
		a.postponed.Add(g)
		g.setState(gigPostponed)
	case hasRollback:
		a.agenda.Add(g)
		g.setState(gigAgenda)
	default:
		a.workload.Add(g)
		g.setState(gigWorkload)
	}
	a.mu.Unlock()
	a.theater.negotiate(a)
}

// runInitializer plays role's InitializeScene, holding every other gig
// in postponed until it finishes, then releasing them all into the
// workload in posting order.
func (a *Agent) runInitializer(role Role, params any) {
	init, ok := role.(Initializer)
	if !ok {
		return
	}
	g := a.newGig(Direct(init.InitializeScene()), params)
	a.mu.Lock()
	a.initializing = g
	a.mu.Unlock()
	g.onFinish = func(future.Signal[any]) {
		a.mu.Lock()
		a.initializing = nil
		released := a.postponed.Slice()
		a.postponed.Clear()
		a.mu.Unlock()
		for _, pg := range released {
			a.post(pg)
		}
	}
	a.post(g)
}

// reset stops every pending gig, buries every team member, and runs
// disposeRole as a fire-and-forget janitor gig — the shared protocol
// behind Suspend, Resume, and Bury.
func (a *Agent) reset() {
	a.mu.Lock()
	gigs := append(append(a.workload.Slice(), a.agenda.Slice()...), a.postponed.Slice()...)
	role := a.role
	children := make([]*Agent, 0, len(a.team))
	for child := range a.team {
		children = append(children, child)
	}
	a.mu.Unlock()

	for _, g := range gigs {
		g.Stop(ErrAgentReset)
	}
	for _, child := range children {
		child.Bury()
	}
	if d, ok := role.(Disposer); ok {
		a.theater.janitor.Play(Direct(disposeSceneFor(d)), nil)
	}
}

// Suspend marks the agent unable to take further gigs and resets it.
func (a *Agent) Suspend() {
	a.mu.Lock()
	if a.suspended {
		a.mu.Unlock()
		return
	}
	a.suspended = true
	a.mu.Unlock()
	a.theater.negotiate(a)
	a.reset()
	a.theater.Events.Notify(theaterevents.Event{Kind: theaterevents.KindAgentSuspended, AgentID: a.id, Timestamp: time.Now().UnixNano()})
	a.theater.metrics.AgentSuspended()
}

// Resume installs role on a suspended (but not dead) agent and resets
// it first, burying every existing team member — descendants of a
// recast agent never survive their manager's replacement.
func (a *Agent) Resume(role Role, params any) error {
	a.mu.Lock()
	if a.dead {
		a.mu.Unlock()
		return ErrAgentDead
	}
	a.mu.Unlock()

	a.reset()

	a.mu.Lock()
	a.role = role
	a.suspended = false
	a.mu.Unlock()
	a.theater.negotiate(a)
	a.runInitializer(role, params)
	return nil
}

// Bury finishes the agent's destiny and resets it. Bury is terminal and
// idempotent.
func (a *Agent) Bury() {
	a.mu.Lock()
	if a.dead {
		a.mu.Unlock()
		return
	}
	a.dead = true
	a.suspended = true
	a.mu.Unlock()
	a.theater.negotiate(a)
	a.reset()
	a.destiny.Finish(future.Prompt(true))
	if a.manager != nil {
		a.manager.mu.Lock()
		delete(a.manager.team, a)
		a.manager.mu.Unlock()
	}
	a.theater.Events.Notify(theaterevents.Event{Kind: theaterevents.KindAgentBuried, AgentID: a.id, Timestamp: time.Now().UnixNano()})
	a.theater.metrics.AgentBuried("bury")
}

// buryAsync schedules Bury as a fire-and-forget gig on the janitor,
// matching spec.md's "the manager buries it via a fresh gig" wording
// for the supervision paths that trigger from inside takeStage.
func (a *Agent) buryAsync(target *Agent) {
	a.theater.janitor.Play(Direct(buryScene()), target)
}

// buryScene is a function (not a package-level var) so that the
// Bury -> ... -> buryAsync -> buryScene reference chain doesn't trip
// Go's static initialization-cycle check; it still always yields an
// equivalent stateless SceneFactory.
func buryScene() SceneFactory {
	return Func(func(role Role, params any, yield Yield) (any, error) {
		params.(*Agent).Bury()
		return true, nil
	})
}

func disposeSceneFor(d Disposer) SceneFactory {
	return Func(func(role Role, params any, yield Yield) (any, error) {
		d.DisposeRole()
		return true, nil
	})
}
