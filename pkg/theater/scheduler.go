package theater

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/stagehand/theater/internal/theaterlog"
	"github.com/stagehand/theater/internal/theatermetrics"
	"github.com/stagehand/theater/internal/theatertrace"
	"github.com/stagehand/theater/pkg/future"
	"github.com/stagehand/theater/pkg/status"
	"github.com/stagehand/theater/pkg/theaterevents"
)

// Priority is the urgency an interrupt is handled at; it selects a
// budget and a dispatch mechanism (§4.6).
type Priority int

const (
	// PriorityImmediate dispatches synchronously, in the caller's own
	// goroutine: used exclusively by Surprise.
	PriorityImmediate Priority = iota
	// PriorityFast dispatches on a fresh goroutine as soon as the
	// runtime schedules it — the microtask analogue.
	PriorityFast
	// PriorityNormal dispatches through a zero-delay timer — the
	// macrotask analogue, giving fast interrupts and any already
	// in-flight goroutines a chance to run first.
	PriorityNormal
)

// Budget bounds how long a single interrupt may keep driving gigs
// before yielding the stage back, per priority.
type Budget struct {
	Immediate time.Duration
	Fast      time.Duration
	Normal    time.Duration
}

// DefaultBudget matches spec.md's priority -> budget table.
func DefaultBudget() Budget {
	return Budget{
		Immediate: 4 * time.Millisecond,
		Fast:      6 * time.Millisecond,
		Normal:    10 * time.Millisecond,
	}
}

type interrupt struct {
	priority Priority
	budget   time.Duration
	playlist func() []*Gig
}

// Theater is the whole runtime: the scheduler, its agent-status lists,
// and the immortal bootstrap actors every theater carries.
type Theater struct {
	mu sync.Mutex

	suspendedAgents *status.List[Agent]
	readyAgents     *status.List[Agent]
	waitingAgents   *status.List[Agent]
	idleAgents      *status.List[Agent]

	busyAgent *Agent
	activeGig *Gig

	runMu    sync.Mutex
	handling *interrupt

	fastArmed   bool
	normalArmed bool

	budget Budget

	janitor, director, troupe *Agent

	agentsByID map[string]*Agent
	gigsByID   map[string]*Gig

	Events *theaterevents.Registry

	log     theaterlog.Logger
	metrics *theatermetrics.Manager
}

var agentSchedLink = func(a *Agent) *status.Link[Agent] { return &a.schedLink }

// Option configures a Theater at construction time.
type Option func(*Theater)

// WithBudget overrides the default priority -> budget table.
func WithBudget(b Budget) Option {
	return func(t *Theater) { t.budget = b }
}

// WithLogger attaches a structured logger the scheduler reports
// take-stage and supervision activity through.
func WithLogger(l theaterlog.Logger) Option {
	return func(t *Theater) { t.log = l }
}

// WithMetrics attaches a Prometheus metrics manager the scheduler
// reports gig, agent, and interrupt statistics through.
func WithMetrics(m *theatermetrics.Manager) Option {
	return func(t *Theater) { t.metrics = m }
}

// New builds a Theater and its immortal director, janitor, and troupe
// actors. A bootstrap role with an initialiser (the janitor's) is
// initialised synchronously via Surprise so that New never races the
// scheduler's own asynchronous arming (§4.8).
func New(opts ...Option) *Theater {
	t := &Theater{
		budget:     DefaultBudget(),
		Events:     theaterevents.NewRegistry(),
		log:        theaterlog.Nop(),
		metrics:    theatermetrics.NoOpManager(),
		agentsByID: make(map[string]*Agent),
		gigsByID:   make(map[string]*Gig),
	}
	t.suspendedAgents = status.New[Agent]("suspended", agentSchedLink)
	t.readyAgents = status.New[Agent]("ready", agentSchedLink)
	t.waitingAgents = status.New[Agent]("waiting", agentSchedLink)
	t.idleAgents = status.New[Agent]("idle", agentSchedLink)

	for _, opt := range opts {
		opt(t)
	}

	t.janitor = t.bootstrapImmortal(janitorRole{})
	t.troupe = t.bootstrapImmortal(troupeRole{})
	t.director = t.bootstrapImmortal(directorRole{})
	return t
}

func (t *Theater) bootstrapImmortal(role Role) *Agent {
	a := newAgent(t, role, nil)
	if init, ok := role.(Initializer); ok {
		g := a.newGig(Direct(init.InitializeScene()), nil)
		a.mu.Lock()
		a.initializing = g
		a.mu.Unlock()
		if _, err := t.Surprise(g); err != nil {
			panic("theater: bootstrap actor failed to initialise: " + err.Error())
		}
		a.mu.Lock()
		a.initializing = nil
		a.mu.Unlock()
	}
	t.negotiate(a)
	return a
}

// Director is the theater's default root manager, used as the manager
// for top-level Cast calls that pass a nil manager.
func (t *Theater) Director() *Agent { return t.director }

// negotiate recomputes which of the four operational statuses a
// belongs to (suspended/ready/waiting/idle) from its current queue
// state, then arms a fast interrupt if there is fresh ready work and
// nothing is already armed. It also runs for the agent currently on
// stage (takeStage and post call it mid-beat); handle calls it once
// more after clearing busyAgent.
func (t *Theater) negotiate(a *Agent) {
	t.mu.Lock()
	a.mu.Lock()
	suspended := a.suspended
	workloadEmpty := a.workload.Empty()
	agendaEmpty := a.agenda.Empty()
	a.mu.Unlock()

	switch {
	case suspended:
		t.suspendedAgents.Add(a)
	case !workloadEmpty:
		t.readyAgents.Add(a)
	case !agendaEmpty:
		t.waitingAgents.Add(a)
	default:
		t.idleAgents.Add(a)
	}
	needsArm := t.readyAgents.Size() > 0 && !t.fastArmed && !t.normalArmed
	t.mu.Unlock()

	if needsArm {
		t.armFast()
	}
}

func (t *Theater) armFast() {
	t.mu.Lock()
	if t.fastArmed {
		t.mu.Unlock()
		return
	}
	t.fastArmed = true
	t.mu.Unlock()

	go func() {
		t.handle(&interrupt{priority: PriorityFast, budget: t.budget.Fast, playlist: t.regularPlaylist})
		t.mu.Lock()
		t.fastArmed = false
		t.mu.Unlock()
	}()
}

func (t *Theater) armNormal() {
	t.mu.Lock()
	if t.normalArmed {
		t.mu.Unlock()
		return
	}
	t.normalArmed = true
	t.mu.Unlock()

	time.AfterFunc(0, func() {
		t.handle(&interrupt{priority: PriorityNormal, budget: t.budget.Normal, playlist: t.regularPlaylist})
		t.mu.Lock()
		t.normalArmed = false
		t.mu.Unlock()
	})
}

// regularPlaylist yields the first workload gig of each ready agent, in
// ready order — the "regular entertainment" playlist (§4.6).
func (t *Theater) regularPlaylist() []*Gig {
	t.mu.Lock()
	defer t.mu.Unlock()
	var gigs []*Gig
	t.readyAgents.Each(func(a *Agent) {
		a.mu.Lock()
		g := a.workload.First()
		a.mu.Unlock()
		if g != nil {
			gigs = append(gigs, g)
		}
	})
	return gigs
}

// handle runs exactly one interrupt to completion, stepping every gig
// in in.playlist() until the playlist is exhausted or the budget
// elapses. Interrupts from different goroutines serialize on runMu,
// which is taken before handling is checked; finding handling still set
// after that is a nested interrupt and panics. On exit the interrupt
// clears its own armed flag and arms a normal interrupt if agents are
// still ready.
func (t *Theater) handle(in *interrupt) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	t.mu.Lock()
	if t.handling != nil {
		t.mu.Unlock()
		panic(&ProtocolError{Op: "handle", Msg: "nested interrupt"})
	}
	t.handling = in
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.handling = nil
		t.mu.Unlock()
	}()

	deadline := time.Now().Add(in.budget)
	gigs := in.playlist()
	for _, g := range gigs {
		agent := g.snapshotAgent()
		if agent == nil {
			continue // already finished before its turn came up
		}

		t.mu.Lock()
		if t.activeGig != nil || t.busyAgent != nil {
			t.mu.Unlock()
			panic(&ProtocolError{Op: "handle", Msg: "stage not empty"})
		}
		t.activeGig = g
		t.busyAgent = agent
		t.mu.Unlock()

		agent.mu.Lock()
		agent.workload.Delete(g)
		agent.mu.Unlock()

		sel := g.selectorSnapshot()
		t.Events.Notify(theaterevents.Event{Kind: theaterevents.KindTakeStage, AgentID: agent.ID(), GigID: g.ID(), Selector: sel, Timestamp: time.Now().UnixNano()})
		t.log.Debug("take stage", "agent", agent.ID(), "selector", sel)
		t.metrics.GigStarted(sel)
		start := time.Now()

		_, span := theatertrace.StartSpan(context.Background(), "takeStage",
			attribute.String("agent.id", agent.ID()), attribute.String("selector", sel))
		g.takeStage()
		span.End()

		g.mu.Lock()
		finished := g.state == gigFinished
		g.mu.Unlock()
		if finished {
			outcome := "ok"
			fate := g.fateSnapshot()
			if !fate.Ok() {
				outcome = "blooper"
			}
			t.metrics.GigFinished(outcome, sel, time.Since(start).Seconds())
		}

		t.mu.Lock()
		if t.activeGig == g {
			t.activeGig = nil
		}
		if t.busyAgent == agent {
			t.busyAgent = nil
		}
		t.mu.Unlock()
		t.negotiate(agent)

		if time.Now().After(deadline) {
			break
		}
	}

	t.mu.Lock()
	switch in.priority {
	case PriorityFast:
		t.fastArmed = false
	case PriorityNormal:
		t.normalArmed = false
	}
	needsArm := t.readyAgents.Size() > 0 && !t.fastArmed && !t.normalArmed
	readyDepth := t.readyAgents.Size()
	t.mu.Unlock()
	t.metrics.SetReadyDepth(readyDepth)
	if needsArm {
		t.armNormal()
	}
}

// Surprise runs g to completion synchronously, bypassing the regular
// playlist entirely (OQ-2: only legal while the stage is closed, i.e.
// no other interrupt is in flight). It is the immediate-priority
// bootstrap mechanism used at construction time and available to callers
// who need a deterministic first step.
func (t *Theater) Surprise(g *Gig) (any, error) {
	t.mu.Lock()
	if t.handling != nil {
		t.mu.Unlock()
		return nil, ErrStageOpen
	}
	t.mu.Unlock()

	in := &interrupt{priority: PriorityImmediate, budget: t.budget.Immediate, playlist: func() []*Gig { return []*Gig{g} }}
	t.handle(in)

	g.mu.Lock()
	state := g.state
	fate := g.fate
	g.mu.Unlock()
	if state != gigFinished {
		return nil, &ProtocolError{Op: "surprise", Msg: "scene did not finish within a single stage turn"}
	}
	if fate.Ok() {
		return fate.Value(), nil
	}
	return nil, fate.Err()
}

// applyVerdict judges incident through the guard its offender's manager
// holds for it (DefaultGuard if none was set), then carries out the
// resulting Verdict.
func (t *Theater) applyVerdict(agent *Agent, incident Incident) {
	guard := agentGuard(agent)
	verdict := guard(incident)

	t.Events.Notify(theaterevents.Event{
		Kind: theaterevents.KindIncident, AgentID: agent.ID(), Selector: incident.Selector,
		Err: incident.Blooper, Timestamp: time.Now().UnixNano(),
	})
	t.log.Warn("incident judged", "agent", agent.ID(), "selector", incident.Selector, "error", incident.Blooper)

	switch v := verdict.(type) {
	case forgiveVerdict:
		t.metrics.IncidentJudged("forgive")
		t.negotiate(agent)
	case punishVerdict:
		t.metrics.IncidentJudged("punish")
		agent.Suspend()
		if agent.manager != nil {
			agent.manager.buryAsync(agent)
		} else {
			agent.Bury()
		}
	case escalateVerdict:
		t.metrics.IncidentJudged("escalate")
		agent.Suspend()
		if agent.manager != nil {
			agent.manager.buryAsync(agent)
			escalated := Incident{
				Offender:   agent.manager,
				Blooper:    incident.Blooper,
				Selector:   incident.Selector,
				Parameters: incident.Parameters,
			}
			t.applyVerdict(agent.manager, escalated)
		} else {
			agent.Bury()
		}
	case recastVerdict:
		t.metrics.IncidentJudged("recast")
		agent.Suspend()
		role := v.casting.RoleFactory(v.casting.Params)
		if err := agent.Resume(role, v.casting.Params); err == nil && agent.manager != nil {
			agent.manager.mu.Lock()
			agent.manager.team[agent] = v.casting.Guard
			agent.manager.mu.Unlock()
		}
	}
}

func agentGuard(a *Agent) Guard {
	if a.manager == nil {
		return DefaultGuard
	}
	a.manager.mu.Lock()
	guard := a.manager.team[a]
	a.manager.mu.Unlock()
	if guard == nil {
		return DefaultGuard
	}
	return guard
}

// Cast brings a new agent to life under manager (nil means the
// theater's own director), running its role's initialiser, if any,
// before releasing any postponed gigs.
func (t *Theater) Cast(manager *Agent, casting Casting) *Agent {
	if manager == nil {
		manager = t.director
	}
	role := casting.RoleFactory(casting.Params)
	child := newAgent(t, role, manager)

	manager.mu.Lock()
	guard := casting.Guard
	manager.team[child] = guard
	manager.mu.Unlock()

	t.negotiate(child)
	child.runInitializer(role, casting.Params)
	t.Events.Notify(theaterevents.Event{Kind: theaterevents.KindAgentCast, AgentID: child.ID(), Timestamp: time.Now().UnixNano()})
	t.metrics.AgentCast()
	t.log.Debug("agent cast", "agent", child.ID())
	return child
}

// bridge runs a tiny scene on the janitor that waits on hint and
// returns its value, turning any Cue/Destiny completion into a fresh
// Gig an external caller can Await like any other — spec.md §9's
// "fork a helper gig on the janitor" thenable bridge.
func (t *Theater) bridge(hint future.Hint[any]) *Gig {
	return t.janitor.Play(Direct(bridgeScene), hint)
}

var bridgeScene = Func(func(role Role, params any, yield Yield) (any, error) {
	hint := params.(future.Hint[any])
	sig := yield(hint)
	if !sig.Ok() {
		return nil, sig.Err()
	}
	return sig.Value(), nil
})
