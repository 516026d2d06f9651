package theater

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand/theater/pkg/future"
	"github.com/stagehand/theater/pkg/status"
	"github.com/stagehand/theater/pkg/theaterevents"
)

type gigState int

const (
	gigInert gigState = iota
	gigWorkload
	gigAgenda
	gigPostponed
	gigActive
	gigFinished
)

// Gig is one scene's run on an agent's behalf: Inert until first posted
// or forced to run, then cycling Workload/Agenda/Postponed/Active until
// it transitions into Fate exactly once.
type Gig struct {
	mu sync.Mutex

	id      string
	theater *Theater
	agent   *Agent

	selector Selector
	params   any

	scene    Scene
	progress future.Signal[any]
	hasSig   bool

	rollback func()

	state gigState
	fate  future.Signal[any]

	controller *future.Destiny[any]
	onFinish   func(future.Signal[any])

	queueLink status.Link[Gig]
}

func (a *Agent) newGig(sel Selector, params any) *Gig {
	g := &Gig{id: uuid.NewString(), theater: a.theater, agent: a, selector: sel, params: params, state: gigInert}
	a.theater.registerGig(g)
	return g
}

// ID returns the gig's identity, stable for its whole lifetime.
func (g *Gig) ID() string { return g.id }

// Play posts a fresh gig for sel against a, returning its handle. The
// gig is posted at once, so it is never Inert on return and Run on it
// is a no-op; it runs once the scheduler's next interrupt reaches it.
func (a *Agent) Play(sel Selector, params any) *Gig {
	g := a.newGig(sel, params)
	a.post(g)
	return g
}

// Run posts an Inert gig to its agent immediately: onto the workload,
// or into postponed while the agent's initialiser is still running. It
// is a no-op on a gig that has already started.
func (g *Gig) Run() {
	g.mu.Lock()
	if g.state != gigInert {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.agent.post(g)
}

func (g *Gig) setState(s gigState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Gig) snapshotAgent() *Agent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.agent
}

// Stop cancels a gig that is still Workload, Agenda, or Postponed (or
// mid-flight as Active), finishing it as Blooper(reason) and invoking
// any pending rollback. Stopping an Inert or already-Finished gig is a
// no-op.
func (g *Gig) Stop(reason error) {
	g.mu.Lock()
	state := g.state
	rollback := g.rollback
	g.mu.Unlock()

	if state == gigInert || state == gigFinished {
		return
	}
	if rollback != nil {
		rollback()
	}
	g.finish(future.Blooper[any](reason))
}

// finish transitions the gig into Fate exactly once, unlinking it from
// whichever queue holds it and clearing its agent, selector, parameters
// and rollback — the reference-breaking half of spec.md's invariant 3.
// The controller destiny is kept alive deliberately so late awaiters
// still observe the sealed fate (see DESIGN.md, "Gig reference-breaking").
func (g *Gig) finish(sig future.Signal[any]) {
	g.mu.Lock()
	if g.state == gigFinished {
		g.mu.Unlock()
		panic(&ProtocolError{Op: "finish", Msg: "gig already finished"})
	}
	agent := g.agent
	controller := g.controller
	onFinish := g.onFinish
	g.state = gigFinished
	g.fate = sig
	g.agent = nil
	g.selector = Selector{}
	g.params = nil
	g.rollback = nil
	g.mu.Unlock()

	if agent != nil {
		agent.mu.Lock()
		agent.workload.Delete(g)
		agent.agenda.Delete(g)
		agent.postponed.Delete(g)
		agent.mu.Unlock()
	}
	if onFinish != nil {
		onFinish(sig)
	}
	if controller != nil {
		controller.Finish(sig)
	}
	if agent != nil {
		var errv error
		if !sig.Ok() {
			errv = sig.Err()
		}
		g.theater.Events.Notify(theaterevents.Event{Kind: theaterevents.KindGigFinished, AgentID: agent.ID(), GigID: g.id, Err: errv, Timestamp: time.Now().UnixNano()})
	}
}

func (g *Gig) controllerCue() future.Hint[any] {
	g.mu.Lock()
	if g.controller == nil {
		g.controller = future.NewDestiny[any]()
		if g.state == gigFinished {
			// finish ran before anyone asked for the controller.
			g.controller.Finish(g.fate)
		}
	}
	controller := g.controller
	g.mu.Unlock()
	return controller.Autocue()
}

// Done returns a Hint revealing the gig's eventual fate, forcing it to
// run first if it is still Inert.
func (g *Gig) Done() future.Hint[any] {
	g.Run()
	return g.controllerCue()
}

// Await blocks until the gig completes (forcing it to run first if
// still Inert), bridging the completion through a helper gig forked on
// the theater's janitor — the thenable-job pattern from spec.md §9.
func (g *Gig) Await(ctx context.Context) (any, error) {
	// The helper waits on a hint that always prompts, carrying g's own
	// signal as its value, so a blooper of g never fails the helper gig.
	done := future.Capture(g.Done(), func(sig future.Signal[any]) future.Signal[any] {
		return future.Prompt[any](sig)
	})
	helper := g.theater.bridge(done)
	ch := make(chan future.Signal[any], 1)
	rollback, ok := future.Commit(helper.controllerCue(), func(sig future.Signal[any]) { ch <- sig })

	var sig future.Signal[any]
	if !ok {
		sig = <-ch
	} else {
		select {
		case sig = <-ch:
		case <-ctx.Done():
			rollback()
			return nil, ctx.Err()
		}
	}
	if sig.Ok() {
		if inner, ok := sig.Value().(future.Signal[any]); ok {
			sig = inner
		}
	}
	if sig.Ok() {
		return sig.Value(), nil
	}
	return nil, sig.Err()
}

// takeStage advances the gig by exactly one beat: constructing its
// scene on the first call, stepping it with whatever signal is
// pending, and handling whatever the scene does next (yield, return,
// or throw). It must only ever be called by the scheduler with the
// stage empty (spec.md invariant 4).
func (g *Gig) takeStage() {
	g.mu.Lock()
	if g.state == gigFinished {
		g.mu.Unlock()
		return
	}
	progress := g.progress
	hasSig := g.hasSig
	g.progress = future.Signal[any]{}
	g.hasSig = false
	firstStep := g.scene == nil
	agent := g.agent
	sel := g.selector
	params := g.params
	g.state = gigActive
	g.mu.Unlock()

	if firstStep {
		scene, err := createScene(agent.role, sel, params)
		if err != nil {
			g.handleSceneError(err)
			return
		}
		g.mu.Lock()
		g.scene = scene
		g.mu.Unlock()
	}

	var in future.Signal[any]
	if hasSig {
		in = progress
	}
	step := g.scene.Step(in)

	switch step.kind {
	case stepReturn:
		g.finish(future.Prompt[any](step.value))
		agent.theater.negotiate(agent)
	case stepThrow:
		g.handleSceneError(step.err)
	case stepYield:
		rollback, ok := future.Commit(step.hint, func(sig future.Signal[any]) {
			g.mu.Lock()
			g.progress = sig
			g.hasSig = true
			g.rollback = nil
			g.mu.Unlock()
			agent.post(g)
		})
		if ok {
			g.mu.Lock()
			g.rollback = rollback
			g.mu.Unlock()
			agent.post(g)
		}
		// If !ok, the effect above has already reposted g into the
		// workload synchronously.
	}
}

func (g *Gig) handleSceneError(err error) {
	agent := g.snapshotAgentForError()
	if err == ErrPoison {
		g.finish(future.Prompt[any](true))
		agent.Suspend()
		if agent.manager != nil {
			agent.manager.buryAsync(agent)
		} else {
			agent.Bury()
		}
		return
	}

	incident := Incident{Offender: agent, Blooper: err, Selector: g.selectorSnapshot(), Parameters: g.paramsSnapshot()}
	g.finish(future.Blooper[any](err))
	agent.theater.applyVerdict(agent, incident)
}

func (g *Gig) snapshotAgentForError() *Agent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.agent
}

func (g *Gig) selectorSnapshot() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selector.String()
}

func (g *Gig) paramsSnapshot() any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params
}

// fateSnapshot returns the gig's sealed fate. Only meaningful once the
// gig has reached gigFinished.
func (g *Gig) fateSnapshot() future.Signal[any] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fate
}

// Finished reports whether the gig has reached Fate, without blocking.
func (g *Gig) Finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == gigFinished
}

// Fate returns the gig's settled value and error. Only meaningful once
// Finished reports true; call Await or Done first if the gig may still
// be running.
func (g *Gig) Fate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != gigFinished {
		return nil, nil
	}
	if g.fate.Ok() {
		return g.fate.Value(), nil
	}
	return nil, g.fate.Err()
}
