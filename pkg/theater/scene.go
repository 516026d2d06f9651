package theater

import "github.com/stagehand/theater/pkg/future"

// Step is the result of advancing a Scene one beat: it yields a hint to
// wait on, returns a final value, or throws an error that the agent's
// supervision tree will judge.
type Step struct {
	kind  stepKind
	hint  future.Hint[any]
	value any
	err   error
}

type stepKind int

const (
	stepYield stepKind = iota
	stepReturn
	stepThrow
)

// StepYield suspends the scene on hint; the next Step call carries
// whatever signal the committed hint eventually reveals.
func StepYield(hint future.Hint[any]) Step { return Step{kind: stepYield, hint: hint} }

// StepReturn finishes the scene successfully with value.
func StepReturn(value any) Step { return Step{kind: stepReturn, value: value} }

// StepThrow finishes the scene with err, handing the offending gig to
// its agent's supervision guard.
func StepThrow(err error) Step { return Step{kind: stepThrow, err: err} }

// Scene is a coroutine driven one beat at a time by a Gig: Step is
// called with the zero Signal on the very first beat, then with
// whatever signal the scene's previously yielded hint revealed.
type Scene interface {
	Step(signal future.Signal[any]) Step
}

// Yield suspends a Func scene's body until the driving gig resumes it
// with the yielded hint's eventual signal.
type Yield func(hint future.Hint[any]) future.Signal[any]

// SceneFactory builds a fresh Scene for exactly one gig.
type SceneFactory func(role Role, params any) Scene

// Func adapts an ordinary function into a SceneFactory. body runs on
// its own goroutine; calling yield blocks that goroutine until the
// driving gig resumes it, which is what turns two goroutines rendezvousing
// over a pair of unbuffered channels into a stackful coroutine — the
// scene's goroutine only ever runs while the scheduler's own goroutine
// is blocked waiting on it, so the single-gig-on-stage invariant holds
// even though the implementation spans two goroutines.
func Func(body func(role Role, params any, yield Yield) (any, error)) SceneFactory {
	return func(role Role, params any) Scene {
		return newFuncScene(role, params, body)
	}
}

type funcScene struct {
	toScene   chan future.Signal[any]
	fromScene chan Step
	started   bool
}

func newFuncScene(role Role, params any, body func(Role, any, Yield) (any, error)) *funcScene {
	s := &funcScene{
		toScene:   make(chan future.Signal[any]),
		fromScene: make(chan Step),
	}
	yield := func(hint future.Hint[any]) future.Signal[any] {
		s.fromScene <- StepYield(hint)
		return <-s.toScene
	}
	go func() {
		value, err := body(role, params, yield)
		if err != nil {
			s.fromScene <- StepThrow(err)
			return
		}
		s.fromScene <- StepReturn(value)
	}()
	return s
}

func (s *funcScene) Step(signal future.Signal[any]) Step {
	if s.started {
		s.toScene <- signal
	}
	s.started = true
	return <-s.fromScene
}

// Direct turns a ready-made SceneFactory into a Selector that bypasses
// a role's scene table entirely — the "selector is itself callable"
// case.
func Direct(factory SceneFactory) Selector { return Selector{factory: factory} }

// Named selects a scene by name from the role's SceneTable.
func Named(name string) Selector { return Selector{name: name} }

// Selector names which scene a Gig runs: either a lookup key into the
// role's SceneTable, or a SceneFactory supplied directly.
type Selector struct {
	name    string
	factory SceneFactory
}

func (s Selector) String() string {
	if s.factory != nil {
		return "<direct>"
	}
	return s.name
}

func createScene(role Role, sel Selector, params any) (Scene, error) {
	if sel.factory != nil {
		return sel.factory(role, params), nil
	}
	if role != nil {
		if table := role.SceneTable(); table != nil {
			if factory, ok := table[sel.name]; ok {
				return factory(role, params), nil
			}
		}
		if imp, ok := role.(Improviser); ok {
			factory, err := imp.ImproviseScene(sel.name, params)
			if err != nil {
				return nil, err
			}
			return factory(role, params), nil
		}
	}
	return nil, &UnknownSelectorError{Selector: sel.name}
}
