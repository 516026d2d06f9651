package theater

import "github.com/stagehand/theater/pkg/future"

// Play posts a fresh gig for sel against agent. Equivalent to
// agent.Play, kept as a free function so call sites read the way
// spec.md's external interface names it: theater.Play(agent, ...).
func Play(agent *Agent, sel Selector, params any) *Gig {
	return agent.Play(sel, params)
}

// Run forces an Inert gig to start immediately. Equivalent to
// gig.Run().
func Run(gig *Gig) {
	gig.Run()
}

// Cast brings a new agent to life under manager through t. Equivalent
// to t.Cast(manager, casting).
func Cast(t *Theater, manager *Agent, casting Casting) *Agent {
	return t.Cast(manager, casting)
}

// Surprise runs gig to completion synchronously through t. Equivalent
// to t.Surprise(gig).
func Surprise(t *Theater, gig *Gig) (any, error) {
	return t.Surprise(gig)
}

// When erases a typed Hint into the Hint[any] a scene's yield expects.
// Scene bodies call theater.When(hint) to suspend on anything pkg/future
// can produce: a timeout, an exchange operation, a family combinator.
func When[T any](hint future.Hint[T]) future.Hint[any] {
	return future.Box[T](hint)
}

// Mourn returns a Hint revealing once agent is buried. Equivalent to
// agent.Mourn().
func Mourn(agent *Agent) future.Hint[struct{}] {
	return agent.Mourn()
}
