// Package future implements the asynchronous primitive layer the
// theater runtime yields into: one-shot cues, restartable teleprompters,
// the cue-tree commit protocol (leaves, decorators, families), bounded
// exchanges, and destinies.
//
// Every asynchronous completion in this package is expressed as a
// Signal[T]: either a Prompt(value) or a Blooper(error). A Cue[T] is a
// one-shot future over a Signal[T]; a Hint[T] is anything that can
// become a Cue[T] once someone commits to waiting on it (a Cue itself,
// a Teleprompter, or a foreign channel).
//
// The package has no notion of a scheduler or of goroutines driving
// scenes forward — that belongs to pkg/theater. future only guarantees
// the cue-tree invariants: a cue reveals or cancels at most once, and
// cancelling a composite cancels every still-pending descendant exactly
// once, top-down.
package future
