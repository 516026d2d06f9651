// Package theater implements the cooperative actor system described by
// the runtime's specification: agents running scene coroutines,
// organised into a supervision tree with per-child verdicts, driven by
// a budget-limited stage scheduler that guarantees exactly one gig is
// ever on stage at a time.
//
// theater yields into pkg/future for every asynchronous wait: a scene
// suspends by yielding a future.Hint[any], the driving Gig commits it
// through future.Commit, and resumes the scene with whatever Signal
// eventually arrives.
package theater
