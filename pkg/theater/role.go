package theater

// Role is the behaviour an Agent plays: a table of named scenes it can
// run. Casting a role never uses reflection or struct tags to find its
// scenes — SceneTable is the one method table every role owns.
type Role interface {
	SceneTable() map[string]SceneFactory
}

// Improviser is implemented by roles that want a fallback for
// selectors absent from SceneTable, instead of an UnknownSelectorError.
type Improviser interface {
	ImproviseScene(selector string, params any) (SceneFactory, error)
}

// Initializer is implemented by roles with setup to run once, before
// any other gig is allowed onto the agent's workload. Every other posted
// gig is held in the agent's postponed queue until the initialisation
// gig finishes, succeeding or not.
type Initializer interface {
	InitializeScene() SceneFactory
}

// Disposer is implemented by roles with teardown to run when their
// agent resets: suspended, buried, or about to be replaced by Recast.
// DisposeRole runs as a fire-and-forget gig on the theater's janitor.
type Disposer interface {
	DisposeRole()
}
