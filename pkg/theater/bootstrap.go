package theater

// janitorRole backs the theater's janitor: an agent with no scenes of
// its own, used purely as a place to Play short-lived fire-and-forget
// gigs (bury, dispose, thenable bridges) without borrowing a user
// agent's mailbox.
type janitorRole struct{}

func (janitorRole) SceneTable() map[string]SceneFactory { return nil }

// InitializeScene proves out the Surprise-based bootstrap path (§4.8)
// even though the janitor needs no real setup.
func (janitorRole) InitializeScene() SceneFactory {
	return Func(func(role Role, params any, yield Yield) (any, error) {
		return true, nil
	})
}

// troupeRole backs the theater's troupe: the nominal root of the
// supervision tree's bookkeeping, cast with no behaviour of its own.
type troupeRole struct{}

func (troupeRole) SceneTable() map[string]SceneFactory { return nil }

// directorRole backs the theater's director, the default manager for
// every top-level Cast call that doesn't name one explicitly.
type directorRole struct{}

func (directorRole) SceneTable() map[string]SceneFactory { return nil }
