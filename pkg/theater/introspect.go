package theater

// StatusCounts summarizes how many agents presently occupy each of
// the four mutually exclusive operational statuses.
type StatusCounts struct {
	Suspended int
	Ready     int
	Waiting   int
	Idle      int
}

// Status returns the current StatusCounts, for health/metrics
// reporting.
func (t *Theater) Status() StatusCounts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return StatusCounts{
		Suspended: t.suspendedAgents.Size(),
		Ready:     t.readyAgents.Size(),
		Waiting:   t.waitingAgents.Size(),
		Idle:      t.idleAgents.Size(),
	}
}

// registerAgent makes a live under t's introspection registry.
func (t *Theater) registerAgent(a *Agent) {
	t.mu.Lock()
	t.agentsByID[a.id] = a
	t.mu.Unlock()
}

// AgentByID looks up a live or dead agent by its identity. Buried
// agents remain lookupable (their Dead() will report true) so API
// clients can observe a burial instead of getting a bare 404.
func (t *Theater) AgentByID(id string) (*Agent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.agentsByID[id]
	return a, ok
}

// registerGig makes g lookupable by ID through GigByID.
func (t *Theater) registerGig(g *Gig) {
	t.mu.Lock()
	t.gigsByID[g.id] = g
	t.mu.Unlock()
}

// GigByID looks up a gig by its identity, regardless of its state.
func (t *Theater) GigByID(id string) (*Gig, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gigsByID[id]
	return g, ok
}
