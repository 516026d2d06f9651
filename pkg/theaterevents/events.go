// Package theaterevents is the broadcaster behind the runtime's debug
// and metrics surfaces: it fans out TheaterEvents to whoever is
// watching, global or agent-scoped, the way goclaw's engine package
// fans out WorkflowEvent/TaskEvent to its ObserverRegistry.
package theaterevents

import "sync"

// Kind is the type of thing that just happened on stage.
type Kind int

const (
	KindTakeStage Kind = iota
	KindGigFinished
	KindAgentCast
	KindAgentSuspended
	KindAgentBuried
	KindIncident
)

func (k Kind) String() string {
	switch k {
	case KindTakeStage:
		return "TAKE_STAGE"
	case KindGigFinished:
		return "GIG_FINISHED"
	case KindAgentCast:
		return "AGENT_CAST"
	case KindAgentSuspended:
		return "AGENT_SUSPENDED"
	case KindAgentBuried:
		return "AGENT_BURIED"
	case KindIncident:
		return "INCIDENT"
	default:
		return "UNKNOWN"
	}
}

// Event is a single notable thing that happened in a theater: a gig
// taking or leaving the stage, an agent changing life-cycle state, or a
// supervision incident being judged.
type Event struct {
	Kind      Kind
	AgentID   string
	GigID     string
	Selector  string
	Message   string
	Err       error
	Timestamp int64
}

// Observer receives theater event notifications.
type Observer interface {
	OnTheaterEvent(event Event)
}

// Registry fans Events out to subscribers, either scoped to one agent
// or global to the whole theater.
type Registry struct {
	mu        sync.RWMutex
	observers map[string][]Observer
	global    []Observer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{observers: make(map[string][]Observer)}
}

// Subscribe adds an observer scoped to a single agent ID.
func (r *Registry) Subscribe(agentID string, observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[agentID] = append(r.observers[agentID], observer)
}

// SubscribeGlobal adds an observer that sees every event.
func (r *Registry) SubscribeGlobal(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = append(r.global, observer)
}

// Unsubscribe removes an agent-scoped observer.
func (r *Registry) Unsubscribe(agentID string, observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	observers := r.observers[agentID]
	for i, obs := range observers {
		if obs == observer {
			r.observers[agentID] = append(observers[:i], observers[i+1:]...)
			break
		}
	}
	if len(r.observers[agentID]) == 0 {
		delete(r.observers, agentID)
	}
}

// UnsubscribeGlobal removes a global observer.
func (r *Registry) UnsubscribeGlobal(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, obs := range r.global {
		if obs == observer {
			r.global = append(r.global[:i], r.global[i+1:]...)
			break
		}
	}
}

// Notify fans event out to every agent-scoped observer for
// event.AgentID plus every global observer, each on its own goroutine
// so a slow observer never stalls the scheduler.
func (r *Registry) Notify(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, observer := range r.observers[event.AgentID] {
		go observer.OnTheaterEvent(event)
	}
	for _, observer := range r.global {
		go observer.OnTheaterEvent(event)
	}
}

// Count returns the number of agent-scoped observers for agentID.
func (r *Registry) Count(agentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers[agentID])
}

// GlobalCount returns the number of global observers.
func (r *Registry) GlobalCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.global)
}
