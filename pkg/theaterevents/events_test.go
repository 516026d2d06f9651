package theaterevents

import (
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnTheaterEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func waitFor(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestRegistryGlobalObserverSeesEveryEvent(t *testing.T) {
	r := NewRegistry()
	obs := &recordingObserver{}
	r.SubscribeGlobal(obs)

	r.Notify(Event{Kind: KindAgentCast, AgentID: "a1"})
	r.Notify(Event{Kind: KindGigFinished, AgentID: "a2"})

	waitFor(t, func() bool { return obs.count() == 2 })
}

func TestRegistryScopedObserverOnlySeesItsAgent(t *testing.T) {
	r := NewRegistry()
	obs := &recordingObserver{}
	r.Subscribe("a1", obs)

	r.Notify(Event{Kind: KindAgentCast, AgentID: "a1"})
	r.Notify(Event{Kind: KindAgentCast, AgentID: "a2"})

	waitFor(t, func() bool { return obs.count() == 1 })
	time.Sleep(10 * time.Millisecond)
	if obs.count() != 1 {
		t.Fatalf("expected exactly one event, got %d", obs.count())
	}
}

func TestRegistryUnsubscribeStopsDelivery(t *testing.T) {
	r := NewRegistry()
	obs := &recordingObserver{}
	r.SubscribeGlobal(obs)
	r.UnsubscribeGlobal(obs)

	r.Notify(Event{Kind: KindIncident})
	time.Sleep(10 * time.Millisecond)
	if obs.count() != 0 {
		t.Fatalf("expected no events after unsubscribe, got %d", obs.count())
	}
}

func TestRegistryCounts(t *testing.T) {
	r := NewRegistry()
	obs1, obs2 := &recordingObserver{}, &recordingObserver{}
	r.Subscribe("a1", obs1)
	r.SubscribeGlobal(obs2)

	if r.Count("a1") != 1 {
		t.Fatalf("expected 1 scoped observer, got %d", r.Count("a1"))
	}
	if r.GlobalCount() != 1 {
		t.Fatalf("expected 1 global observer, got %d", r.GlobalCount())
	}
	if r.Count("unknown") != 0 {
		t.Fatalf("expected 0 observers for unknown agent")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindTakeStage:      "TAKE_STAGE",
		KindGigFinished:    "GIG_FINISHED",
		KindAgentCast:      "AGENT_CAST",
		KindAgentSuspended: "AGENT_SUSPENDED",
		KindAgentBuried:    "AGENT_BURIED",
		KindIncident:       "INCIDENT",
		Kind(99):           "UNKNOWN",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
