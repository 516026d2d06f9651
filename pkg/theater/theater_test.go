package theater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stagehand/theater/pkg/future"
)

type echoRole struct{}

func (echoRole) SceneTable() map[string]SceneFactory {
	return map[string]SceneFactory{
		"echo": Func(func(_ Role, params any, _ Yield) (any, error) {
			return params, nil
		}),
		"blow up": Func(func(_ Role, params any, _ Yield) (any, error) {
			return nil, errors.New("scripted failure")
		}),
		"wait": Func(func(_ Role, params any, yield Yield) (any, error) {
			sig := yield(future.Timeout(5 * time.Millisecond))
			if !sig.Ok() {
				return nil, sig.Err()
			}
			return "woke up", nil
		}),
		"poison": Func(func(_ Role, _ any, _ Yield) (any, error) {
			return nil, ErrPoison
		}),
	}
}

func castEcho(t *testing.T, th *Theater, guard Guard) *Agent {
	t.Helper()
	return th.Cast(nil, Casting{RoleFactory: func(any) Role { return echoRole{} }, Guard: guard})
}

func TestCastAndPlayRoundTrip(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)

	gig := agent.Play(Named("echo"), "hello")
	value, err := gig.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "hello" {
		t.Fatalf("expected echoed value, got %v", value)
	}
	if !gig.Finished() {
		t.Fatal("expected gig to be finished after Await")
	}
}

func TestGigYieldsAndResumes(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)

	gig := agent.Play(Named("wait"), nil)
	value, err := gig.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "woke up" {
		t.Fatalf("expected wake message, got %v", value)
	}
}

func TestGigAwaitRespectsContextCancellation(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	gig := agent.Play(Named("wait"), nil)
	_, err := gig.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestUnknownSelectorFinishesAsBlooper(t *testing.T) {
	th := New()
	agent := castEcho(t, th, func(Incident) Verdict { return Forgive() })

	gig := agent.Play(Named("no such scene"), nil)
	_, err := gig.Await(context.Background())
	var unknown *UnknownSelectorError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSelectorError, got %v", err)
	}
}

func TestSupervisionForgiveKeepsAgentAlive(t *testing.T) {
	th := New()
	agent := castEcho(t, th, func(Incident) Verdict { return Forgive() })

	gig := agent.Play(Named("blow up"), nil)
	if _, err := gig.Await(context.Background()); err == nil {
		t.Fatal("expected the failing gig to finish as a blooper")
	}
	if agent.Dead() {
		t.Fatal("Forgive must not bury the offending agent")
	}

	// the agent should still be able to take new gigs.
	gig2 := agent.Play(Named("echo"), "still alive")
	value, err := gig2.Await(context.Background())
	if err != nil || value != "still alive" {
		t.Fatalf("expected agent to keep serving gigs, got %v, %v", value, err)
	}
}

func TestSupervisionPunishBuriesOffender(t *testing.T) {
	th := New()
	agent := castEcho(t, th, func(Incident) Verdict { return Punish() })

	gig := agent.Play(Named("blow up"), nil)
	gig.Await(context.Background())

	deadline := time.Now().Add(time.Second)
	for !agent.Dead() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !agent.Dead() {
		t.Fatal("expected Punish to bury the offending agent")
	}
}

func TestPoisonSuspendsAndBuriesRegardlessOfGuard(t *testing.T) {
	th := New()
	agent := castEcho(t, th, func(Incident) Verdict { return Forgive() })

	gig := agent.Play(Named("poison"), nil)
	gig.Await(context.Background())

	deadline := time.Now().Add(time.Second)
	for !agent.Dead() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !agent.Dead() {
		t.Fatal("expected poison to bury the agent even under a forgiving guard")
	}
}

func TestBuryRejectsFurtherGigsAsGhosts(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)
	agent.Bury()

	gig := agent.Play(Named("echo"), "too late")
	_, err := gig.Await(context.Background())
	if !errors.Is(err, ErrGhost) {
		t.Fatalf("expected ErrGhost, got %v", err)
	}
}

func TestGigStopOnInertIsNoOp(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)
	gig := agent.newGig(Named("echo"), "never run")
	gig.Stop(errors.New("cancelled before starting"))
	if gig.Finished() {
		t.Fatal("Stop on an Inert gig must be a no-op")
	}
}

func TestIntrospectionLookupsAndStatus(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)

	found, ok := th.AgentByID(agent.ID())
	if !ok || found != agent {
		t.Fatal("expected AgentByID to find the cast agent")
	}

	gig := agent.Play(Named("echo"), "hi")
	gig.Await(context.Background())

	foundGig, ok := th.GigByID(gig.ID())
	if !ok || foundGig != gig {
		t.Fatal("expected GigByID to find the played gig")
	}

	value, err := gig.Fate()
	if err != nil || value != "hi" {
		t.Fatalf("expected settled fate, got %v, %v", value, err)
	}

	status := th.Status()
	if status.Suspended < 0 || status.Ready < 0 {
		t.Fatalf("unexpected status counts: %+v", status)
	}
}

func TestSurpriseRunsGigSynchronously(t *testing.T) {
	th := New()
	agent := castEcho(t, th, nil)
	gig := agent.newGig(Named("echo"), "synchronous")

	value, err := th.Surprise(gig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "synchronous" {
		t.Fatalf("expected synchronous echo, got %v", value)
	}
}
