package theatermetrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDisabledManagerIsNoOp(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	if m.Enabled() {
		t.Fatal("expected a disabled manager")
	}
	// must not panic even though nothing is registered.
	m.GigStarted("echo")
	m.GigFinished("ok", "echo", 0.01)
	m.AgentCast()
	m.AgentBuried("punish")
	m.AgentSuspended()
	m.IncidentJudged("forgive")
	m.InterruptHandled("fast", 0.002)
	m.SetReadyDepth(3)
	m.SetExchangeStats("input", 1, 0, 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from a disabled manager's handler, got %d", rec.Code)
	}
}

func TestEnabledManagerRecordsAndServesMetrics(t *testing.T) {
	m := NewManager(DefaultConfig())
	if !m.Enabled() {
		t.Fatal("expected an enabled manager")
	}

	m.GigStarted("echo")
	m.GigFinished("ok", "echo", 0.002)
	m.AgentCast()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from an enabled manager's handler, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"theater_gigs_started_total", "theater_agents_cast_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestNoOpManagerMatchesDisabledManager(t *testing.T) {
	m := NoOpManager()
	if m.Enabled() {
		t.Fatal("NoOpManager must report disabled")
	}
}
