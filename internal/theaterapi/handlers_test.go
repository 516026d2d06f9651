package theaterapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand/theater/internal/theaterapi/models"
	"github.com/stagehand/theater/internal/theaterapi/response"
	"github.com/stagehand/theater/pkg/theater"
)

type echoRole struct{}

func (echoRole) SceneTable() map[string]theater.SceneFactory {
	return map[string]theater.SceneFactory{
		"echo": theater.Func(func(_ theater.Role, params any, _ theater.Yield) (any, error) {
			return params, nil
		}),
	}
}

func newTestHandler() (*theater.Theater, *TheaterHandler) {
	th := theater.New()
	roles := map[string]func(params any) theater.Role{
		"echo": func(any) theater.Role { return echoRole{} },
	}
	return th, NewTheaterHandler(th, roles, nil)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCastRejectsUnknownRole(t *testing.T) {
	_, h := newTestHandler()

	body, err := json.Marshal(models.CastRequest{Role: "no-such-role"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Cast(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, response.ErrCodeBadRequest, errResp.Error.Code)
}

func TestCastRejectsMissingRoleField(t *testing.T) {
	_, h := newTestHandler()

	body, err := json.Marshal(models.CastRequest{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Cast(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCastSucceedsAndAgentBecomesLookupable(t *testing.T) {
	th, h := newTestHandler()

	body, err := json.Marshal(models.CastRequest{Role: "echo"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Cast(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var castResp models.CastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &castResp))
	assert.NotEmpty(t, castResp.AgentID)

	_, ok := th.AgentByID(castResp.AgentID)
	assert.True(t, ok, "expected the cast agent to be registered for lookup")
}

func TestCastRejectsUnknownManagerID(t *testing.T) {
	_, h := newTestHandler()

	body, err := json.Marshal(models.CastRequest{Role: "echo", ManagerID: "no-such-agent"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Cast(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayAgainstUnknownAgentReturnsNotFound(t *testing.T) {
	_, h := newTestHandler()

	body, err := json.Marshal(models.PlayRequest{Selector: "echo"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/ghost/gigs", bytes.NewReader(body))
	req = withURLParam(req, "id", "ghost")
	w := httptest.NewRecorder()
	h.Play(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayThenGetGigReportsFate(t *testing.T) {
	th, h := newTestHandler()
	agent := th.Cast(nil, theater.Casting{RoleFactory: func(any) theater.Role { return echoRole{} }})

	body, err := json.Marshal(models.PlayRequest{Selector: "echo", Params: "hello"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/"+agent.ID()+"/gigs", bytes.NewReader(body))
	req = withURLParam(req, "id", agent.ID())
	w := httptest.NewRecorder()
	h.Play(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	var playResp models.GigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &playResp))
	require.NotEmpty(t, playResp.GigID)

	gig, ok := th.GigByID(playResp.GigID)
	require.True(t, ok)
	gig.Await(context.Background())

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/gigs/"+playResp.GigID, nil)
	getReq = withURLParam(getReq, "id", playResp.GigID)
	getW := httptest.NewRecorder()
	h.GetGig(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)

	var gigResp models.GigResponse
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &gigResp))
	assert.True(t, gigResp.Finished)
	assert.Equal(t, "finished", gigResp.State)
	assert.Equal(t, "hello", gigResp.Value)
}

func TestGetAgentReportsLiveness(t *testing.T) {
	th, h := newTestHandler()
	agent := th.Cast(nil, theater.Casting{RoleFactory: func(any) theater.Role { return echoRole{} }})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+agent.ID(), nil)
	req = withURLParam(req, "id", agent.ID())
	w := httptest.NewRecorder()
	h.GetAgent(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var agentResp models.AgentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agentResp))
	assert.Equal(t, agent.ID(), agentResp.AgentID)
	assert.False(t, agentResp.Dead)
}

func TestHealthAlwaysOK(t *testing.T) {
	_, h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusReportsNonNegativeCounts(t *testing.T) {
	_, h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	h.Status(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var statusResp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statusResp))
	assert.GreaterOrEqual(t, statusResp.Suspended, 0)
	assert.GreaterOrEqual(t, statusResp.Ready, 0)
}
