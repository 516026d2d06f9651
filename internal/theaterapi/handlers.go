package theaterapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stagehand/theater/internal/theaterapi/models"
	"github.com/stagehand/theater/internal/theaterapi/response"
	"github.com/stagehand/theater/internal/theaterapi/middleware"
	"github.com/stagehand/theater/pkg/theater"
)

var validate = validator.New()

// TheaterHandler exposes a *theater.Theater over HTTP: casting
// agents, playing gigs, and polling their fate.
type TheaterHandler struct {
	t        *theater.Theater
	roles    map[string]func(params any) theater.Role
	guards   map[string]theater.Guard
	defGuard theater.Guard
}

// NewTheaterHandler builds a handler backed by t. roles maps the
// role names a CastRequest may name to factories constructing them;
// guards optionally maps a role name to the Guard its agents should be
// supervised with (theater.DefaultGuard otherwise).
func NewTheaterHandler(t *theater.Theater, roles map[string]func(params any) theater.Role, guards map[string]theater.Guard) *TheaterHandler {
	return &TheaterHandler{t: t, roles: roles, guards: guards, defGuard: theater.DefaultGuard}
}

func (h *TheaterHandler) guardFor(role string) theater.Guard {
	if g, ok := h.guards[role]; ok {
		return g
	}
	return h.defGuard
}

// Cast handles POST /api/v1/agents.
func (h *TheaterHandler) Cast(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req models.CastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", requestID)
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.Error(w, http.StatusUnprocessableEntity, response.ErrCodeValidation, err.Error(), requestID)
		return
	}

	factory, ok := h.roles[req.Role]
	if !ok {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "unknown role: "+req.Role, requestID)
		return
	}

	var manager *theater.Agent
	if req.ManagerID != "" {
		a, ok := h.t.AgentByID(req.ManagerID)
		if !ok {
			response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "unknown manager_id", requestID)
			return
		}
		manager = a
	}

	child := h.t.Cast(manager, theater.Casting{RoleFactory: factory, Params: req.Params, Guard: h.guardFor(req.Role)})
	response.JSON(w, http.StatusCreated, models.CastResponse{AgentID: child.ID()})
}

// Play handles POST /api/v1/agents/{id}/gigs.
func (h *TheaterHandler) Play(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	agentID := chi.URLParam(r, "id")

	agent, ok := h.t.AgentByID(agentID)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "unknown agent id", requestID)
		return
	}

	var req models.PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", requestID)
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.Error(w, http.StatusUnprocessableEntity, response.ErrCodeValidation, err.Error(), requestID)
		return
	}

	gig := agent.Play(theater.Named(req.Selector), req.Params)
	response.JSON(w, http.StatusAccepted, gigResponse(gig))
}

// GetGig handles GET /api/v1/gigs/{id}.
func (h *TheaterHandler) GetGig(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	gig, ok := h.t.GigByID(chi.URLParam(r, "id"))
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "unknown gig id", requestID)
		return
	}
	response.JSON(w, http.StatusOK, gigResponse(gig))
}

// GetAgent handles GET /api/v1/agents/{id}.
func (h *TheaterHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	agent, ok := h.t.AgentByID(chi.URLParam(r, "id"))
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "unknown agent id", requestID)
		return
	}
	response.JSON(w, http.StatusOK, models.AgentResponse{AgentID: agent.ID(), Dead: agent.Dead()})
}

// Status handles GET /status.
func (h *TheaterHandler) Status(w http.ResponseWriter, r *http.Request) {
	s := h.t.Status()
	response.JSON(w, http.StatusOK, models.StatusResponse{
		Suspended: s.Suspended, Ready: s.Ready, Waiting: s.Waiting, Idle: s.Idle,
	})
}

// Health handles GET /health — liveness, always ok once the process
// is serving requests at all.
func (h *TheaterHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func gigResponse(g *theater.Gig) models.GigResponse {
	resp := models.GigResponse{GigID: g.ID()}
	if !g.Finished() {
		resp.State = "pending"
		return resp
	}
	resp.Finished = true
	resp.State = "finished"
	value, err := g.Fate()
	if err != nil {
		resp.Blooper = err.Error()
	} else {
		resp.Value = value
	}
	return resp
}
