package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hausee/navigator-backend/internal/http/response"
	"github.com/hausee/navigator-backend/internal/modules/agentmatch"
	"github.com/hausee/navigator-backend/internal/services"
)

type AgentRequestHandler struct {
	requests services.AgentRequestService
}

func NewAgentRequestHandler(requests services.AgentRequestService) *AgentRequestHandler {
	return &AgentRequestHandler{requests: requests}
}

func (h *AgentRequestHandler) apply(c *gin.Context, action agentmatch.Action) {
	key, ae := scopeFromRequest(c, agentmatch.ModuleID)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	v, err := h.requests.Apply(c.Request.Context(), key, action)
	if err != nil {
		respondFormError(c, err, "agent_request_failed")
		return
	}
	response.RespondOK(c, v)
}

// POST /api/workspaces/:workspace_id/agent-request/next
func (h *AgentRequestHandler) Next(c *gin.Context) {
	h.apply(c, agentmatch.Action{Event: agentmatch.EventNext})
}

// POST /api/workspaces/:workspace_id/agent-request/back
func (h *AgentRequestHandler) Back(c *gin.Context) {
	h.apply(c, agentmatch.Action{Event: agentmatch.EventBack})
}

// POST /api/workspaces/:workspace_id/agent-request/goto
// body: { "step": 1..4 }
func (h *AgentRequestHandler) GoTo(c *gin.Context) {
	var req struct {
		Step int `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.apply(c, agentmatch.Action{Event: agentmatch.EventGoTo, Step: req.Step})
}

// POST /api/workspaces/:workspace_id/agent-request/submit
func (h *AgentRequestHandler) Submit(c *gin.Context) {
	h.apply(c, agentmatch.Action{Event: agentmatch.EventSubmit})
}
