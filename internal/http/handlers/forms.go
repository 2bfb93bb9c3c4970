package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/http/response"
	"github.com/hausee/navigator-backend/internal/services"
)

type FormHandler struct {
	forms services.FormService
}

func NewFormHandler(formService services.FormService) *FormHandler {
	return &FormHandler{forms: formService}
}

// GET /api/modules
func (h *FormHandler) ListModules(c *gin.Context) {
	response.RespondOK(c, gin.H{"modules": h.forms.Modules()})
}

// GET /api/workspaces/:workspace_id/forms/:module
func (h *FormHandler) GetForm(c *gin.Context) {
	key, ae := scopeFromRequest(c, "")
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	v, err := h.forms.Get(c.Request.Context(), key)
	if err != nil {
		respondFormError(c, err, "load_form_failed")
		return
	}
	response.RespondOK(c, v)
}

// editRequest accepts either a batch or a single edit:
//
//	{"edits": [{"path": "...", "value": ...}]}
//	{"path": "...", "value": ...}
type editRequest struct {
	Edits []forms.FieldEdit `json:"edits"`
	Path  string            `json:"path"`
	Value json.RawMessage   `json:"value"`
}

func (r editRequest) fieldEdits() ([]forms.FieldEdit, error) {
	if len(r.Edits) > 0 {
		if r.Path != "" {
			return nil, errors.New("send either edits or path, not both")
		}
		return r.Edits, nil
	}
	if strings.TrimSpace(r.Path) == "" {
		return nil, errors.New("missing edits")
	}
	if len(r.Value) == 0 {
		return nil, errors.New("missing value")
	}
	return []forms.FieldEdit{{Path: r.Path, Value: r.Value}}, nil
}

// PATCH /api/workspaces/:workspace_id/forms/:module
func (h *FormHandler) EditForm(c *gin.Context) {
	key, ae := scopeFromRequest(c, "")
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	edits, err := req.fieldEdits()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := h.forms.Edit(c.Request.Context(), key, edits)
	if err != nil {
		respondFormError(c, err, "edit_form_failed")
		return
	}
	response.RespondOK(c, v)
}

// POST /api/workspaces/:workspace_id/forms/:module/reset
func (h *FormHandler) ResetForm(c *gin.Context) {
	key, ae := scopeFromRequest(c, "")
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	v, err := h.forms.Reset(c.Request.Context(), key)
	if err != nil {
		respondFormError(c, err, "reset_form_failed")
		return
	}
	response.RespondOK(c, v)
}

// POST /api/workspaces/:workspace_id/forms/:module/flush
func (h *FormHandler) FlushForm(c *gin.Context) {
	key, ae := scopeFromRequest(c, "")
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	v, err := h.forms.Flush(c.Request.Context(), key)
	if err != nil {
		respondFormError(c, err, "flush_form_failed")
		return
	}
	response.RespondOK(c, v)
}

// GET /api/workspaces/:workspace_id/forms/:module/status
func (h *FormHandler) FormStatus(c *gin.Context) {
	key, ae := scopeFromRequest(c, "")
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	st, err := h.forms.Status(c.Request.Context(), key)
	if err != nil {
		respondFormError(c, err, "form_status_failed")
		return
	}
	response.RespondOK(c, gin.H{"status": st})
}
