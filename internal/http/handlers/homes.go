package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/domain/homes"
	"github.com/hausee/navigator-backend/internal/http/response"
	"github.com/hausee/navigator-backend/internal/platform/apierr"
	"github.com/hausee/navigator-backend/internal/platform/ctxutil"
	"github.com/hausee/navigator-backend/internal/services"
)

type HomeHandler struct {
	homes services.HomeService
}

func NewHomeHandler(homeService services.HomeService) *HomeHandler {
	return &HomeHandler{homes: homeService}
}

func homeScope(c *gin.Context) (homes.Scope, *apierr.Error) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return homes.Scope{}, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	wsID, err := parseWorkspace(c.Param("workspace_id"))
	if err != nil {
		return homes.Scope{}, apierr.New(http.StatusBadRequest, "invalid_workspace_id", err)
	}
	return homes.Scope{UserID: rd.UserID, WorkspaceID: wsID}, nil
}

func homeID(c *gin.Context) (uuid.UUID, *apierr.Error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("home_id")))
	if err != nil {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_home_id", err)
	}
	return id, nil
}

func homeError(err error, fallbackCode string) *apierr.Error {
	switch {
	case errors.Is(err, homes.ErrNotFound):
		return apierr.New(http.StatusNotFound, "home_not_found", err)
	case errors.Is(err, homes.ErrCompareLimit):
		return apierr.New(http.StatusConflict, "compare_limit", err)
	case errors.Is(err, homes.ErrInvalid):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_home", err)
	}
	return apierr.New(http.StatusInternalServerError, fallbackCode, err)
}

// GET /api/workspaces/:workspace_id/homes
func (h *HomeHandler) ListHomes(c *gin.Context) {
	scope, ae := homeScope(c)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	list, err := h.homes.List(c.Request.Context(), scope)
	if err != nil {
		respondAPIError(c, homeError(err, "list_homes_failed"))
		return
	}
	if list == nil {
		list = []homes.Home{}
	}
	response.RespondOK(c, gin.H{"homes": list})
}

// POST /api/workspaces/:workspace_id/homes
func (h *HomeHandler) AddHome(c *gin.Context) {
	scope, ae := homeScope(c)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	var req homes.NewHome
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	home, err := h.homes.Add(c.Request.Context(), scope, req)
	if err != nil {
		respondAPIError(c, homeError(err, "add_home_failed"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"home": home})
}

// PATCH /api/workspaces/:workspace_id/homes/:home_id
func (h *HomeHandler) UpdateHome(c *gin.Context) {
	scope, ae := homeScope(c)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	id, ae := homeID(c)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	var req homes.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	home, err := h.homes.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		respondAPIError(c, homeError(err, "update_home_failed"))
		return
	}
	response.RespondOK(c, gin.H{"home": home})
}

// DELETE /api/workspaces/:workspace_id/homes/:home_id
func (h *HomeHandler) DeleteHome(c *gin.Context) {
	scope, ae := homeScope(c)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	id, ae := homeID(c)
	if ae != nil {
		respondAPIError(c, ae)
		return
	}
	if err := h.homes.Delete(c.Request.Context(), scope, id); err != nil {
		respondAPIError(c, homeError(err, "delete_home_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}
