package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/platform/apierr"
	"github.com/hausee/navigator-backend/internal/platform/ctxutil"
)

// PersonalWorkspace addresses a user's own workspace in routes.
const PersonalWorkspace = "personal"

// scopeFromRequest builds the scope key from the caller, the
// :workspace_id and :module params, and the ?subject= query.
func scopeFromRequest(c *gin.Context, module forms.ModuleID) (forms.ScopeKey, *apierr.Error) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return forms.ScopeKey{}, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	wsID, err := parseWorkspace(c.Param("workspace_id"))
	if err != nil {
		return forms.ScopeKey{}, apierr.New(http.StatusBadRequest, "invalid_workspace_id", err)
	}
	if module == "" {
		module = forms.ModuleID(strings.TrimSpace(c.Param("module")))
	}
	return forms.ScopeKey{
		UserID:      rd.UserID,
		WorkspaceID: wsID,
		Module:      module,
		Subject:     strings.TrimSpace(c.Query("subject")),
	}, nil
}

func parseWorkspace(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, PersonalWorkspace) {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("workspace_id must be a UUID or %q", PersonalWorkspace)
	}
	return id, nil
}
