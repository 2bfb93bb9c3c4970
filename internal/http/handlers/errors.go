package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hausee/navigator-backend/internal/domain/homes"
	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/http/response"
	"github.com/hausee/navigator-backend/internal/modules/agentmatch"
	"github.com/hausee/navigator-backend/internal/platform/apierr"
)

// formError maps form and wizard errors onto API errors. Anything it does
// not recognise is a 500 with fallbackCode.
func formError(err error, fallbackCode string) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	var se agentmatch.StepErrors
	switch {
	case errors.Is(err, agentmatch.ErrSubmitted):
		return apierr.New(http.StatusConflict, "already_submitted", err)
	case errors.Is(err, agentmatch.ErrInvalidStep):
		return apierr.New(http.StatusConflict, "invalid_step", err)
	case errors.As(err, &se):
		return apierr.New(http.StatusUnprocessableEntity, "step_incomplete", err).WithFields(se)
	case errors.Is(err, forms.ErrInvalidEdit):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_edit", err)
	case errors.Is(err, forms.ErrUnknownModule):
		return apierr.New(http.StatusNotFound, "unknown_module", err)
	case errors.Is(err, homes.ErrNotFound):
		return apierr.New(http.StatusNotFound, "home_not_found", err)
	case errors.Is(err, forms.ErrInvalidScope):
		return apierr.New(http.StatusBadRequest, "invalid_scope", err)
	case errors.Is(err, forms.ErrClosed):
		return apierr.New(http.StatusServiceUnavailable, "shutting_down", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "timeout", err)
	}
	return apierr.New(http.StatusInternalServerError, fallbackCode, err)
}

func respondFormError(c *gin.Context, err error, fallbackCode string) {
	respondAPIError(c, formError(err, fallbackCode))
}

func respondAPIError(c *gin.Context, ae *apierr.Error) {
	response.RespondFieldErrors(c, ae.Status, ae.Code, ae.Err, ae.Fields)
}
