package services

import (
	"context"
	"errors"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/agentmatch"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// AgentRequestService moves the agent matching wizard between steps.
// Step moves are debounced like any edit; submit is written through.
type AgentRequestService interface {
	Apply(ctx context.Context, key forms.ScopeKey, action agentmatch.Action) (*FormView, error)
}

type agentRequestService struct {
	log      *logger.Logger
	registry *forms.Registry
	now      func() time.Time
}

func NewAgentRequestService(log *logger.Logger, registry *forms.Registry) AgentRequestService {
	return &agentRequestService{
		log:      log.With("service", "AgentRequestService"),
		registry: registry,
		now:      time.Now,
	}
}

func (s *agentRequestService) Apply(ctx context.Context, key forms.ScopeKey, action agentmatch.Action) (*FormView, error) {
	key.Module = agentmatch.ModuleID
	if action.Event == agentmatch.EventSubmit && action.At.IsZero() {
		action.At = s.now()
	}

	for attempt := 0; ; attempt++ {
		h, err := forms.OpenHolder[agentmatch.Request](ctx, s.registry, key)
		if err != nil {
			return nil, err
		}
		var rec forms.Record[agentmatch.Request]
		if action.Event == agentmatch.EventSubmit {
			rec, err = h.Commit(ctx, action.Func(ctx))
		} else {
			rec, err = h.Update(action.Func(ctx))
		}
		if errors.Is(err, forms.ErrClosed) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		if action.Event == agentmatch.EventSubmit {
			s.log.WithContext(ctx).Info("agent request submitted", "user_id", key.UserID.String(), "workspace_id", key.WorkspaceID.String())
		}
		raw, err := rec.Raw()
		if err != nil {
			return nil, err
		}
		return &FormView{Record: raw, Status: h.Status()}, nil
	}
}
