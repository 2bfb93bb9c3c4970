package services

import (
	"context"
	"errors"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// FormView is what every form endpoint returns.
type FormView struct {
	Record forms.RawRecord  `json:"record"`
	Status forms.SaveStatus `json:"status"`
}

type FormService interface {
	Modules() []forms.ModuleInfo
	Get(ctx context.Context, key forms.ScopeKey) (*FormView, error)
	Edit(ctx context.Context, key forms.ScopeKey, edits []forms.FieldEdit) (*FormView, error)
	Reset(ctx context.Context, key forms.ScopeKey) (*FormView, error)
	// Flush forces the pending edit out. A failed remote write is
	// reported through the returned status, not as an error.
	Flush(ctx context.Context, key forms.ScopeKey) (*FormView, error)
	Status(ctx context.Context, key forms.ScopeKey) (forms.SaveStatus, error)
}

type formService struct {
	log      *logger.Logger
	registry *forms.Registry
}

func NewFormService(log *logger.Logger, registry *forms.Registry) FormService {
	return &formService{
		log:      log.With("service", "FormService"),
		registry: registry,
	}
}

func (s *formService) Modules() []forms.ModuleInfo {
	return s.registry.Modules()
}

// withSession runs fn against the live session for key. A session the
// idle sweep closed between Open and fn is reopened once.
func withSession[T any](ctx context.Context, r *forms.Registry, key forms.ScopeKey, fn func(forms.Session) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		sess, err := r.Open(ctx, key)
		if err != nil {
			return zero, err
		}
		out, err := fn(sess)
		if errors.Is(err, forms.ErrClosed) && attempt == 0 {
			continue
		}
		return out, err
	}
}

func view(sess forms.Session, rec forms.RawRecord) *FormView {
	return &FormView{Record: rec, Status: sess.Status()}
}

func (s *formService) Get(ctx context.Context, key forms.ScopeKey) (*FormView, error) {
	return withSession(ctx, s.registry, key, func(sess forms.Session) (*FormView, error) {
		rec, err := sess.SnapshotRaw()
		if err != nil {
			return nil, err
		}
		return view(sess, rec), nil
	})
}

func (s *formService) Edit(ctx context.Context, key forms.ScopeKey, edits []forms.FieldEdit) (*FormView, error) {
	return withSession(ctx, s.registry, key, func(sess forms.Session) (*FormView, error) {
		rec, err := sess.EditRaw(edits...)
		if err != nil {
			return nil, err
		}
		return view(sess, rec), nil
	})
}

func (s *formService) Reset(ctx context.Context, key forms.ScopeKey) (*FormView, error) {
	return withSession(ctx, s.registry, key, func(sess forms.Session) (*FormView, error) {
		rec, err := sess.ResetRaw(ctx)
		if err != nil {
			return nil, err
		}
		s.log.WithContext(ctx).Info("form reset", "module", string(key.Module), "user_id", key.UserID.String())
		return view(sess, rec), nil
	})
}

func (s *formService) Flush(ctx context.Context, key forms.ScopeKey) (*FormView, error) {
	return withSession(ctx, s.registry, key, func(sess forms.Session) (*FormView, error) {
		if err := sess.Flush(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WithContext(ctx).Warn("explicit flush failed", "module", string(key.Module), "error", err)
		}
		rec, err := sess.SnapshotRaw()
		if err != nil {
			return nil, err
		}
		return view(sess, rec), nil
	})
}

func (s *formService) Status(ctx context.Context, key forms.ScopeKey) (forms.SaveStatus, error) {
	return withSession(ctx, s.registry, key, func(sess forms.Session) (forms.SaveStatus, error) {
		return sess.Status(), nil
	})
}
