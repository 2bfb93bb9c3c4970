package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hausee/navigator-backend/internal/data/repos/homerecords"
	"github.com/hausee/navigator-backend/internal/domain/homes"
	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/evaluation"
	"github.com/hausee/navigator-backend/internal/pkg/dbctx"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// HomeService manages the homes a user is evaluating. Each home's ID is
// the subject of its home-evaluation form.
type HomeService interface {
	List(ctx context.Context, scope homes.Scope) ([]homes.Home, error)
	Add(ctx context.Context, scope homes.Scope, in homes.NewHome) (*homes.Home, error)
	Update(ctx context.Context, scope homes.Scope, id uuid.UUID, patch homes.Patch) (*homes.Home, error)
	// Delete removes the home and drops any open evaluation session for it.
	Delete(ctx context.Context, scope homes.Scope, id uuid.UUID) error
	// EvaluationSubject is the forms.SubjectCheck for home evaluations.
	EvaluationSubject(ctx context.Context, key forms.ScopeKey) error
}

type homeService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     homerecords.HomeRepo
	registry *forms.Registry
}

func NewHomeService(db *gorm.DB, log *logger.Logger, registry *forms.Registry) HomeService {
	return &homeService{
		db:       db,
		log:      log.With("service", "HomeService"),
		repo:     homerecords.NewHomeRepo(db, log),
		registry: registry,
	}
}

func (s *homeService) List(ctx context.Context, scope homes.Scope) ([]homes.Home, error) {
	return s.repo.List(dbctx.New(ctx), scope)
}

func (s *homeService) Add(ctx context.Context, scope homes.Scope, in homes.NewHome) (*homes.Home, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row := &homes.Home{
		UserID:           scope.UserID,
		WorkspaceID:      scope.WorkspaceID,
		Address:          in.Address,
		Neighborhood:     in.Neighborhood,
		Price:            in.Price,
		Bedrooms:         in.Bedrooms,
		Bathrooms:        in.Bathrooms,
		YearBuilt:        in.YearBuilt,
		PropertyTaxes:    in.PropertyTaxes,
		SquareFootage:    in.SquareFootage,
		EvaluationStatus: homes.NotStarted,
	}
	if err := s.repo.Create(dbctx.New(ctx), row); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("home added", "home_id", row.ID.String())
	return row, nil
}

func (s *homeService) Update(ctx context.Context, scope homes.Scope, id uuid.UUID, patch homes.Patch) (*homes.Home, error) {
	cols, err := patch.Columns()
	if err != nil {
		return nil, err
	}
	var out *homes.Home
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if patch.CompareSelected != nil && *patch.CompareSelected {
			n, err := s.repo.CountCompareSelected(dbc, scope, id)
			if err != nil {
				return err
			}
			if n >= homes.MaxCompareSelected {
				return homes.ErrCompareLimit
			}
		}
		if len(cols) > 0 {
			if err := s.repo.Update(dbc, scope, id, cols); err != nil {
				return err
			}
		}
		out, err = s.repo.Get(dbc, scope, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *homeService) Delete(ctx context.Context, scope homes.Scope, id uuid.UUID) error {
	if err := s.repo.Delete(dbctx.New(ctx), scope, id); err != nil {
		return err
	}
	key := forms.ScopeKey{
		UserID:      scope.UserID,
		WorkspaceID: scope.WorkspaceID,
		Module:      evaluation.ModuleID,
		Subject:     id.String(),
	}
	if err := s.registry.Evict(ctx, key); err != nil {
		s.log.WithContext(ctx).Warn("evaluation flush after home delete failed", "home_id", id.String(), "error", err)
	}
	s.log.WithContext(ctx).Info("home deleted", "home_id", id.String())
	return nil
}

func (s *homeService) EvaluationSubject(ctx context.Context, key forms.ScopeKey) error {
	id, err := uuid.Parse(key.Subject)
	if err != nil {
		return fmt.Errorf("%w: subject %q is not a home ID", homes.ErrNotFound, key.Subject)
	}
	_, err = s.repo.Get(dbctx.New(ctx), homes.Scope{UserID: key.UserID, WorkspaceID: key.WorkspaceID}, id)
	return err
}
