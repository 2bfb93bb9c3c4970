// Package homerecords stores the homes table.
package homerecords

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hausee/navigator-backend/internal/data/repos/formrecords"
	"github.com/hausee/navigator-backend/internal/domain/homes"
	"github.com/hausee/navigator-backend/internal/pkg/dbctx"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

type HomeRepo interface {
	Create(dbc dbctx.Context, row *homes.Home) error
	// List returns the newest homes first.
	List(dbc dbctx.Context, scope homes.Scope) ([]homes.Home, error)
	// Get returns homes.ErrNotFound when id is not in scope.
	Get(dbc dbctx.Context, scope homes.Scope, id uuid.UUID) (*homes.Home, error)
	Update(dbc dbctx.Context, scope homes.Scope, id uuid.UUID, cols map[string]interface{}) error
	Delete(dbc dbctx.Context, scope homes.Scope, id uuid.UUID) error
	// CountCompareSelected counts selected homes other than exclude.
	CountCompareSelected(dbc dbctx.Context, scope homes.Scope, exclude uuid.UUID) (int64, error)
}

type homeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHomeRepo(db *gorm.DB, baseLog *logger.Logger) HomeRepo {
	return &homeRepo{
		db:  db,
		log: baseLog.With("repo", "HomeRepo"),
	}
}

func (r *homeRepo) scoped(dbc dbctx.Context, scope homes.Scope) *gorm.DB {
	return dbc.DB(r.db).
		Model(&homes.Home{}).
		Where("user_id = ? AND workspace_id = ?", scope.UserID, scope.WorkspaceID)
}

func (r *homeRepo) Create(dbc dbctx.Context, row *homes.Home) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	if row.EvaluationStatus == "" {
		row.EvaluationStatus = homes.NotStarted
	}
	return formrecords.MapError("insert home", dbc.DB(r.db).Create(row).Error)
}

func (r *homeRepo) List(dbc dbctx.Context, scope homes.Scope) ([]homes.Home, error) {
	var out []homes.Home
	if err := r.scoped(dbc, scope).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, formrecords.MapError("list homes", err)
	}
	return out, nil
}

func (r *homeRepo) Get(dbc dbctx.Context, scope homes.Scope, id uuid.UUID) (*homes.Home, error) {
	var row homes.Home
	err := r.scoped(dbc, scope).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, homes.ErrNotFound
	}
	if err != nil {
		return nil, formrecords.MapError("get home", err)
	}
	return &row, nil
}

func (r *homeRepo) Update(dbc dbctx.Context, scope homes.Scope, id uuid.UUID, cols map[string]interface{}) error {
	updates := make(map[string]interface{}, len(cols)+1)
	for k, v := range cols {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.scoped(dbc, scope).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return formrecords.MapError("update home", res.Error)
	}
	if res.RowsAffected == 0 {
		return homes.ErrNotFound
	}
	return nil
}

func (r *homeRepo) Delete(dbc dbctx.Context, scope homes.Scope, id uuid.UUID) error {
	res := dbc.DB(r.db).
		Where("user_id = ? AND workspace_id = ? AND id = ?", scope.UserID, scope.WorkspaceID, id).
		Delete(&homes.Home{})
	if res.Error != nil {
		return formrecords.MapError("delete home", res.Error)
	}
	if res.RowsAffected == 0 {
		return homes.ErrNotFound
	}
	return nil
}

func (r *homeRepo) CountCompareSelected(dbc dbctx.Context, scope homes.Scope, exclude uuid.UUID) (int64, error) {
	var n int64
	err := r.scoped(dbc, scope).
		Where("compare_selected = ? AND id <> ?", true, exclude).
		Count(&n).Error
	if err != nil {
		return 0, formrecords.MapError("count compared homes", err)
	}
	return n, nil
}
