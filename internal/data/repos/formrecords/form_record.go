package formrecords

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hausee/navigator-backend/internal/domain/formstore"
	"github.com/hausee/navigator-backend/internal/pkg/dbctx"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

type FormRecordRepo interface {
	// Upsert inserts row or replaces the payload of the existing row with
	// the same (user_id, workspace_id, subject).
	Upsert(dbc dbctx.Context, table string, row *formstore.FormRecord) error
	// Get returns nil, nil when no row exists.
	Get(dbc dbctx.Context, table string, userID, workspaceID uuid.UUID, subject string) (*formstore.FormRecord, error)
}

type formRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormRecordRepo(db *gorm.DB, baseLog *logger.Logger) FormRecordRepo {
	return &formRecordRepo{
		db:  db,
		log: baseLog.With("repo", "FormRecordRepo"),
	}
}

var scopeColumns = []clause.Column{{Name: "user_id"}, {Name: "workspace_id"}, {Name: "subject"}}

func (r *formRecordRepo) Upsert(dbc dbctx.Context, table string, row *formstore.FormRecord) error {
	if err := formstore.ValidTable(table); err != nil {
		return err
	}
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
	err := dbc.DB(r.db).
		Table(table).
		Clauses(clause.OnConflict{
			Columns:   scopeColumns,
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(row).Error
	return MapError("upsert "+table, err)
}

func (r *formRecordRepo) Get(dbc dbctx.Context, table string, userID, workspaceID uuid.UUID, subject string) (*formstore.FormRecord, error) {
	if err := formstore.ValidTable(table); err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row formstore.FormRecord
	if err := dbc.DB(r.db).
		Table(table).
		Where("user_id = ? AND workspace_id = ? AND subject = ?", userID, workspaceID, subject).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, MapError("get "+table, err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
