package formrecords

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/hausee/navigator-backend/internal/domain/formstore"
	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/pkg/dbctx"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// RemoteStore exposes FormRecordRepo as a forms.RemoteStore.
type RemoteStore struct {
	repo   FormRecordRepo
	log    *logger.Logger
	tracer trace.Tracer
}

func NewRemoteStore(repo FormRecordRepo, baseLog *logger.Logger) *RemoteStore {
	return &RemoteStore{
		repo:   repo,
		log:    baseLog.With("service", "RemoteFormStore"),
		tracer: otel.Tracer("hausee/forms"),
	}
}

func spanAttrs(table string, key forms.ScopeKey) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("forms.table", table),
		attribute.String("forms.module", string(key.Module)),
		attribute.Bool("forms.has_subject", key.Subject != ""),
	)
}

func (s *RemoteStore) Upsert(ctx context.Context, table string, key forms.ScopeKey, rec forms.RawRecord) error {
	ctx, span := s.tracer.Start(ctx, "forms.remote.upsert", spanAttrs(table, key))
	defer span.End()

	row := &formstore.FormRecord{
		UserID:      key.UserID,
		WorkspaceID: key.WorkspaceID,
		Subject:     key.Subject,
		Payload:     datatypes.JSON(rec.Payload),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
	if err := s.repo.Upsert(dbctx.New(ctx), table, row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return err
	}
	return nil
}

func (s *RemoteStore) Get(ctx context.Context, table string, key forms.ScopeKey) (*forms.RawRecord, error) {
	ctx, span := s.tracer.Start(ctx, "forms.remote.get", spanAttrs(table, key))
	defer span.End()

	row, err := s.repo.Get(dbctx.New(ctx), table, key.UserID, key.WorkspaceID, key.Subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("forms.found", row != nil))
	if row == nil {
		return nil, nil
	}
	return &forms.RawRecord{Payload: []byte(row.Payload), UpdatedAt: row.UpdatedAt}, nil
}
