package forms

import (
	"context"
	"time"
)

// Session is the module-agnostic view of a Holder used by transport code.
type Session interface {
	Key() ScopeKey
	SnapshotRaw() (RawRecord, error)
	EditRaw(edits ...FieldEdit) (RawRecord, error)
	ResetRaw(ctx context.Context) (RawRecord, error)
	Status() SaveStatus
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
	IdleSince() time.Time
}

var _ Session = (*Holder[struct{}])(nil)

func (h *Holder[P]) SnapshotRaw() (RawRecord, error) {
	return h.Snapshot().Raw()
}

func (h *Holder[P]) EditRaw(edits ...FieldEdit) (RawRecord, error) {
	rec, err := h.Edit(edits...)
	if err != nil {
		return RawRecord{}, err
	}
	return rec.Raw()
}

func (h *Holder[P]) ResetRaw(ctx context.Context) (RawRecord, error) {
	rec, err := h.Reset(ctx)
	if err != nil {
		return RawRecord{}, err
	}
	return rec.Raw()
}
