package forms

import "time"

type SaveState string

const (
	SaveIdle    SaveState = "idle"
	SavePending SaveState = "pending"
	SaveSaving  SaveState = "saving"
	SaveSaved   SaveState = "saved"
	SaveFailed  SaveState = "failed"
)

// SaveStatus drives the "saving… / saved" indicator.
type SaveStatus struct {
	State       SaveState  `json:"state"`
	LastSavedAt *time.Time `json:"last_saved_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	// Retryable is set when the last failure was transient.
	Retryable bool `json:"retryable,omitempty"`
}

// SaveObserver receives the outcome of every remote write.
type SaveObserver interface {
	ObserveFormSave(module string, err error, dur time.Duration)
}
