package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Record is one module's payload plus the time of its last edit.
type Record[P any] struct {
	Payload   P         `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawRecord is the serialized Record handed to storage.
type RawRecord struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r Record[P]) Raw() (RawRecord, error) {
	b, err := json.Marshal(r.Payload)
	if err != nil {
		return RawRecord{}, fmt.Errorf("encode payload: %w", err)
	}
	return RawRecord{Payload: b, UpdatedAt: r.UpdatedAt}, nil
}

// Decode parses a RawRecord into a typed Record. Unknown fields are
// rejected so a record written by a different module never loads.
func Decode[P any](raw RawRecord) (Record[P], error) {
	var p P
	if len(bytes.TrimSpace(raw.Payload)) == 0 || bytes.Equal(bytes.TrimSpace(raw.Payload), []byte("null")) {
		return Record[P]{}, fmt.Errorf("empty payload")
	}
	if err := decodeStrict(raw.Payload, &p); err != nil {
		return Record[P]{}, err
	}
	return Record[P]{Payload: p, UpdatedAt: raw.UpdatedAt}, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func clonePayload[P any](p P) (P, error) {
	var out P
	b, err := json.Marshal(p)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}
