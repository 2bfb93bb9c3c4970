package formrecords

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/hausee/navigator-backend/internal/forms"
)

func encodeCached(rec forms.RawRecord) (datatypes.JSON, error) {
	b, err := json.Marshal(cachedValue{Payload: datatypes.JSON(rec.Payload), UpdatedAt: rec.UpdatedAt.UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeCached(b []byte) (*forms.RawRecord, error) {
	var v cachedValue
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &forms.RawRecord{Payload: []byte(v.Payload), UpdatedAt: v.UpdatedAt}, nil
}
