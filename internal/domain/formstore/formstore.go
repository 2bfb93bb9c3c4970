package formstore

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormRecord is one row of a module table. Every module table has this
// shape; the table name is chosen per query. Subject is "" for modules
// that are not keyed per instance.
type FormRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	WorkspaceID uuid.UUID      `gorm:"type:uuid;not null" json:"workspace_id"`
	Subject     string         `gorm:"column:subject;type:text;not null;default:''" json:"subject"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

// CacheEntry is the device-local copy of a record, keyed by cache key.
type CacheEntry struct {
	Key       string         `gorm:"column:cache_key;primaryKey" json:"cache_key"`
	Value     datatypes.JSON `gorm:"column:value;not null" json:"value"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (CacheEntry) TableName() string { return "form_cache_entries" }

// ErrBadTable rejects table names that are not plain identifiers.
var ErrBadTable = errors.New("invalid form table name")

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ValidTable reports whether name is safe to interpolate as a table.
func ValidTable(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadTable, name)
	}
	return nil
}
