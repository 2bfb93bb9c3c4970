package forms

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ModuleID names one persisted form module, e.g. "budget-planner".
type ModuleID string

// ScopeKey addresses exactly one persisted record. Subject is empty for
// singleton modules and identifies the instance (a home) otherwise.
type ScopeKey struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Module      ModuleID
	Subject     string
}

func (k ScopeKey) String() string {
	s := fmt.Sprintf("%s/%s/%s", k.Module, k.UserID, k.WorkspaceID)
	if k.Subject != "" {
		s += "/" + k.Subject
	}
	return s
}

// CacheKey builds the local cache key: <prefix>_<user>[_<workspace>][_<subject>].
func (k ScopeKey) CacheKey(prefix string) string {
	parts := []string{prefix, k.UserID.String()}
	if k.WorkspaceID != uuid.Nil {
		parts = append(parts, k.WorkspaceID.String())
	}
	if k.Subject != "" {
		parts = append(parts, k.Subject)
	}
	return strings.Join(parts, "_")
}

func (k ScopeKey) validate() error {
	if k.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing user", ErrInvalidScope)
	}
	if k.Module == "" {
		return fmt.Errorf("%w: missing module", ErrInvalidScope)
	}
	return nil
}

// logFields returns the key as logger key/value pairs.
func (k ScopeKey) logFields() []interface{} {
	kv := []interface{}{"module", string(k.Module), "user_id", k.UserID.String(), "workspace_id", k.WorkspaceID.String()}
	if k.Subject != "" {
		kv = append(kv, "subject", k.Subject)
	}
	return kv
}
