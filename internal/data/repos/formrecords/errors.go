package formrecords

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hausee/navigator-backend/internal/forms"
)

// MapError wraps transient database failures with forms.ErrStoreUnavailable
// so the save status can report them as retryable. Other postgres errors
// keep their SQLSTATE in the message.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, errors.Join(forms.ErrStoreUnavailable, err))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03", "57P01":
			return fmt.Errorf("%s: %w", op, errors.Join(forms.ErrStoreUnavailable, err)) // serialization/deadlock/lock/admin shutdown
		}
		return fmt.Errorf("%s: sqlstate %s: %w", op, pgErr.Code, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%s: %w", op, errors.Join(forms.ErrStoreUnavailable, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
