package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/interview-retrieval-api/internal/models"
)

// wrapError translates driver-level failures into the error taxonomy:
// foreign key violations become ErrNotFound (the referenced parent is
// missing), check violations become ValidationError, connection-class
// failures become ErrStorageUnavailable. Everything else is wrapped as-is.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23503":
			return fmt.Errorf("%s: %w: %v", op, models.ErrNotFound, err)
		case pqErr.Code == "23514":
			return fmt.Errorf("%s: %w", op, &models.ValidationError{
				Field:  pqErr.Constraint,
				Reason: "constraint violated",
			})
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			return fmt.Errorf("%s: %w: %v", op, models.ErrStorageUnavailable, err)
		}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %v", op, models.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
