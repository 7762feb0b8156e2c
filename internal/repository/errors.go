package repository

import (
	"errors"

	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isRetryable reports whether the transaction failed on a serialization
// conflict and can be run again.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// constraintError turns unique and exclusion violations into a Conflict and
// returns nil for anything else.
func constraintError(err error, message string) error {
	switch pgCode(err) {
	case pgUniqueViolation, pgExclusionViolation:
		return domain.NewConflictError(message)
	}
	return nil
}
