package pg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
)

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// onConstraint translates a failed write into a typed domain error when the
// violated constraint name has a mapping. Any other error, and any constraint
// not in the table, passes through unchanged.
func onConstraint(err error, constraints map[string]error) error {
	if err == nil {
		return nil
	}
	pgErr, ok := maybePgError(err)
	if !ok {
		return err
	}
	if pgErr.Code != pgErrUniqueViolation && pgErr.Code != pgErrCheckViolation {
		return err
	}
	if mapped, ok := constraints[pgErr.ConstraintName]; ok {
		return mapped
	}
	return err
}
