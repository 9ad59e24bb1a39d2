package shortener

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	shortCodeConstraint = "links_pkey"
)

func isShortCodeUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == shortCodeConstraint
}
