package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes inspected by the repository.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateUndefinedTable  = "42P01"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a duplicate job id on insert.
func IsUniqueViolation(err error) bool { return sqlState(err) == sqlStateUniqueViolation }

// IsUndefinedTable reports that generation_jobs is missing, i.e. EnsureSchema was not run.
func IsUndefinedTable(err error) bool { return sqlState(err) == sqlStateUndefinedTable }
