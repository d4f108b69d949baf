package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/energy-backoffice/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error, conflict string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.WrapError(domain.ErrCodeConflict, conflict, err)
		case pgForeignKeyViolation:
			return domain.WrapError(domain.ErrCodeInvalid, "referenced row does not exist", err)
		}
	}
	return err
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
