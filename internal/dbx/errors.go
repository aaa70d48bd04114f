package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const uniqueViolation = "23505"

// Translate maps driver errors onto the repository sentinels: no rows
// becomes common.ErrorNotFound and a unique violation becomes
// common.ErrorConflict. Anything else is wrapped as a db error.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

// ExpectAffected returns common.ErrorNotFound when an UPDATE or DELETE
// touched no rows.
func ExpectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
