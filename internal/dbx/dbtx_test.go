package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS roles (id INTEGER PRIMARY KEY, name TEXT UNIQUE)`)
	require.NoError(t, err)
	return db
}

func countRoles(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM roles`).Scan(&n))
	return n
}

func TestWithTx_Commit(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO roles(name) VALUES ('Admin')`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO roles(name) VALUES ('Client')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, countRoles(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO roles(name) VALUES ('Admin')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	assert.Equal(t, 0, countRoles(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		require.NotNil(t, recover(), "panic must propagate")
		assert.Equal(t, 0, countRoles(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO roles(name) VALUES ('Admin')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil))
	assert.ErrorIs(t, Translate(sql.ErrNoRows), common.ErrorNotFound)

	conflict := Translate(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.ErrorIs(t, conflict, common.ErrorConflict)
	assert.Contains(t, conflict.Error(), "users_email_key")

	other := Translate(&pgconn.PgError{Code: "23503"})
	assert.NotErrorIs(t, other, common.ErrorConflict)
	assert.Contains(t, other.Error(), "db error")
}

func TestExpectAffected(t *testing.T) {
	assert.NoError(t, ExpectAffected(sqlmock.NewResult(0, 1)))
	assert.ErrorIs(t, ExpectAffected(sqlmock.NewResult(0, 0)), common.ErrorNotFound)
	assert.Error(t, ExpectAffected(sqlmock.NewErrorResult(errors.New("no count"))))
}
