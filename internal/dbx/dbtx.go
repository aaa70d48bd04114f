// Package dbx holds the database plumbing shared by the Postgres
// repositories: the DBTX handle, transactions, connection setup and error
// translation into repository sentinels.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBTX is the subset of database/sql the repositories use.
// *sql.DB and *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; a panic is re-raised after the rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return m.Roles(tx).Create(ctx, role)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// Open connects to PostgreSQL through the pgx stdlib driver and checks the
// connection before returning.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
