// Package sqlxrepos is the PostgreSQL store, built on sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type DB struct {
	db *sqlx.DB
}

var _ storage.Store = (*DB)(nil)

// New wraps an open connection pool. Migrations are expected to be applied.
func New(db *sqlx.DB) *DB {
	return &DB{db: db}
}

func (db *DB) Users() user.Repository { return NewUserRepository(db.db) }
func (db *DB) School() school.Repository { return NewSchoolRepository(db.db) }
func (db *DB) Analytics() analytics.Repository { return NewAnalyticsRepository(db.db) }
func (db *DB) Close() error { return db.db.Close() }

const (
	uniqueViolation     = pq.ErrorCode("23505")
	notNullViolation    = pq.ErrorCode("23502")
	checkViolation      = pq.ErrorCode("23514")
	usernameUniqueIndex = "users_username_key"
)

// connErr turns a lost connection into a core shutdown error.
func connErr(err error) error {
	if err == nil {
		return nil
	}
	var opErr *net.OpError
	if errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &opErr) {
		return core.NewShutdownError("database connection lost: " + err.Error())
	}
	return err
}

// mapErr translates constraint violations into domain errors.
func mapErr(err error) error {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		if pqErr.Constraint == usernameUniqueIndex {
			return user.ErrUsernameExists
		}
	case notNullViolation:
		var flds []core.FieldError
		if pqErr.Column != "" {
			flds = append(flds, core.FieldError{Field: pqErr.Column, Error: "this field is required"})
		}
		return core.NewValidationError(errors.Wrap(storage.ErrInvalidInput, pqErr.Message), flds...)
	case checkViolation:
		return core.NewValidationError(errors.Wrap(storage.ErrInvalidInput, pqErr.Message))
	}
	return err
}

// getExec returns the transaction when one is given, else the pool.
func getExec(db core.DBExecutor, exec ...core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return db
}

func insertReturningID(ctx context.Context, exec core.DBExecutor, b sq.InsertBuilder) (int, error) {
	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building insert")
	}
	var id int
	if err = exec.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapErr(connErr(err))
	}
	return id, nil
}

// getOne reports false, without error, when no row matches.
func getOne(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.SelectBuilder) (bool, error) {
	query, args, err := b.Limit(1).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building select")
	}
	if err = exec.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, connErr(err)
	}
	return true, nil
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.SelectBuilder) error {
	query, args, err := b.OrderBy("id").ToSql()
	if err != nil {
		return errors.Wrap(err, "building select")
	}
	return connErr(exec.SelectContext(ctx, dest, query, args...))
}
