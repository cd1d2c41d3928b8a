// Package driver defines the database capability queries execute against,
// and a database/sql implementation of it.
//
// The capability is deliberately small: connect with a source config,
// execute one statement at a time, iterate its rows, finish it. Callers
// own the lifetime of every Conn and Stmt they obtain and must release
// them with Close and Finish respectively.
package driver

import (
	"context"

	"github.com/rubythings/ruport/internal/source"
)

// Driver opens connections.
type Driver interface {
	Connect(ctx context.Context, cfg source.Config) (Conn, error)
}

// Conn is one open connection.
type Conn interface {
	// Execute runs a single statement and returns its handle.
	// The handle must be finished before the next Execute.
	Execute(ctx context.Context, query string, args ...any) (Stmt, error)
	Close() error
}

// Stmt is the handle of an executed statement.
//
// Iteration follows database/sql: call Next until it returns false, read
// each row with Row, then check Err.
type Stmt interface {
	// Fetchable reports whether the statement produced a row set.
	// Resultless statements (DDL, DML) are fully executed by Execute.
	Fetchable() bool
	Columns() []string
	Next() bool
	// Row returns the current row. The slice is owned by the caller.
	Row() []any
	Err() error
	// Finish releases the statement's resources. It is safe to call on a
	// partially consumed handle.
	Finish() error
}
