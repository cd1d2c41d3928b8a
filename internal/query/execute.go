package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rubythings/ruport/internal/driver"
	"github.com/rubythings/ruport/internal/sqltext"
	"github.com/rubythings/ruport/internal/table"
)

// Execute runs every statement for its side effects. Rows are drained and
// discarded. SQL without statements is a no-op that never connects.
func (q *Query) Execute(ctx context.Context) error {
	stmts := q.statements()
	if len(stmts) == 0 {
		return nil
	}
	return q.withConn(ctx, func(conn driver.Conn, logger *slog.Logger) error {
		for i, stmt := range stmts {
			err := q.runStmt(ctx, conn, logger, i, stmt, q.argsFor(i, len(stmts)), discard(i))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Result runs every statement and returns the last statement's rows.
// It returns a nil table when the last statement produces no row set, or
// when the SQL holds no statements.
func (q *Query) Result(ctx context.Context) (*table.Table, error) {
	stmts := q.statements()
	if len(stmts) == 0 {
		return nil, nil
	}
	var last *table.Table
	err := q.withConn(ctx, func(conn driver.Conn, logger *slog.Logger) error {
		for i, stmt := range stmts {
			err := q.runStmt(ctx, conn, logger, i, stmt, q.argsFor(i, len(stmts)), func(h driver.Stmt) error {
				t, err := q.drain(i, h)
				last = t
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

// Each streams rows to fn. An error from fn stops iteration and is
// returned as is.
//
// Under PolicyCompat a single-statement query streams all its rows on
// every call, while a multi-statement query streams one statement per
// call, stepping through the script and wrapping around. The statements
// ahead of the streamed one still run first, rows discarded, so a call
// sees their side effects. Under PolicyUniform every call streams the rows
// of every statement.
func (q *Query) Each(ctx context.Context, fn func(table.Row) error) error {
	if fn == nil {
		return fmt.Errorf("%w: Each requires a row callback", ErrUsage)
	}
	if q.policy == PolicyUniform {
		return q.eachAll(ctx, fn)
	}
	return q.eachStep(ctx, fn)
}

// eachStep streams the statement at the cursor after running the ones
// before it on the same connection. The cursor only advances when the
// call succeeds.
func (q *Query) eachStep(ctx context.Context, fn func(table.Row) error) error {
	stmts := q.statements()
	if len(stmts) == 0 {
		return nil
	}
	i := q.cursor % len(stmts)

	err := q.withConn(ctx, func(conn driver.Conn, logger *slog.Logger) error {
		for j := 0; j < i; j++ {
			err := q.runStmt(ctx, conn, logger, j, stmts[j], q.argsFor(j, len(stmts)), discard(j))
			if err != nil {
				return err
			}
		}
		return q.runStmt(ctx, conn, logger, i, stmts[i], q.argsFor(i, len(stmts)), func(h driver.Stmt) error {
			return q.stream(i, h, fn)
		})
	})
	if err != nil {
		return err
	}
	q.cursor = (i + 1) % len(stmts)
	return nil
}

// Seek positions the cursor so the next compat-mode Each call streams
// statement i, running statements 0 through i-1 first.
func (q *Query) Seek(i int) error {
	n := len(q.statements())
	if i < 0 || i >= n {
		return fmt.Errorf("%w: statement %d out of range [0, %d)", ErrUsage, i, n)
	}
	q.cursor = i
	return nil
}

// StatementCount returns the number of statements the SQL splits into.
func (q *Query) StatementCount() int {
	return len(q.statements())
}

func (q *Query) eachAll(ctx context.Context, fn func(table.Row) error) error {
	stmts := q.statements()
	if len(stmts) == 0 {
		return nil
	}
	return q.withConn(ctx, func(conn driver.Conn, logger *slog.Logger) error {
		for i, stmt := range stmts {
			err := q.runStmt(ctx, conn, logger, i, stmt, q.argsFor(i, len(stmts)), func(h driver.Stmt) error {
				return q.stream(i, h, fn)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (q *Query) statements() []string {
	return sqltext.Split(q.sql)
}

// argsFor returns the parameters statement i of n is executed with.
func (q *Query) argsFor(i, n int) []any {
	if q.policy == PolicyCompat && i != n-1 {
		return nil
	}
	return q.params
}

// withConn opens a connection to the effective source, runs fn, and closes
// the connection on every path. Connection and execution failures come
// back as a *RunError carrying the run id.
func (q *Query) withConn(ctx context.Context, fn func(driver.Conn, *slog.Logger) error) (err error) {
	cfg, err := q.EffectiveSource()
	if err != nil {
		return err
	}

	runID := uuid.Must(uuid.NewV7()).String()
	defer func() {
		if errors.Is(err, ErrConnection) || errors.Is(err, ErrExecution) {
			err = &RunError{RunID: runID, Err: err}
		}
	}()

	logger := q.logger.With("run_id", runID)
	logger.Debug("connecting", "source", q.name, "address", cfg.Address)

	conn, err := q.driver.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnection, cfg.Address, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close connection: %w", cerr))
		}
		logger.Debug("connection closed")
	}()

	return fn(conn, logger)
}

// runStmt executes statement i and hands its handle to fn. The handle is
// finished on every path once it exists. A failed Execute yields no handle,
// so the driver releases whatever that statement acquired.
func (q *Query) runStmt(ctx context.Context, conn driver.Conn, logger *slog.Logger, i int, stmt string, args []any, fn func(driver.Stmt) error) (err error) {
	logger.Debug("executing statement", "statement", i+1, "args", len(args))

	h, err := conn.Execute(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%w: statement %d: %w", ErrExecution, i+1, err)
	}
	defer func() {
		if ferr := h.Finish(); ferr != nil {
			err = errors.Join(err, fmt.Errorf("finish statement %d: %w", i+1, ferr))
		}
		logger.Debug("statement finished", "statement", i+1)
	}()

	return fn(h)
}

// drain materializes h. It returns nil for a resultless statement.
func (q *Query) drain(i int, h driver.Stmt) (*table.Table, error) {
	if !h.Fetchable() {
		return nil, nil
	}
	t := table.New(h.Columns(), q.rowMode)
	for h.Next() {
		if err := t.Append(h.Row()); err != nil {
			return nil, fmt.Errorf("%w: statement %d: %w", ErrExecution, i+1, err)
		}
	}
	if err := iterErr(i, h); err != nil {
		return nil, err
	}
	return t, nil
}

// stream hands each row of h to fn. Resultless statements produce no calls.
func (q *Query) stream(i int, h driver.Stmt, fn func(table.Row) error) error {
	if !h.Fetchable() {
		return nil
	}
	header := table.HeaderFor(h.Columns(), q.rowMode)
	for h.Next() {
		if err := fn(table.NewRow(h.Row(), header)); err != nil {
			return err
		}
	}
	return iterErr(i, h)
}

// discard drains statement i, dropping its rows.
func discard(i int) func(driver.Stmt) error {
	return func(h driver.Stmt) error {
		for h.Next() {
		}
		return iterErr(i, h)
	}
}

func iterErr(i int, h driver.Stmt) error {
	if err := h.Err(); err != nil {
		return fmt.Errorf("%w: statement %d: %w", ErrExecution, i+1, err)
	}
	return nil
}
