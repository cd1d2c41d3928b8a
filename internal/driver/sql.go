package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rubythings/ruport/internal/source"
)

// SQL implements Driver over database/sql.
//
// Addresses starting with postgres:// or postgresql:// are opened through
// pgx with the source's User and Credential applied. Every other address
// is handed to go-sqlite3 as a DSN; User and Credential are ignored.
//
// Each Connect opens a dedicated single-connection pool that is torn down
// by Conn.Close. Nothing is shared between connections.
type SQL struct {
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

var _ Driver = SQL{}

// sqlitePragmas are applied to every SQLite connection.
var sqlitePragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Connect opens a connection for cfg and verifies it is reachable.
func (d SQL) Connect(ctx context.Context, cfg source.Config) (Conn, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, dialect, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	// One connection per Connect; statements of a script share it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Pin the connection so SQLite temp tables and session state
	// survive from one statement to the next
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// Verify connection works
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Pragmas are per connection in SQLite
	if dialect == dialectSQLite {
		if err := applyPragmas(ctx, conn); err != nil {
			conn.Close()
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	logger.Debug("connection opened", "dialect", dialect)
	return &sqlConn{db: db, conn: conn}, nil
}

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "postgres"
)

func isPostgres(address string) bool {
	return strings.HasPrefix(address, "postgres://") || strings.HasPrefix(address, "postgresql://")
}

func openDB(cfg source.Config) (*sql.DB, string, error) {
	if isPostgres(cfg.Address) {
		pc, err := pgxConfig(cfg)
		if err != nil {
			return nil, "", err
		}
		return stdlib.OpenDB(*pc), dialectPostgres, nil
	}

	db, err := sql.Open(dialectSQLite, cfg.Address)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, dialectSQLite, nil
}

// pgxConfig parses a postgres address and applies the source credentials.
// Non-empty User and Credential override anything embedded in the URL.
func pgxConfig(cfg source.Config) (*pgx.ConnConfig, error) {
	pc, err := pgx.ParseConfig(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres address: %w", err)
	}
	if cfg.User != "" {
		pc.User = cfg.User
	}
	if cfg.Credential != "" {
		pc.Password = cfg.Credential
	}
	return pc, nil
}

func applyPragmas(ctx context.Context, conn *sql.Conn) error {
	for _, pragma := range sqlitePragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

type sqlConn struct {
	db   *sql.DB
	conn *sql.Conn
}

// Execute runs query on the dedicated connection. Statements that report
// no columns are drained immediately so their side effects happen before
// Execute returns.
func (c *sqlConn) Execute(ctx context.Context, query string, args ...any) (Stmt, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}

	st := &sqlStmt{rows: rows, columns: cols}
	// DDL and DML only take effect once stepped
	if len(cols) == 0 {
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
	}
	return st, nil
}

func (c *sqlConn) Close() error {
	return errors.Join(c.conn.Close(), c.db.Close())
}

type sqlStmt struct {
	rows    *sql.Rows
	columns []string
	current []any
	err     error
}

func (s *sqlStmt) Fetchable() bool { return len(s.columns) > 0 }

func (s *sqlStmt) Columns() []string {
	return append([]string(nil), s.columns...)
}

func (s *sqlStmt) Next() bool {
	if s.err != nil || !s.Fetchable() || !s.rows.Next() {
		return false
	}

	// Scan into *any so each value keeps the driver's native type
	values := make([]any, len(s.columns))
	dest := make([]any, len(s.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		s.err = err
		return false
	}
	s.current = values
	return true
}

func (s *sqlStmt) Row() []any { return s.current }

func (s *sqlStmt) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.rows.Err()
}

func (s *sqlStmt) Finish() error {
	return s.rows.Close()
}
