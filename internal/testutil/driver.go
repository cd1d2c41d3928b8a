// Package testutil provides deterministic test doubles for query execution.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/rubythings/ruport/internal/driver"
	"github.com/rubythings/ruport/internal/source"
)

// ErrNoDataset is returned by Execute when the script is exhausted.
var ErrNoDataset = errors.New("mock driver: no dataset scripted")

// Dataset scripts the outcome of one Execute call.
type Dataset struct {
	Columns []string
	Rows    [][]any

	// Resultless makes the statement produce no row set.
	Resultless bool

	// ExecErr fails Execute itself; no handle is created.
	ExecErr error

	// IterErr is reported by Err after the rows are exhausted.
	IterErr error
}

// Execution records one Execute call.
type Execution struct {
	SQL  string
	Args []any
}

// MockDriver is a scripted driver.Driver that records every interaction.
//
// Each Execute consumes the next Dataset in order, regardless of the SQL
// text, so a test scripts the datasets in the order statements will run.
//
// Thread-safety: safe for concurrent use via internal mutex.
type MockDriver struct {
	mu sync.Mutex

	script     []Dataset
	connectErr error

	connects   []source.Config
	executions []Execution
	rowReads   int
	finishes   int
	closes     int
}

var _ driver.Driver = (*MockDriver)(nil)

// NewMockDriver creates a driver that serves datasets in order.
func NewMockDriver(datasets ...Dataset) *MockDriver {
	return &MockDriver{script: datasets}
}

// FailConnect makes every subsequent Connect fail with err.
func (m *MockDriver) FailConnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// Connect records cfg and returns a mock connection.
func (m *MockDriver) Connect(ctx context.Context, cfg source.Config) (driver.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connects = append(m.connects, cfg)
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	return &mockConn{d: m}, nil
}

// Connects returns the configs passed to Connect, in order.
func (m *MockDriver) Connects() []source.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]source.Config(nil), m.connects...)
}

// Executions returns every Execute call, in order.
func (m *MockDriver) Executions() []Execution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Execution(nil), m.executions...)
}

// RowReads returns how many rows were handed out across all statements.
func (m *MockDriver) RowReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rowReads
}

// Finishes returns how many statement handles were finished.
func (m *MockDriver) Finishes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finishes
}

// Closes returns how many connections were closed.
func (m *MockDriver) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Remaining returns the number of unconsumed datasets.
func (m *MockDriver) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

type mockConn struct {
	d *MockDriver
}

func (c *mockConn) Execute(ctx context.Context, query string, args ...any) (driver.Stmt, error) {
	m := c.d
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions = append(m.executions, Execution{SQL: query, Args: append([]any(nil), args...)})
	if len(m.script) == 0 {
		return nil, ErrNoDataset
	}
	ds := m.script[0]
	m.script = m.script[1:]

	if ds.ExecErr != nil {
		return nil, ds.ExecErr
	}
	return &mockStmt{d: m, ds: ds, pos: -1}, nil
}

func (c *mockConn) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.closes++
	return nil
}

type mockStmt struct {
	d        *MockDriver
	ds       Dataset
	pos      int
	finished bool
}

func (s *mockStmt) Fetchable() bool { return !s.ds.Resultless }

func (s *mockStmt) Columns() []string {
	if s.ds.Resultless {
		return nil
	}
	return append([]string(nil), s.ds.Columns...)
}

func (s *mockStmt) Next() bool {
	if s.ds.Resultless || s.finished || s.pos+1 >= len(s.ds.Rows) {
		return false
	}
	s.pos++
	s.d.mu.Lock()
	s.d.rowReads++
	s.d.mu.Unlock()
	return true
}

// Row returns a copy so callers cannot mutate the script.
func (s *mockStmt) Row() []any {
	return append([]any(nil), s.ds.Rows[s.pos]...)
}

func (s *mockStmt) Err() error {
	if s.pos+1 >= len(s.ds.Rows) {
		return s.ds.IterErr
	}
	return nil
}

func (s *mockStmt) Finish() error {
	s.finished = true
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.finishes++
	return nil
}
