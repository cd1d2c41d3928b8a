package query

import (
	"fmt"
	"log/slog"

	"github.com/rubythings/ruport/internal/driver"
	"github.com/rubythings/ruport/internal/source"
	"github.com/rubythings/ruport/internal/sqltext"
	"github.com/rubythings/ruport/internal/table"
)

// Policy selects how multi-statement scripts bind parameters and stream.
type Policy int

const (
	// PolicyCompat binds parameters to the last statement only, and each
	// Each call streams the next statement in turn, wrapping around.
	PolicyCompat Policy = iota

	// PolicyUniform binds parameters to every statement, and one Each call
	// streams the rows of every statement.
	PolicyUniform
)

func (p Policy) String() string {
	switch p {
	case PolicyCompat:
		return "compat"
	case PolicyUniform:
		return "uniform"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Options configures a Query.
type Options struct {
	// Source is the registry name to bind to. Empty means source.DefaultName.
	// Ignored by NewWithConfig.
	Source string

	// Registry resolves Source at execution time. Required for name binding.
	Registry *source.Registry

	// Params are positional statement parameters.
	Params []any

	// RowMode selects structured (default) or raw rows.
	RowMode table.RowMode

	// Policy selects multi-statement behavior. Defaults to PolicyCompat.
	Policy Policy

	// Driver executes statements. Nil uses driver.SQL.
	Driver driver.Driver

	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger

	// ReadFile loads SQL files. Nil uses os.ReadFile.
	ReadFile sqltext.ReadFileFunc
}

// Query is resolved SQL bound to a source.
//
// SQL and parameters are fixed at construction. The source binding is
// either a registry name, looked up on every execution, or a literal
// config captured at construction.
//
// A Query is not safe for concurrent use.
type Query struct {
	sql     string
	params  []any
	rowMode table.RowMode
	policy  Policy

	name     string
	literal  *source.Config
	registry *source.Registry

	driver driver.Driver
	logger *slog.Logger

	// cursor is the statement the next compat-mode Each call streams.
	cursor int

	materialized bool
	cached       *table.Table
}

// New resolves src and binds the query to the registry entry opts.Source.
func New(src sqltext.Source, opts Options) (*Query, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: a source registry is required to bind by name", ErrConfiguration)
	}
	q, err := newQuery(src, opts)
	if err != nil {
		return nil, err
	}
	q.name = opts.Source
	if q.name == "" {
		q.name = source.DefaultName
	}
	q.registry = opts.Registry
	return q, nil
}

// NewWithConfig resolves src and binds the query to a copy of cfg.
// Later registry changes never affect it.
func NewWithConfig(src sqltext.Source, cfg source.Config, opts Options) (*Query, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	q, err := newQuery(src, opts)
	if err != nil {
		return nil, err
	}
	q.literal = &cfg
	return q, nil
}

func newQuery(src sqltext.Source, opts Options) (*Query, error) {
	sql, err := sqltext.Resolve(src, opts.ReadFile)
	if err != nil {
		return nil, err
	}

	q := &Query{
		sql:     sql,
		params:  append([]any(nil), opts.Params...),
		rowMode: opts.RowMode,
		policy:  opts.Policy,
		driver:  opts.Driver,
		logger:  opts.Logger,
	}
	if q.driver == nil {
		q.driver = driver.SQL{Logger: opts.Logger}
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	return q, nil
}

// SQL returns the resolved SQL text.
func (q *Query) SQL() string { return q.sql }

// Params returns a copy of the positional parameters.
func (q *Query) Params() []any { return append([]any(nil), q.params...) }

// RowMode returns the row mode results are produced in.
func (q *Query) RowMode() table.RowMode { return q.rowMode }

// SourceName returns the bound registry name, or "" for a literal binding.
func (q *Query) SourceName() string { return q.name }

// SelectSource rebinds a name-bound query to another registered source.
// Results already produced, including a cached ToTable result, are kept.
func (q *Query) SelectSource(name string) error {
	if q.literal != nil {
		return fmt.Errorf("%w: query is bound to a literal source config", ErrUsage)
	}
	if _, err := q.registry.Source(name); err != nil {
		return fmt.Errorf("select source: %w", err)
	}
	q.name = name
	return nil
}

// EffectiveSource returns the config the next execution will connect with.
func (q *Query) EffectiveSource() (source.Config, error) {
	if q.literal != nil {
		return *q.literal, nil
	}
	return q.registry.Source(q.name)
}

// Directive is the explicit form of a SQL argument. Exactly one field
// must be set.
type Directive struct {
	File   string `yaml:"file,omitempty"`
	String string `yaml:"string,omitempty"`
}

// FromDirective converts d to a SQL source.
func FromDirective(d Directive) (sqltext.Source, error) {
	switch {
	case d.File != "" && d.String != "":
		return sqltext.Source{}, fmt.Errorf("%w: only one of file and string may be given", ErrConfiguration)
	case d.File != "":
		return sqltext.File(d.File), nil
	case d.String != "":
		return sqltext.Literal(d.String), nil
	default:
		return sqltext.Source{}, fmt.Errorf("%w: one of file or string is required", ErrConfiguration)
	}
}
