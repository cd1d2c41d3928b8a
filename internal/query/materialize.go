package query

import (
	"context"

	"github.com/rubythings/ruport/internal/table"
)

// ToTable returns the last statement's result as a table. The first
// successful call executes the query, later calls return the cached
// table. A resultless query yields a nil table.
func (q *Query) ToTable(ctx context.Context) (*table.Table, error) {
	if q.materialized {
		return q.cached, nil
	}
	t, err := q.Result(ctx)
	if err != nil {
		return nil, err
	}
	q.cached = t
	q.materialized = true
	return t, nil
}

// ToCSV renders ToTable as CSV. A resultless query renders as "".
func (q *Query) ToCSV(ctx context.Context) (string, error) {
	t, err := q.ToTable(ctx)
	if err != nil || t == nil {
		return "", err
	}
	return t.Render(table.FormatCSV)
}
