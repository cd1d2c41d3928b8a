package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rubythings/ruport/internal/source"
	"github.com/rubythings/ruport/internal/sqltext"
	"github.com/rubythings/ruport/internal/table"
	"github.com/rubythings/ruport/internal/testutil"
)

var (
	defaultSource     = source.Config{Address: "ruport:test", User: "greg", Credential: "apple"}
	alternativeSource = source.Config{Address: "ruport:test2", User: "sandal", Credential: "harmonix"}

	testColumns = []string{"a", "b", "c"}
	testData    = [][][]any{
		{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		{{9, 8, 7}, {6, 5, 4}, {3, 2, 1}},
		{{7, 8, 9}, {4, 5, 6}, {1, 2, 3}},
	}

	selectSQL = "select * from foo"
	createSQL = "create table foo ..."
	multiSQL  = selectSQL + ";\n" + selectSQL
	mixedSQL  = createSQL + ";\n" + selectSQL
)

// newTestRegistry returns a registry holding "default" and "alternative".
func newTestRegistry(t *testing.T) *source.Registry {
	t.Helper()
	reg := source.NewRegistry()
	require.NoError(t, reg.Add(source.DefaultName, defaultSource))
	require.NoError(t, reg.Add("alternative", alternativeSource))
	return reg
}

// datasets scripts the first n entries of testData.
func datasets(n int) []testutil.Dataset {
	out := make([]testutil.Dataset, n)
	for i := range out {
		out[i] = testutil.Dataset{Columns: testColumns, Rows: testData[i%len(testData)]}
	}
	return out
}

// newTestQuery builds a name-bound query over a mock driver.
func newTestQuery(t *testing.T, sql string, opts Options, ds ...testutil.Dataset) (*Query, *testutil.MockDriver) {
	t.Helper()
	mock := testutil.NewMockDriver(ds...)
	if opts.Registry == nil {
		opts.Registry = newTestRegistry(t)
	}
	opts.Driver = mock
	q, err := New(sqltext.PathGuess(sql), opts)
	require.NoError(t, err)
	return q, mock
}

// collect returns an Each callback appending raw row values to dst.
func collect(dst *[][]any) func(table.Row) error {
	return func(row table.Row) error {
		*dst = append(*dst, row.Values())
		return nil
	}
}
