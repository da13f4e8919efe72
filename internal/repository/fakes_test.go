package repository

import (
	"context"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRows is a minimal in-memory pgx.Rows.
type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		if row[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

// statement is one captured database call.
type statement struct {
	sql  string
	args []any
}

// captureDB records statements and answers queries with scripted rows.
type captureDB struct {
	statements []statement
	queryRows  [][]any
}

func (c *captureDB) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	c.statements = append(c.statements, statement{sql: sql, args: args})
	return 1, nil
}

func (c *captureDB) Query(_ context.Context, scan func(rows pgx.Rows) error, sql string, args ...any) error {
	c.statements = append(c.statements, statement{sql: sql, args: args})
	return scan(&fakeRows{rows: c.queryRows})
}

func (c *captureDB) last() statement {
	return c.statements[len(c.statements)-1]
}
