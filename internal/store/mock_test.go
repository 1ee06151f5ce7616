package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// mockDB records every statement the stores send. Expectations match on the
// argument slice, so tests pin the exact values written to each column.
type mockDB struct {
	mock.Mock
	txs []*fakeTx
}

// Begin hands out a fakeTx that sends its statements through m.
func (m *mockDB) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{db: m}
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	rows, _ := args.Get(0).(pgx.Rows)
	return rows, args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return m.Called(ctx, sql, arguments).Get(0).(pgx.Row)
}

// fakeTx records how a transaction ended. Methods the stores never call are
// left to the embedded nil pgx.Tx.
type fakeTx struct {
	pgx.Tx
	db         *mockDB
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, arguments...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, arguments...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, arguments...)
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type scanFunc func(dest ...any) error

type fakeRow struct {
	scan scanFunc
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func scanRow(fn scanFunc) pgx.Row { return fakeRow{scan: fn} }

// errRow is a row whose Scan fails with err, e.g. pgx.ErrNoRows.
func errRow(err error) pgx.Row {
	return fakeRow{scan: func(...any) error { return err }}
}

// fakeRows yields one scan per configured row.
type fakeRows struct {
	rows []scanFunc
	next int
}

func newMockRows(rows ...func(dest ...any) error) *fakeRows {
	r := &fakeRows{}
	for _, fn := range rows {
		r.rows = append(r.rows, fn)
	}
	return r
}

func (r *fakeRows) Next() bool { return r.next < len(r.rows) }

func (r *fakeRows) Scan(dest ...any) error {
	if r.next >= len(r.rows) {
		return pgx.ErrNoRows
	}
	fn := r.rows[r.next]
	r.next++
	return fn(dest...)
}

func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) Close()                                       {}
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
