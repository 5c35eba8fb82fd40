package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubExecutor answers queries by their sqlinline constant.
type stubExecutor struct {
	rows     map[string][][]any
	rowErr   map[string]error
	affected map[string]int64
	calls    []stubCall
}

type stubCall struct {
	query string
	args  []any
}

func newStub() *stubExecutor {
	return &stubExecutor{rows: map[string][][]any{}, rowErr: map[string]error{}, affected: map[string]int64{}}
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, stubCall{query, args})
	if err := s.rowErr[query]; err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", s.affected[query])), nil
}

func (s *stubExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, stubCall{query, args})
	if err := s.rowErr[query]; err != nil {
		return stubRow{err: err}
	}
	rows := s.rows[query]
	if len(rows) == 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{values: rows[0]}
}

func (s *stubExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, stubCall{query, args})
	if err := s.rowErr[query]; err != nil {
		return nil, err
	}
	return &stubRows{data: s.rows[query], idx: -1}, nil
}

func (s *stubExecutor) last() stubCall {
	return s.calls[len(s.calls)-1]
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.data[r.idx], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx])
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		val := reflect.ValueOf(v)
		if target.Kind() == reflect.Pointer && val.Kind() != reflect.Pointer {
			ptr := reflect.New(target.Type().Elem())
			ptr.Elem().Set(val)
			val = ptr
		}
		if !val.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d: %s not assignable to %s", i, val.Type(), target.Type())
		}
		target.Set(val)
	}
	return nil
}
