package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	queries []string
	rowErr  error
}

func (r *recordingExecutor) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	r.queries = append(r.queries, query)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingExecutor) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	r.queries = append(r.queries, query)
	return errorRow{err: r.rowErr}
}

func (r *recordingExecutor) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	r.queries = append(r.queries, query)
	return nil, errors.New("not supported")
}

const markedQuery = "--sql 0b0e6a3c-7f55-4b8f-9a51-3c0a0f4f8d21\nUPDATE campaign_jobs SET progress = 1"

func TestSQLRunnerStripsMarker(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop(), NewMetrics())

	tag, err := runner.Exec(context.Background(), markedQuery)
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d", tag.RowsAffected())
	}
	if len(exec.queries) != 1 || exec.queries[0] != "UPDATE campaign_jobs SET progress = 1" {
		t.Fatalf("forwarded query = %#v", exec.queries)
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop(), nil)

	tests := []struct {
		name  string
		query string
	}{
		{"empty", "   "},
		{"no marker", "SELECT 1"},
		{"short uuid", "--sql 1234\nSELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runner.Exec(context.Background(), tt.query); err == nil {
				t.Fatalf("expected error")
			}
			if err := runner.QueryRow(context.Background(), tt.query).Scan(); err == nil {
				t.Fatalf("expected scan error")
			}
			if _, err := runner.Query(context.Background(), tt.query); err == nil {
				t.Fatalf("expected query error")
			}
		})
	}
	if len(exec.queries) != 0 {
		t.Fatalf("unmarked queries reached the database: %#v", exec.queries)
	}
}

func TestSQLRunnerQueryRowPassesNoRows(t *testing.T) {
	exec := &recordingExecutor{rowErr: pgx.ErrNoRows}
	runner := NewSQLRunner(exec, zerolog.Nop(), nil)

	err := runner.QueryRow(context.Background(), markedQuery).Scan()
	if !IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
}
