package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FizzSlash/AIdesign/internal/sqlinline"
)

type stubExecutor struct {
	token string
	err   error
	exec  struct {
		query string
		args  []any
	}
	lookups []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.lookups = append(s.lookups, args...)
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestToken(t *testing.T) {
	exec := &stubExecutor{token: " abc123 "}
	store := NewStore(exec)
	key, err := store.Token(context.Background(), ProviderOpenAI)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
	if len(exec.lookups) != 1 || exec.lookups[0] != ProviderOpenAI {
		t.Fatalf("unexpected lookup args %#v", exec.lookups)
	}
}

func TestToken_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.Token(context.Background(), ProviderGemini)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestToken_WrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	store := NewStore(&stubExecutor{err: boom})
	if _, err := store.Token(context.Background(), ProviderGemini); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestResolvePrefersExplicitKey(t *testing.T) {
	exec := &stubExecutor{token: "stored"}
	store := NewStore(exec)

	key, err := store.Resolve(context.Background(), ProviderOpenAI, " env-key ")
	if err != nil || key != "env-key" {
		t.Fatalf("Resolve = %q, %v", key, err)
	}
	if len(exec.lookups) != 0 {
		t.Fatalf("store consulted despite explicit key")
	}

	key, err = store.Resolve(context.Background(), ProviderOpenAI, "")
	if err != nil || key != "stored" {
		t.Fatalf("Resolve fallback = %q, %v", key, err)
	}
}

func TestSetToken(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	store.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	if err := store.SetToken(context.Background(), " OpenAI ", "secret"); err != nil {
		t.Fatalf("SetToken error: %v", err)
	}
	if exec.exec.query != sqlinline.QUpsertIntegrationToken {
		t.Fatalf("unexpected query %q", exec.exec.query)
	}
	if len(exec.exec.args) != 3 || exec.exec.args[0] != ProviderOpenAI || exec.exec.args[1] != "secret" {
		t.Fatalf("unexpected args %#v", exec.exec.args)
	}
	var props map[string]string
	if err := json.Unmarshal(exec.exec.args[2].([]byte), &props); err != nil {
		t.Fatalf("props: %v", err)
	}
	if props["updatedAt"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected props %#v", props)
	}
}

func TestSetTokenValidation(t *testing.T) {
	store := NewStore(&stubExecutor{})
	tests := []struct {
		name     string
		provider string
		key      string
	}{
		{"unknown provider", "anthropic", "k"},
		{"blank key", ProviderGemini, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.SetToken(context.Background(), tt.provider, tt.key); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
