package mssql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rulecheck/internal/ddl"
	"rulecheck/internal/rules"
	"rulecheck/internal/storage"
)

type stmtRepo struct{ stmts []string }

func (r *stmtRepo) CopyFrom(context.Context, []string, [][]any) (int64, error) { return 0, nil }
func (r *stmtRepo) Exec(_ context.Context, sql string) error {
	r.stmts = append(r.stmts, sql)
	return nil
}
func (r *stmtRepo) Close() {}

func TestRegistry_PassesTargetAndCloses(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		got    Config
		closed bool
	)
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "mssql",
		DSN:     "sqlserver://loader@db:1433?database=customers",
		Table:   "dbo.ACME_DATA",
		Columns: []string{"customer_id", "order_day"},
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if got.Table != "dbo.ACME_DATA" || strings.Join(got.Columns, ",") != "customer_id,order_day" {
		t.Fatalf("hook got %+v", got)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not release the pool")
	}

	boom := errors.New("login failed")
	newRepository = func(context.Context, Config) (*Repository, func(), error) { return nil, nil, boom }
	if _, err := storage.New(context.Background(), storage.Config{Kind: "mssql"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

// TestRegistry_GuardedCreateTable checks the mssql bootstrapper emits the
// OBJECT_ID guard with bracket-quoted rule columns.
func TestRegistry_GuardedCreateTable(t *testing.T) {
	t.Parallel()

	def := ddl.FromFields(ddl.MSSQL, "dbo.ACME_DATA", []ddl.Field{
		{Name: "customer_id", Type: rules.Int, Mandatory: true},
		{Name: "Name", Type: rules.String, MaxLength: 40},
		{Name: "order_day", Type: rules.Date},
	})
	repo := &stmtRepo{}
	if err := storage.EnsureTable(context.Background(), "mssql", repo, def); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(repo.stmts) != 1 {
		t.Fatalf("stmts = %v", repo.stmts)
	}
	for _, want := range []string{"IF OBJECT_ID(N'[dbo].[ACME_DATA]', N'U') IS NULL", "[customer_id]", "[Name]", "[order_day]"} {
		if !strings.Contains(repo.stmts[0], want) {
			t.Fatalf("DDL lacks %q:\n%s", want, repo.stmts[0])
		}
	}
}
