package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"

	"rulecheck/internal/storage"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	stmt, args, err := insertSQL("crm.ACME_DATA", []string{"id", "tick`name"}, [][]any{{1, "a"}, {2, nil}})
	if err != nil {
		t.Fatalf("insertSQL: %v", err)
	}
	want := "INSERT INTO `crm`.`ACME_DATA` (`id`,`tick``name`) VALUES (?,?),(?,?)"
	if stmt != want {
		t.Fatalf("stmt = %q, want %q", stmt, want)
	}
	if len(args) != 4 || args[0] != 1 || args[1] != "a" || args[3] != nil {
		t.Fatalf("args = %#v", args)
	}

	if _, _, err := insertSQL("t", []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatal("want error for short row")
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"}); err == nil || !strings.Contains(err.Error(), "mysql dsn") {
		t.Fatalf("err = %v, want dsn error", err)
	}
}

func TestAdapterRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind: "mysql", DSN: "u:p@tcp(localhost:3306)/crm", Table: "ACME_DATA", Columns: []string{"a"},
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotCfg.Table != "ACME_DATA" || len(gotCfg.Columns) != 1 {
		t.Fatalf("cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not invoke closeFn")
	}
}

// Recording driver: captures Exec statements so CopyFrom can be checked
// without a server.

type recDriver struct {
	mu    sync.Mutex
	execs []string
	fail  bool
}

type recConn struct{ d *recDriver }

type recTx struct{}

func (d *recDriver) Open(string) (driver.Conn, error) { return &recConn{d: d}, nil }

func (c *recConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("unexpected Prepare") }
func (c *recConn) Close() error                        { return nil }
func (c *recConn) Begin() (driver.Tx, error)           { return recTx{}, nil }

func (c *recConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return recTx{}, nil
}

func (c *recConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if c.d.fail {
		return nil, errors.New("exec failed")
	}
	c.d.execs = append(c.d.execs, query)
	if !strings.HasPrefix(query, "INSERT") {
		return driver.RowsAffected(0), nil
	}
	// one "(" for the column list plus one per row tuple
	return driver.RowsAffected(strings.Count(query, "(") - 1), nil
}

func (recTx) Commit() error   { return nil }
func (recTx) Rollback() error { return nil }

func openRecDB(t *testing.T, name string, fail bool) (*sql.DB, *recDriver) {
	t.Helper()
	d := &recDriver{fail: fail}
	sql.Register(name, d)
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, d
}

func TestCopyFrom_Chunks(t *testing.T) {
	t.Parallel()

	db, d := openRecDB(t, "mysql_rec_chunks", false)
	r := &Repository{db: db, cfg: Config{Table: "ACME_DATA", Columns: []string{"a", "b"}}}

	rows := make([][]any, maxPlaceholders/2+5)
	for i := range rows {
		rows[i] = []any{i, "x"}
	}
	n, err := r.CopyFrom(context.Background(), nil, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != int64(len(rows)) {
		t.Fatalf("n = %d, want %d", n, len(rows))
	}
	if len(d.execs) != 2 {
		t.Fatalf("exec count = %d, want 2", len(d.execs))
	}
}

func TestCopyFrom_ExecError(t *testing.T) {
	t.Parallel()

	db, _ := openRecDB(t, "mysql_rec_fail", true)
	r := &Repository{db: db, cfg: Config{Table: "t"}}

	n, err := r.CopyFrom(context.Background(), []string{"a"}, [][]any{{1}})
	if err == nil || !strings.Contains(err.Error(), "insert rows 0-0") {
		t.Fatalf("err = %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	if err := r.Exec(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("Exec: want error")
	}
}
