package dbopen_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vetmap/dbopen"
)

const runSchema = `CREATE TABLE runs (name TEXT PRIMARY KEY, status TEXT)`

func TestOpenAppliesPragmas(t *testing.T) {
	db := dbopen.OpenMemory(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	// an in-memory database reports "memory" even with WAL requested
	if journalMode != "wal" && journalMode != "memory" {
		t.Fatalf("journal_mode = %q", journalMode)
	}

	checks := []struct {
		pragma string
		want   int
	}{
		{"foreign_keys", 1},
		{"synchronous", 1},
		{"busy_timeout", 10_000},
	}
	for _, c := range checks {
		var got int
		if err := db.QueryRow("PRAGMA " + c.pragma).Scan(&got); err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%s = %d, want %d", c.pragma, got, c.want)
		}
	}
}

func TestWithBusyTimeout(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithBusyTimeout(2500))

	var bt int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&bt); err != nil {
		t.Fatal(err)
	}
	if bt != 2500 {
		t.Fatalf("busy_timeout = %d, want 2500", bt)
	}
}

func TestWithSchema(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(runSchema))

	if _, err := db.Exec(`INSERT INTO runs (name, status) VALUES ('Kleintierpraxis Nord', 'yes')`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}

	var status string
	if err := db.QueryRow(`SELECT status FROM runs WHERE name = 'Kleintierpraxis Nord'`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "yes" {
		t.Fatalf("status = %q", status)
	}
}

func TestWithMkdirAll(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out", "run", "vetmap.db")

	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Fatalf("parent directory not created: %v", err)
	}
}

func TestIsBusy(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("constraint failed"), false},
		{errors.New("SQLITE_BUSY"), true},
		{errors.New("store: upsert: database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("database table is locked"), true},
	}
	for _, c := range cases {
		if got := dbopen.IsBusy(c.err); got != c.want {
			t.Errorf("IsBusy(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestRunTxCommit(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(runSchema))

	err := dbopen.RunTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO runs (name, status) VALUES ('Pferdeklinik Ost', 'uncertain')`)
		return err
	})
	if err != nil {
		t.Fatalf("RunTx: %v", err)
	}

	var status string
	if err := db.QueryRow(`SELECT status FROM runs WHERE name = 'Pferdeklinik Ost'`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "uncertain" {
		t.Fatalf("status = %q", status)
	}
}

func TestRunTxRollsBackOnError(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(runSchema))

	sentinel := errors.New("batch aborted")
	err := dbopen.RunTx(context.Background(), db, func(tx *sql.Tx) error {
		tx.Exec(`INSERT INTO runs (name, status) VALUES ('Rollback', 'no')`)
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunTx error = %v, want sentinel", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	if count != 0 {
		t.Fatalf("count = %d, want 0 after rollback", count)
	}
}

func TestExec(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(runSchema))

	if _, err := dbopen.Exec(context.Background(), db, `INSERT INTO runs (name, status) VALUES (?, ?)`, "Exec", "yes"); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestRunTxCancelledContext(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := dbopen.RunTx(ctx, db, func(*sql.Tx) error { return nil }); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

// Two batch workers committing snapshots at once must both land; lock
// collisions are absorbed by the busy-timeout and the retry loop.
func TestConcurrentBatchWriters(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	db, err := dbopen.Open(dbPath, dbopen.WithSchema(runSchema))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	const writers, rowsPerWriter = 2, 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			errs <- dbopen.RunTx(context.Background(), db, func(tx *sql.Tx) error {
				for i := 0; i < rowsPerWriter; i++ {
					name := fmt.Sprintf("Clinic %d-%02d", w, i)
					if _, err := tx.Exec(`INSERT INTO runs (name, status) VALUES (?, 'yes')`, name); err != nil {
						return err
					}
				}
				return nil
			})
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("writer: %v", err)
		}
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	if count != writers*rowsPerWriter {
		t.Fatalf("count = %d, want %d", count, writers*rowsPerWriter)
	}
}
