package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Concurrent batch writers share one run database. WAL keeps readers out of
// the way, but two batches committing at once can still collide on the
// write lock, so every write goes through a short busy-retry loop.
const (
	busyAttempts  = 4
	busyBaseDelay = 50 * time.Millisecond
)

// IsBusy reports whether err is an SQLite lock collision rather than a real
// failure. modernc surfaces these as SQLITE_BUSY or "database is locked"
// message text.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// retryBusy runs op, retrying lock collisions with a doubling delay
// (50/100/200 ms between the four attempts). Non-busy errors return
// immediately.
func retryBusy(ctx context.Context, op func() error) error {
	delay := busyBaseDelay
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !IsBusy(err) || attempt == busyAttempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("dbopen: cancelled waiting for write lock: %w", ctx.Err())
		case <-t.C:
		}
		delay *= 2
	}
}

// RunTx runs fn inside a transaction, rolling back on error and retrying
// the whole transaction on lock collisions. A batch snapshot save is one
// RunTx call.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	return retryBusy(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("dbopen: begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("dbopen: commit: %w", err)
		}
		return nil
	})
}

// Exec runs a single statement with the same busy-retry treatment as RunTx.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryBusy(ctx, func() error {
		var err error
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
