// Package store persists run results: clinic rows and batch snapshots in
// SQLite, combined team documents and screenshot fallbacks on the
// filesystem, and the input clinic list from CSV.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/vetmap/classify"
	"github.com/hazyhaar/vetmap/dbopen"
	"github.com/hazyhaar/vetmap/people"
)

const schema = `
CREATE TABLE IF NOT EXISTS clinics (
	name                 TEXT PRIMARY KEY,
	website              TEXT NOT NULL DEFAULT '',
	clinic_status        TEXT NOT NULL DEFAULT '',
	specialization       TEXT NOT NULL DEFAULT '',
	treats_small_animals INTEGER NOT NULL DEFAULT 0,
	treats_large_animals INTEGER NOT NULL DEFAULT 0,
	treats_horses        INTEGER NOT NULL DEFAULT 0,
	reason               TEXT NOT NULL DEFAULT '',
	female_doctors       INTEGER,
	male_doctors         INTEGER,
	female_non_doctors   INTEGER,
	male_non_doctors     INTEGER,
	run_id               TEXT NOT NULL DEFAULT '',
	updated_at           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_clinics_status ON clinics(clinic_status);
`

// Clinic is one row of the result set.
type Clinic struct {
	Name           string
	Website        string
	ClinicStatus   classify.Status
	Specialization string
	Reason         string
	// Staff is nil until person extraction ran for this clinic.
	Staff *people.Counts
	RunID string
}

// Flags derives the category booleans; they are never stored independently
// of the specialization string.
func (c Clinic) Flags() classify.Flags { return classify.DeriveFlags(c.Specialization) }

// DB wraps the run database.
type DB struct {
	db *sql.DB
}

// Open opens (and if needed creates) the run database at path.
func Open(path string) (*DB, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &DB{db: db}, nil
}

// New wraps an already opened database; the schema is applied if missing.
func New(db *sql.DB) (*DB, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

const upsertSQL = `
	INSERT INTO clinics (name, website, clinic_status, specialization,
		treats_small_animals, treats_large_animals, treats_horses,
		reason, female_doctors, male_doctors, female_non_doctors,
		male_non_doctors, run_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		website = excluded.website,
		clinic_status = excluded.clinic_status,
		specialization = excluded.specialization,
		treats_small_animals = excluded.treats_small_animals,
		treats_large_animals = excluded.treats_large_animals,
		treats_horses = excluded.treats_horses,
		reason = excluded.reason,
		female_doctors = excluded.female_doctors,
		male_doctors = excluded.male_doctors,
		female_non_doctors = excluded.female_non_doctors,
		male_non_doctors = excluded.male_non_doctors,
		run_id = excluded.run_id,
		updated_at = excluded.updated_at`

// upsertArgs flattens a clinic into the statement parameters, deriving the
// per-category flags from the specialization string at write time.
func upsertArgs(c Clinic, now string) []any {
	flags := c.Flags()
	var fd, md, fnd, mnd any
	if c.Staff != nil {
		fd, md = c.Staff.FemaleDoctors, c.Staff.MaleDoctors
		fnd, mnd = c.Staff.FemaleNonDoctors, c.Staff.MaleNonDoctors
	}
	return []any{
		c.Name, c.Website, string(c.ClinicStatus), c.Specialization,
		flags.SmallAnimals, flags.LargeAnimals, flags.Horses,
		c.Reason, fd, md, fnd, mnd, c.RunID, now,
	}
}

// UpsertClinic writes one clinic row.
func (d *DB) UpsertClinic(ctx context.Context, c Clinic) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := dbopen.Exec(ctx, d.db, upsertSQL, upsertArgs(c, now)...); err != nil {
		return fmt.Errorf("store: upsert clinic %q: %w", c.Name, err)
	}
	return nil
}

// SaveBatch writes a batch snapshot in one transaction.
func (d *DB) SaveBatch(ctx context.Context, clinics []Clinic) error {
	if len(clinics) == 0 {
		return nil
	}
	return dbopen.RunTx(ctx, d.db, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for _, c := range clinics {
			if _, err := tx.ExecContext(ctx, upsertSQL, upsertArgs(c, now)...); err != nil {
				return fmt.Errorf("store: batch upsert %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

// AlreadyClassified reports whether a clinic carries a definitive yes or no
// from an earlier run. Uncertain rows are retried.
func (d *DB) AlreadyClassified(ctx context.Context, name string) (bool, error) {
	var status string
	err := d.db.QueryRowContext(ctx,
		`SELECT clinic_status FROM clinics WHERE name = ?`, name).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: lookup %q: %w", name, err)
	}
	return status == string(classify.StatusYes) || status == string(classify.StatusNo), nil
}

// Clinic returns one row by name.
func (d *DB) Clinic(ctx context.Context, name string) (Clinic, bool, error) {
	var c Clinic
	var status string
	var fd, md, fnd, mnd sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT name, website, clinic_status, specialization, reason,
			female_doctors, male_doctors, female_non_doctors, male_non_doctors, run_id
		FROM clinics WHERE name = ?`, name).Scan(
		&c.Name, &c.Website, &status, &c.Specialization, &c.Reason,
		&fd, &md, &fnd, &mnd, &c.RunID)
	if err == sql.ErrNoRows {
		return Clinic{}, false, nil
	}
	if err != nil {
		return Clinic{}, false, fmt.Errorf("store: read %q: %w", name, err)
	}
	c.ClinicStatus = classify.Status(status)
	if fd.Valid {
		c.Staff = &people.Counts{
			FemaleDoctors:    int(fd.Int64),
			MaleDoctors:      int(md.Int64),
			FemaleNonDoctors: int(fnd.Int64),
			MaleNonDoctors:   int(mnd.Int64),
		}
	}
	return c, true, nil
}

// StatusCounts tallies rows per clinic status.
func (d *DB) StatusCounts(ctx context.Context) (map[classify.Status]int, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT clinic_status, COUNT(*) FROM clinics GROUP BY clinic_status`)
	if err != nil {
		return nil, fmt.Errorf("store: status counts: %w", err)
	}
	defer rows.Close()

	out := make(map[classify.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("store: status counts: %w", err)
		}
		out[classify.Status(status)] = n
	}
	return out, rows.Err()
}
