// Package postgres installs server-side itemid support: component
// extraction, hex codec and boundary functions for the 44/12/8 bit layout,
// a machine-id allocation sequence, and a layout table guarding against
// mismatched deployments.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fredricrylander/itemid"
)

// Layout is the itemid bit layout recorded in the database.
type Layout = itemid.Layout

// DefaultLayout returns the layout the itemid package mints with.
func DefaultLayout() Layout {
	return itemid.DefaultLayout()
}

var ErrLayoutMismatch = errors.New("itemid: database layout does not match application layout")

// Migrate runs the idempotent itemid migration with the given layout.
// If the database already records a different layout, returns ErrLayoutMismatch.
func Migrate(ctx context.Context, db *sql.DB, l Layout) error {
	// Create layout table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _itemid_layout (
			id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			timestamp_bits int NOT NULL,
			counter_bits int NOT NULL,
			machine_bits int NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("itemid: create layout table: %w", err)
	}

	// Check existing layout
	var have Layout
	err = db.QueryRowContext(ctx, `SELECT timestamp_bits, counter_bits, machine_bits FROM _itemid_layout`).
		Scan(&have.TimestampBits, &have.CounterBits, &have.MachineBits)
	if err == nil {
		// Layout exists, validate it matches
		if have != l {
			return fmt.Errorf("%w: db has %d/%d/%d, app has %d/%d/%d",
				ErrLayoutMismatch, have.TimestampBits, have.CounterBits, have.MachineBits,
				l.TimestampBits, l.CounterBits, l.MachineBits)
		}
	} else if errors.Is(err, sql.ErrNoRows) {
		// Insert layout
		_, err = db.ExecContext(ctx, `INSERT INTO _itemid_layout (timestamp_bits, counter_bits, machine_bits) VALUES ($1, $2, $3)`,
			l.TimestampBits, l.CounterBits, l.MachineBits)
		if err != nil {
			return fmt.Errorf("itemid: insert layout: %w", err)
		}
	} else {
		return fmt.Errorf("itemid: read layout: %w", err)
	}

	// Generate and run migrations with the layout's values
	migrations := generateSQL(l)
	_, err = db.ExecContext(ctx, migrations)
	if err != nil {
		return fmt.Errorf("itemid: run migrations: %w", err)
	}

	return nil
}

// NextMachine returns the next available machine id from the database
// sequence. Call once at app startup to get a unique machine id for this
// instance; pass the result to itemid.SetMachineID.
func NextMachine(ctx context.Context, db *sql.DB) (int64, error) {
	var machine int64
	err := db.QueryRowContext(ctx, "SELECT itemid_next_machine()").Scan(&machine)
	return machine, err
}

// GetLayout reads the itemid layout from the database.
func GetLayout(ctx context.Context, db *sql.DB) (Layout, error) {
	var l Layout
	err := db.QueryRowContext(ctx, `SELECT timestamp_bits, counter_bits, machine_bits FROM _itemid_layout`).
		Scan(&l.TimestampBits, &l.CounterBits, &l.MachineBits)
	return l, err
}

func generateSQL(l Layout) string {
	timestampShift := l.TimestampShift()
	maxMillis := l.MaxMillis()
	maxCounter := l.MaxCounter()
	maxMachine := l.MaxMachine()

	return fmt.Sprintf(`
-- Sequences
CREATE SEQUENCE IF NOT EXISTS itemid_counter_seq CYCLE MAXVALUE %[1]d;
CREATE SEQUENCE IF NOT EXISTS itemid_machine_seq CYCLE MINVALUE 1 MAXVALUE %[2]d;

-- Get next machine id for an app instance (1-%[2]d)
CREATE OR REPLACE FUNCTION itemid_next_machine()
  RETURNS int
  LANGUAGE sql
  VOLATILE
  AS $$
  SELECT nextval('itemid_machine_seq')::int;
$$;

-- Mint an itemid (machine 0 is reserved for Postgres itself)
CREATE OR REPLACE FUNCTION itemid()
  RETURNS bigint
  LANGUAGE plpgsql
  VOLATILE
  AS $$
DECLARE
  now_ms bigint;
  counter bigint;
BEGIN
  now_ms := (extract(epoch FROM clock_timestamp()) * 1000)::bigint & %[3]d;
  counter := nextval('itemid_counter_seq') & %[1]d;
  RETURN (now_ms << %[4]d) | (counter << %[5]d);  -- machine 0
END;
$$;

-- Extract components
CREATE OR REPLACE FUNCTION ts_from_itemid(id bigint)
  RETURNS timestamptz
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT to_timestamp(((id >> %[4]d) & %[3]d)::numeric / 1000);
$$;

CREATE OR REPLACE FUNCTION counter_from_itemid(id bigint)
  RETURNS int
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT ((id >> %[5]d) & %[1]d)::int;
$$;

CREATE OR REPLACE FUNCTION machine_from_itemid(id bigint)
  RETURNS int
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT (id & %[2]d)::int;
$$;

-- Boundary: the smallest itemid for a given instant, for range queries
CREATE OR REPLACE FUNCTION itemid_floor(ts timestamptz)
  RETURNS bigint
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT
  AS $$
DECLARE
  ms bigint;
BEGIN
  ms := (extract(epoch FROM ts) * 1000)::bigint;
  IF ms < 0 OR ms > %[3]d THEN
    RAISE EXCEPTION 'itemid: timestamp out of range: %%', ts;
  END IF;
  RETURN ms << %[4]d;
END;
$$;

-- Hex encoding/decoding (canonical 16-digit form)
CREATE OR REPLACE FUNCTION hex_to_itemid(encoded_id text)
  RETURNS bigint
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT ('x' || lpad(encoded_id, 16, '0'))::bit(64)::bigint;
$$;

CREATE OR REPLACE FUNCTION itemid_to_hex(id bigint)
  RETURNS text
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT lpad(to_hex(id), 16, '0');
$$;
`,
		maxCounter,     // %[1]d
		maxMachine,     // %[2]d
		maxMillis,      // %[3]d
		timestampShift, // %[4]d
		l.MachineBits,  // %[5]d counter shift
	)
}
