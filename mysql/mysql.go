// Package mysql installs server-side itemid support for MySQL: component
// extraction, hex codec and boundary functions for the 44/12/8 bit layout,
// a machine-id allocation table, and a layout table guarding against
// mismatched deployments.
//
// MySQL has no CREATE OR REPLACE FUNCTION and rejects multi-statement
// batches over the wire protocol, so the migration drops and recreates each
// function in its own statement.
package mysql

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
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _itemid_layout (
			id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			timestamp_bits INT NOT NULL,
			counter_bits INT NOT NULL,
			machine_bits INT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("itemid: create layout table: %w", err)
	}

	var have Layout
	err = db.QueryRowContext(ctx, `SELECT timestamp_bits, counter_bits, machine_bits FROM _itemid_layout`).
		Scan(&have.TimestampBits, &have.CounterBits, &have.MachineBits)
	if err == nil {
		if have != l {
			return fmt.Errorf("%w: db has %d/%d/%d, app has %d/%d/%d",
				ErrLayoutMismatch, have.TimestampBits, have.CounterBits, have.MachineBits,
				l.TimestampBits, l.CounterBits, l.MachineBits)
		}
	} else if errors.Is(err, sql.ErrNoRows) {
		_, err = db.ExecContext(ctx, `INSERT INTO _itemid_layout (id, timestamp_bits, counter_bits, machine_bits) VALUES (1, ?, ?, ?)`,
			l.TimestampBits, l.CounterBits, l.MachineBits)
		if err != nil {
			return fmt.Errorf("itemid: insert layout: %w", err)
		}
	} else {
		return fmt.Errorf("itemid: read layout: %w", err)
	}

	for _, stmt := range generateSQL(l) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("itemid: run migrations: %w", err)
		}
	}

	return nil
}

// NextMachine returns the next available machine id, 1 through MaxMachine,
// wrapping around once the allocation table's counter exceeds it. Call once
// at app startup and pass the result to itemid.SetMachineID.
func NextMachine(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO _itemid_machines () VALUES ()`)
	if err != nil {
		return 0, fmt.Errorf("itemid: allocate machine id: %w", err)
	}
	n, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("itemid: allocate machine id: %w", err)
	}
	max := DefaultLayout().MaxMachine()
	return (n-1)%max + 1, nil
}

// GetLayout reads the itemid layout from the database.
func GetLayout(ctx context.Context, db *sql.DB) (Layout, error) {
	var l Layout
	err := db.QueryRowContext(ctx, `SELECT timestamp_bits, counter_bits, machine_bits FROM _itemid_layout`).
		Scan(&l.TimestampBits, &l.CounterBits, &l.MachineBits)
	return l, err
}

func generateSQL(l Layout) []string {
	timestampShift := l.TimestampShift()
	maxMillis := l.MaxMillis()
	maxCounter := l.MaxCounter()
	maxMachine := l.MaxMachine()

	return []string{
		`CREATE TABLE IF NOT EXISTS _itemid_machines (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			allocated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`DROP FUNCTION IF EXISTS ts_from_itemid`,
		fmt.Sprintf(`CREATE FUNCTION ts_from_itemid(id BIGINT)
			RETURNS DATETIME(3)
			DETERMINISTIC NO SQL
			RETURN FROM_UNIXTIME(((id >> %d) & %d) / 1000)`,
			timestampShift, maxMillis),

		`DROP FUNCTION IF EXISTS counter_from_itemid`,
		fmt.Sprintf(`CREATE FUNCTION counter_from_itemid(id BIGINT)
			RETURNS INT
			DETERMINISTIC NO SQL
			RETURN (id >> %d) & %d`,
			l.MachineBits, maxCounter),

		`DROP FUNCTION IF EXISTS machine_from_itemid`,
		fmt.Sprintf(`CREATE FUNCTION machine_from_itemid(id BIGINT)
			RETURNS INT
			DETERMINISTIC NO SQL
			RETURN id & %d`,
			maxMachine),

		`DROP FUNCTION IF EXISTS itemid_floor`,
		fmt.Sprintf(`CREATE FUNCTION itemid_floor(ts DATETIME(3))
			RETURNS BIGINT
			DETERMINISTIC NO SQL
			BEGIN
				DECLARE ms BIGINT;
				SET ms = CAST(ROUND(UNIX_TIMESTAMP(ts) * 1000) AS SIGNED);
				IF ms < 0 OR ms > %d THEN
					SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = 'itemid: timestamp out of range';
				END IF;
				RETURN ms << %d;
			END`,
			maxMillis, timestampShift),

		`DROP FUNCTION IF EXISTS hex_to_itemid`,
		`CREATE FUNCTION hex_to_itemid(encoded_id VARCHAR(16))
			RETURNS BIGINT UNSIGNED
			DETERMINISTIC NO SQL
			RETURN CAST(CONV(encoded_id, 16, 10) AS UNSIGNED)`,

		`DROP FUNCTION IF EXISTS itemid_to_hex`,
		`CREATE FUNCTION itemid_to_hex(id BIGINT)
			RETURNS CHAR(16)
			DETERMINISTIC NO SQL
			RETURN LOWER(LPAD(HEX(id), 16, '0'))`,
	}
}
