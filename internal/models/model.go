// ghostfed is the ActivityPub federation core for a single-tenant publishing platform.
// Copyright (C) 2026 Ghost Foundation
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package models is the relational persistence layer: one Go type per
// spec.md §3 table, prepared-statement methods grouped the way
// models/followers.go, models/outboxes.go, models/liked.go do in the
// teacher.
package models

import (
	"database/sql"
	"fmt"
	"strings"
)

// Model handles managing a single database table's prepared statements.
type Model interface {
	Prepare(*sql.DB, SqlDialect) error
	CreateTable(*sql.Tx, SqlDialect) error
	Close()
}

type stmtPair struct {
	stmt   **sql.Stmt
	sqlStr string
}

func prepareStmtPair(db *sql.DB, s stmtPair) (err error) {
	*s.stmt, err = db.Prepare(s.sqlStr)
	return err
}

type stmtPairs []stmtPair

func prepareStmtPairs(db *sql.DB, s stmtPairs) (err error) {
	for _, p := range s {
		if err != nil {
			return err
		}
		err = prepareStmtPair(db, p)
	}
	return
}

// SingleRow allows *sql.Rows to be treated as *sql.Row in shared scan
// helpers.
type SingleRow interface {
	Scan(dest ...interface{}) error
}

func enforceOneRow(r *sql.Rows, debugname string, fn func(r SingleRow) error) error {
	var n int
	for r.Next() {
		if n > 0 {
			return fmt.Errorf("%s: multiple rows retrieved when enforcing one", debugname)
		}
		if err := fn(SingleRow(r)); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("%s: zero rows retrieved when enforcing one", debugname)
	}
	return r.Err()
}

func doForRows(r *sql.Rows, fn func(r SingleRow) error) error {
	for r.Next() {
		if err := fn(SingleRow(r)); err != nil {
			return err
		}
	}
	return r.Err()
}

func mustChangeOneRow(r sql.Result, existing error, name string) error {
	if existing != nil {
		return existing
	}
	n, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%s: changed %d rows instead of 1", name, n)
	}
	return nil
}

// isDupKey reports whether err looks like a unique-constraint violation,
// the race-safety contract spec.md §5 relies on ("Race collisions
// surface as ER_DUP_ENTRY-class errors and are converted to idempotent
// success").
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	// pgx/v4's pgconn.PgError exposes Code "23505" for unique_violation;
	// avoid importing the driver-specific error type here so this helper
	// stays usable against any SqlDialect implementation, and instead
	// rely on the SQLSTATE text pgx formats into Error().
	msg := err.Error()
	for _, sub := range []string{"23505", "duplicate key", "UNIQUE constraint"} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
