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

package models

import (
	"database/sql"

	"github.com/tryghost/activitypub/internal/util"
)

var _ Model = &KeyValue{}

// KeyValue backs the SQL-variant content-addressed store (spec.md §2's
// "KV store ... keyed by ActivityPub IRI"): last-writer-wins storage of
// arbitrary bytes under a string key, grounded on models/linked_data.go's
// key-by-IRI pattern in the teacher.
type KeyValue struct {
	upsert *sql.Stmt
	get    *sql.Stmt
	delete_ *sql.Stmt
}

func (k *KeyValue) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("key_value")
	return prepareStmtPairs(db, stmtPairs{
		{&k.upsert, `INSERT INTO ` + t + ` (key, value, updated_at) VALUES ($1,$2,now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`},
		{&k.get, `SELECT value FROM ` + t + ` WHERE key = $1`},
		{&k.delete_, `DELETE FROM ` + t + ` WHERE key = $1`},
	})
}

func (k *KeyValue) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("key_value") + ` (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

func (k *KeyValue) Close() {
	for _, st := range []*sql.Stmt{k.upsert, k.get, k.delete_} {
		if st != nil {
			st.Close()
		}
	}
}

// Set is last-writer-wins, per spec.md §4.1's KV contract.
func (k *KeyValue) Set(c util.Context, tx *sql.Tx, key string, value []byte) error {
	_, err := tx.Stmt(k.upsert).ExecContext(c, key, value)
	return err
}

// Get returns (nil, nil) on a missing key rather than an error, so
// callers can distinguish "not found" from a real failure the way
// spec.md §4.1's lookup/get contract does.
func (k *KeyValue) Get(c util.Context, tx *sql.Tx, key string) ([]byte, error) {
	var value []byte
	err := tx.Stmt(k.get).QueryRowContext(c, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return value, err
}

func (k *KeyValue) Delete(c util.Context, tx *sql.Tx, key string) error {
	_, err := tx.Stmt(k.delete_).ExecContext(c, key)
	return err
}
