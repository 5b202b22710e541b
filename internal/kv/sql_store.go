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

package kv

import (
	"database/sql"

	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/util"
)

var _ Store = &SQLStore{}

// SQLStore is the key_value-table-backed Store, grounded on
// models/local_data.go and models/fed_data.go's Exists/Get/Create
// pattern in the teacher, collapsed to a single table since this
// system has no local-vs-federated distinction at the KV layer (that
// distinction is carried instead by Account.IsInternal upstream).
type SQLStore struct {
	db *sql.DB
	kv *models.KeyValue
}

func NewSQLStore(db *sql.DB, kvModel *models.KeyValue) *SQLStore {
	return &SQLStore{db: db, kv: kvModel}
}

func (s *SQLStore) Get(c util.Context, key string) ([]byte, error) {
	tx, err := s.db.BeginTx(c, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	v, err := s.kv.Get(c, tx, key)
	if err != nil {
		return nil, err
	}
	return v, tx.Commit()
}

func (s *SQLStore) Set(c util.Context, key string, value []byte) error {
	tx, err := s.db.BeginTx(c, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.kv.Set(c, tx, key, value); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(c util.Context, key string) error {
	tx, err := s.db.BeginTx(c, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.kv.Delete(c, tx, key); err != nil {
		return err
	}
	return tx.Commit()
}
