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
	"context"
	"database/sql"
)

// DB bundles every table's Model alongside the opened connection and
// dialect, grounded on dep_inj.go's newModels/createModelsAndServices
// return shape in the teacher.
type DB struct {
	SQL     *sql.DB
	Dialect SqlDialect

	Accounts      *Accounts
	Sites         *Sites
	Users         *Users
	Posts         *Posts
	Likes         *Likes
	Reposts       *Reposts
	Follows       *Follows
	Blocks        *Blocks
	DomainBlocks  *DomainBlocks
	Feeds         *Feeds
	Outboxes      *Outboxes
	Notifications *Notifications
	KeyValue      *KeyValue
}

// NewDB wires every table Model against the given connection, grounded
// on dep_inj.go's newModels.
func NewDB(sqldb *sql.DB, dialect SqlDialect) (*DB, error) {
	d := &DB{
		SQL:           sqldb,
		Dialect:       dialect,
		Accounts:      &Accounts{},
		Sites:         &Sites{},
		Users:         &Users{},
		Posts:         &Posts{},
		Likes:         NewLikes(),
		Reposts:       NewReposts(),
		Follows:       &Follows{},
		Blocks:        &Blocks{},
		DomainBlocks:  &DomainBlocks{},
		Feeds:         &Feeds{},
		Outboxes:      &Outboxes{},
		Notifications: &Notifications{},
		KeyValue:      &KeyValue{},
	}
	for _, m := range d.all() {
		if err := m.Prepare(sqldb, dialect); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *DB) all() []Model {
	return []Model{d.Accounts, d.Sites, d.Users, d.Posts, d.Likes, d.Reposts, d.Follows, d.Blocks,
		d.DomainBlocks, d.Feeds, d.Outboxes, d.Notifications, d.KeyValue}
}

// CreateTables runs every Model's CreateTable in one transaction,
// grounded on actions.go's doCreateTables.
func (d *DB) CreateTables(ctx context.Context) error {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, m := range d.all() {
		if err := m.CreateTable(tx, d.Dialect); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close releases every prepared statement.
func (d *DB) Close() {
	for _, m := range d.all() {
		m.Close()
	}
}
