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
	"time"

	"github.com/tryghost/activitypub/internal/util"
)

// NotificationType is the minimal notifications table this repo adds
// to give the (out-of-scope) admin REST surface something to read, per
// SPEC_FULL.md's supplemented-features note.
type NotificationType string

const (
	NotificationLiked    NotificationType = "Liked"
	NotificationReposted NotificationType = "Reposted"
	NotificationFollowed NotificationType = "Followed"
	NotificationReplied  NotificationType = "Replied"
)

type Notification struct {
	ID        int64
	AccountID int64 // recipient
	ActorID   int64 // who did it
	Type      NotificationType
	PostID    *int64
	CreatedAt time.Time
}

var _ Model = &Notifications{}

type Notifications struct {
	insert *sql.Stmt
	page   *sql.Stmt
}

func (n *Notifications) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("notifications")
	return prepareStmtPairs(db, stmtPairs{
		{&n.insert, `INSERT INTO ` + t + ` (account_id, actor_id, type, post_id, created_at)
			VALUES ($1,$2,$3,$4,now())`},
		{&n.page, `SELECT id, account_id, actor_id, type, post_id, created_at FROM ` + t + `
			WHERE account_id = $1 AND id < $2 ORDER BY id DESC LIMIT $3`},
	})
}

func (n *Notifications) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("notifications") + ` (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL,
		actor_id BIGINT NOT NULL,
		type TEXT NOT NULL,
		post_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS notifications_account_id_id_idx ON ` +
		s.Table("notifications") + ` (account_id, id DESC)`)
	return err
}

func (n *Notifications) Close() {
	for _, st := range []*sql.Stmt{n.insert, n.page} {
		if st != nil {
			st.Close()
		}
	}
}

func (n *Notifications) Insert(c util.Context, tx *sql.Tx, note Notification) error {
	_, err := tx.Stmt(n.insert).ExecContext(c, note.AccountID, note.ActorID, note.Type, note.PostID)
	return err
}

func (n *Notifications) Page(c util.Context, tx *sql.Tx, accountID int64, cursor int64, limit int) ([]*Notification, error) {
	rows, err := tx.Stmt(n.page).QueryContext(c, accountID, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Notification
	err = doForRows(rows, func(r SingleRow) error {
		note := &Notification{}
		if e := r.Scan(&note.ID, &note.AccountID, &note.ActorID, &note.Type, &note.PostID, &note.CreatedAt); e != nil {
			return e
		}
		out = append(out, note)
		return nil
	})
	return out, err
}
