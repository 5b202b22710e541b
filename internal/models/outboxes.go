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

// OutboxEntryType is spec.md §3's outbox_type enum.
type OutboxEntryType string

const (
	OutboxTypeOriginal OutboxEntryType = "Original"
	OutboxTypeReply    OutboxEntryType = "Reply"
	OutboxTypeRepost   OutboxEntryType = "Repost"
)

// OutboxEntry is spec.md §3's "(account_id, post_id, post_type,
// outbox_type, author_id, published_at)" row.
type OutboxEntry struct {
	ID          int64
	AccountID   int64
	PostID      int64
	PostType    PostType
	OutboxType  OutboxEntryType
	AuthorID    int64
	PublishedAt time.Time
}

var _ Model = &Outboxes{}

type Outboxes struct {
	insert        *sql.Stmt
	deleteRepost  *sql.Stmt
	deleteByPost  *sql.Stmt
}

func (o *Outboxes) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("outboxes")
	return prepareStmtPairs(db, stmtPairs{
		{&o.insert, `INSERT INTO ` + t + ` (account_id, post_id, post_type, outbox_type, author_id, published_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (account_id, post_id, outbox_type) DO NOTHING`},
		{&o.deleteRepost, `DELETE FROM ` + t + ` WHERE account_id = $1 AND post_id = $2 AND outbox_type = 'Repost'`},
		{&o.deleteByPost, `DELETE FROM ` + t + ` WHERE post_id = $1`},
	})
}

func (o *Outboxes) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("outboxes") + ` (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL,
		post_id BIGINT NOT NULL,
		post_type TEXT NOT NULL,
		outbox_type TEXT NOT NULL,
		author_id BIGINT NOT NULL,
		published_at TIMESTAMPTZ NOT NULL,
		UNIQUE (account_id, post_id, outbox_type)
	)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS outboxes_account_id_published_at_idx ON ` +
		s.Table("outboxes") + ` (account_id, published_at DESC)`)
	return err
}

func (o *Outboxes) Close() {
	for _, st := range []*sql.Stmt{o.insert, o.deleteRepost, o.deleteByPost} {
		if st != nil {
			st.Close()
		}
	}
}

// Append is step 3/5 of the post-service save transaction (spec.md
// §4.5): an Original/Reply entry for the author (internal only), or a
// Repost entry per reposting internal account.
func (o *Outboxes) Append(c util.Context, tx *sql.Tx, e OutboxEntry) error {
	_, err := tx.Stmt(o.insert).ExecContext(c, e.AccountID, e.PostID, e.PostType, e.OutboxType, e.AuthorID, e.PublishedAt)
	return err
}

// RemoveRepost undoes a Repost outbox entry on repost removal (spec.md
// §4.5 step 5).
func (o *Outboxes) RemoveRepost(c util.Context, tx *sql.Tx, accountID, postID int64) error {
	_, err := tx.Stmt(o.deleteRepost).ExecContext(c, accountID, postID)
	return err
}

// DeleteByPost removes every outbox entry referencing postID (its
// Original/Reply entry and any accounts' Repost entries), part of the
// Delete handler's cascade (spec.md §4.5 step 6).
func (o *Outboxes) DeleteByPost(c util.Context, tx *sql.Tx, postID int64) error {
	_, err := tx.Stmt(o.deleteByPost).ExecContext(c, postID)
	return err
}
