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

// Likes and Reposts share the (account_id, post_id) shape spec.md §3
// describes for both, so one Model implementation backs each table.

var _ Model = &Likes{}

type Likes struct{ interactionTable }

func NewLikes() *Likes     { return &Likes{newInteractionTable("likes")} }
func (l *Likes) Prepare(db *sql.DB, s SqlDialect) error    { return l.interactionTable.prepare(db, s) }
func (l *Likes) CreateTable(t *sql.Tx, s SqlDialect) error { return l.interactionTable.createTable(t, s) }

var _ Model = &Reposts{}

type Reposts struct{ interactionTable }

func NewReposts() *Reposts  { return &Reposts{newInteractionTable("reposts")} }
func (r *Reposts) Prepare(db *sql.DB, s SqlDialect) error    { return r.interactionTable.prepare(db, s) }
func (r *Reposts) CreateTable(t *sql.Tx, s SqlDialect) error { return r.interactionTable.createTable(t, s) }

// interactionTable implements the idempotent insert/delete/list/count
// contract spec.md §3 requires for Like and Repost ("insertion and
// deletion are idempotent"), grounded on models/likes.go's
// AddLikesForPost/ContainsLikesForPost shape in the teacher.
type interactionTable struct {
	name          string
	insert        *sql.Stmt
	delete_       *sql.Stmt
	exists        *sql.Stmt
	byPost        *sql.Stmt
	count         *sql.Stmt
	deleteByPost  *sql.Stmt
}

func newInteractionTable(name string) interactionTable {
	return interactionTable{name: name}
}

func (i *interactionTable) prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table(i.name)
	return prepareStmtPairs(db, stmtPairs{
		{&i.insert, `INSERT INTO ` + t + ` (account_id, post_id, created_at) VALUES ($1,$2,now())
			ON CONFLICT (account_id, post_id) DO NOTHING`},
		{&i.delete_, `DELETE FROM ` + t + ` WHERE account_id = $1 AND post_id = $2`},
		{&i.exists, `SELECT EXISTS(SELECT 1 FROM ` + t + ` WHERE account_id = $1 AND post_id = $2)`},
		{&i.byPost, `SELECT account_id FROM ` + t + ` WHERE post_id = $1`},
		{&i.count, `SELECT count(*) FROM ` + t + ` WHERE post_id = $1`},
		{&i.deleteByPost, `DELETE FROM ` + t + ` WHERE post_id = $1`},
	})
}

func (i *interactionTable) createTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table(i.name) + ` (
		account_id BIGINT NOT NULL,
		post_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (account_id, post_id)
	)`)
	return err
}

func (i *interactionTable) Close() {
	for _, st := range []*sql.Stmt{i.insert, i.delete_, i.exists, i.byPost, i.count, i.deleteByPost} {
		if st != nil {
			st.Close()
		}
	}
}

// Add is idempotent: re-adding an existing (account, post) pair is a no-op.
func (i *interactionTable) Add(c util.Context, tx *sql.Tx, accountID, postID int64) error {
	_, err := tx.Stmt(i.insert).ExecContext(c, accountID, postID)
	return err
}

// Remove is idempotent: removing an absent pair is a no-op.
func (i *interactionTable) Remove(c util.Context, tx *sql.Tx, accountID, postID int64) error {
	_, err := tx.Stmt(i.delete_).ExecContext(c, accountID, postID)
	return err
}

func (i *interactionTable) Exists(c util.Context, tx *sql.Tx, accountID, postID int64) (bool, error) {
	var b bool
	err := tx.Stmt(i.exists).QueryRowContext(c, accountID, postID).Scan(&b)
	return b, err
}

// AccountIDsForPost returns the snapshot interactionTable.Add/Remove
// diffs against in the post-service save transaction (spec.md §4.5
// step 4).
func (i *interactionTable) AccountIDsForPost(c util.Context, tx *sql.Tx, postID int64) (map[int64]bool, error) {
	rows, err := tx.Stmt(i.byPost).QueryContext(c, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]bool{}
	err = doForRows(rows, func(r SingleRow) error {
		var id int64
		if e := r.Scan(&id); e != nil {
			return e
		}
		out[id] = true
		return nil
	})
	return out, err
}

func (i *interactionTable) Count(c util.Context, tx *sql.Tx, postID int64) (n int, err error) {
	err = tx.Stmt(i.count).QueryRowContext(c, postID).Scan(&n)
	return
}

// DeleteByPost removes every row for postID, part of the Delete
// handler's cascade (spec.md §4.5 step 6: "delete likes/mentions/
// outboxes of this post").
func (i *interactionTable) DeleteByPost(c util.Context, tx *sql.Tx, postID int64) error {
	_, err := tx.Stmt(i.deleteByPost).ExecContext(c, postID)
	return err
}

var _ Model = &Follows{}

// Follows is the Model for the (follower_id, following_id) table
// spec.md §3 defines as unique with created_at.
type Follows struct {
	insert  *sql.Stmt
	delete_ *sql.Stmt
	exists  *sql.Stmt
}

func (f *Follows) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("follows")
	return prepareStmtPairs(db, stmtPairs{
		{&f.insert, `INSERT INTO ` + t + ` (follower_id, following_id, created_at) VALUES ($1,$2,now())
			ON CONFLICT (follower_id, following_id) DO NOTHING`},
		{&f.delete_, `DELETE FROM ` + t + ` WHERE follower_id = $1 AND following_id = $2`},
		{&f.exists, `SELECT EXISTS(SELECT 1 FROM ` + t + ` WHERE follower_id = $1 AND following_id = $2)`},
	})
}

func (f *Follows) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("follows") + ` (
		follower_id BIGINT NOT NULL,
		following_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (follower_id, following_id)
	)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS follows_following_id_idx ON ` + s.Table("follows") + ` (following_id)`)
	return err
}

func (f *Follows) Close() {
	for _, st := range []*sql.Stmt{f.insert, f.delete_, f.exists} {
		if st != nil {
			st.Close()
		}
	}
}

// Follow upserts (follower, following); idempotent on a repeat Follow
// activity per spec.md §4.3's "duplicate follow row is ignored".
func (f *Follows) Follow(c util.Context, tx *sql.Tx, followerID, followingID int64) error {
	_, err := tx.Stmt(f.insert).ExecContext(c, followerID, followingID)
	return err
}

func (f *Follows) Unfollow(c util.Context, tx *sql.Tx, followerID, followingID int64) error {
	_, err := tx.Stmt(f.delete_).ExecContext(c, followerID, followingID)
	return err
}

func (f *Follows) IsFollowing(c util.Context, tx *sql.Tx, followerID, followingID int64) (bool, error) {
	var b bool
	err := tx.Stmt(f.exists).QueryRowContext(c, followerID, followingID).Scan(&b)
	return b, err
}

var _ Model = &Blocks{}

// Blocks is (blocker_id, blocked_id), the per-account moderation edge
// consulted by ModerationService.canInteractWithAccount (spec.md §4.7).
type Blocks struct {
	insert  *sql.Stmt
	delete_ *sql.Stmt
	exists  *sql.Stmt
}

func (b *Blocks) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("blocks")
	return prepareStmtPairs(db, stmtPairs{
		{&b.insert, `INSERT INTO ` + t + ` (blocker_id, blocked_id, created_at) VALUES ($1,$2,now())
			ON CONFLICT (blocker_id, blocked_id) DO NOTHING`},
		{&b.delete_, `DELETE FROM ` + t + ` WHERE blocker_id = $1 AND blocked_id = $2`},
		{&b.exists, `SELECT EXISTS(SELECT 1 FROM ` + t + ` WHERE blocker_id = $1 AND blocked_id = $2)`},
	})
}

func (b *Blocks) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("blocks") + ` (
		blocker_id BIGINT NOT NULL,
		blocked_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (blocker_id, blocked_id)
	)`)
	return err
}

func (b *Blocks) Close() {
	for _, st := range []*sql.Stmt{b.insert, b.delete_, b.exists} {
		if st != nil {
			st.Close()
		}
	}
}

func (b *Blocks) Block(c util.Context, tx *sql.Tx, blockerID, blockedID int64) error {
	_, err := tx.Stmt(b.insert).ExecContext(c, blockerID, blockedID)
	return err
}

func (b *Blocks) Unblock(c util.Context, tx *sql.Tx, blockerID, blockedID int64) error {
	_, err := tx.Stmt(b.delete_).ExecContext(c, blockerID, blockedID)
	return err
}

func (b *Blocks) Exists(c util.Context, tx *sql.Tx, blockerID, blockedID int64) (bool, error) {
	var v bool
	err := tx.Stmt(b.exists).QueryRowContext(c, blockerID, blockedID).Scan(&v)
	return v, err
}

var _ Model = &DomainBlocks{}

// DomainBlocks is (blocker_id, domain_hash), gating interactions with
// an entire remote domain (spec.md §4.7).
type DomainBlocks struct {
	insert  *sql.Stmt
	delete_ *sql.Stmt
	exists  *sql.Stmt
}

func (d *DomainBlocks) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("domain_blocks")
	return prepareStmtPairs(db, stmtPairs{
		{&d.insert, `INSERT INTO ` + t + ` (blocker_id, domain_hash, created_at) VALUES ($1,$2,now())
			ON CONFLICT (blocker_id, domain_hash) DO NOTHING`},
		{&d.delete_, `DELETE FROM ` + t + ` WHERE blocker_id = $1 AND domain_hash = $2`},
		{&d.exists, `SELECT EXISTS(SELECT 1 FROM ` + t + ` WHERE blocker_id = $1 AND domain_hash = $2)`},
	})
}

func (d *DomainBlocks) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("domain_blocks") + ` (
		blocker_id BIGINT NOT NULL,
		domain_hash CHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (blocker_id, domain_hash)
	)`)
	return err
}

func (d *DomainBlocks) Close() {
	for _, st := range []*sql.Stmt{d.insert, d.delete_, d.exists} {
		if st != nil {
			st.Close()
		}
	}
}

func (d *DomainBlocks) Block(c util.Context, tx *sql.Tx, blockerID int64, domainHash string) error {
	_, err := tx.Stmt(d.insert).ExecContext(c, blockerID, domainHash)
	return err
}

func (d *DomainBlocks) Unblock(c util.Context, tx *sql.Tx, blockerID int64, domainHash string) error {
	_, err := tx.Stmt(d.delete_).ExecContext(c, blockerID, domainHash)
	return err
}

func (d *DomainBlocks) Exists(c util.Context, tx *sql.Tx, blockerID int64, domainHash string) (bool, error) {
	var v bool
	err := tx.Stmt(d.exists).QueryRowContext(c, blockerID, domainHash).Scan(&v)
	return v, err
}
