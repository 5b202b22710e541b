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

type PostType string

const (
	PostTypeArticle   PostType = "Article"
	PostTypeNote      PostType = "Note"
	PostTypeTombstone PostType = "Tombstone"
)

type Audience string

const (
	AudiencePublic         Audience = "Public"
	AudienceFollowersOnly  Audience = "FollowersOnly"
)

// Post is the spec.md §3 Post row.
type Post struct {
	ID                  int64
	UUID                string
	Type                PostType
	Audience            Audience
	Title               string
	Excerpt             string
	Summary             string
	Content             string
	URL                 string
	ImageURL            string
	PublishedAt         time.Time
	APID                string
	APIDHash            string
	AuthorID            int64
	InReplyTo           *int64
	ThreadRoot          *int64
	LikeCount           int
	RepostCount         int
	ReplyCount          int
	ReadingTimeMinutes  int
	Attachments         Attachments
	Mentions            MentionSet
	Metadata            Metadata
	DeletedAt           *time.Time
	UpdatedAt           time.Time
	CreatedAt           time.Time
}

func (p *Post) IsDeleted() bool { return p.DeletedAt != nil }

var _ Model = &Posts{}

type Posts struct {
	insert          *sql.Stmt
	byAPIDHash      *sql.Stmt
	byID            *sql.Stmt
	updateMutable   *sql.Stmt
	incrReplyCount  *sql.Stmt
	decrReplyCount  *sql.Stmt
	setCounts       *sql.Stmt
	tombstone       *sql.Stmt
	outboxPage      *sql.Stmt
	outboxCount     *sql.Stmt
	keysetPage      *sql.Stmt
}

// PostsCursor is the (updated_at, id) keyset position KeysetPage
// resumes from, replacing an OFFSET scan per spec.md §9's redesign
// flag ("the source's LIMIT/OFFSET external-account refresh scan is
// unsafe under concurrent mutation; use a keyset scan instead").
type PostsCursor struct {
	UpdatedAt time.Time
	ID        int64
}

func (p *Posts) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("posts")
	return prepareStmtPairs(db, stmtPairs{
		{&p.insert, `INSERT INTO ` + t + ` (uuid, type, audience, title, excerpt, summary, content,
			url, image_url, published_at, ap_id, ap_id_hash, author_id, in_reply_to, thread_root,
			like_count, repost_count, reply_count, reading_time_minutes, attachments, mentions,
			metadata, updated_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,now(),now())
			ON CONFLICT (ap_id_hash) DO NOTHING
			RETURNING id`},
		{&p.byAPIDHash, postSelectCols + ` FROM ` + t + ` WHERE ap_id_hash = $1`},
		{&p.byID, postSelectCols + ` FROM ` + t + ` WHERE id = $1`},
		{&p.updateMutable, `UPDATE ` + t + ` SET title=$2, excerpt=$3, summary=$4, content=$5,
			url=$6, image_url=$7, attachments=$8, mentions=$9, metadata=$10, updated_at=now()
			WHERE id=$1`},
		{&p.incrReplyCount, `UPDATE ` + t + ` SET reply_count = reply_count + 1 WHERE id = $1`},
		{&p.decrReplyCount, `UPDATE ` + t + ` SET reply_count = GREATEST(reply_count - 1, 0) WHERE id = $1`},
		{&p.setCounts, `UPDATE ` + t + ` SET like_count=$2, repost_count=$3 WHERE id=$1`},
		{&p.tombstone, `UPDATE ` + t + ` SET type='Tombstone', title='', excerpt='', summary='',
			content='', image_url='', attachments='[]', mentions='[]', deleted_at=now(), updated_at=now()
			WHERE id=$1`},
		{&p.outboxPage, `SELECT ` + t + `.id, ` + t + `.ap_id, ` + t + `.type, o.outbox_type, o.published_at
			FROM ` + s.Table("outboxes") + ` o JOIN ` + t + ` ON ` + t + `.id = o.post_id
			WHERE o.account_id = $1 AND o.outbox_type != 'Reply' AND o.published_at < $2
			ORDER BY o.published_at DESC LIMIT $3`},
		{&p.outboxCount, `SELECT COUNT(*) FROM ` + s.Table("outboxes") + `
			WHERE account_id = $1 AND outbox_type != 'Reply'`},
		{&p.keysetPage, postSelectCols + ` FROM ` + t + `
			WHERE (updated_at, id) > ($1, $2) ORDER BY updated_at, id LIMIT $3`},
	})
}

const postSelectCols = `SELECT id, uuid, type, audience, title, excerpt, summary, content, url,
	image_url, published_at, ap_id, ap_id_hash, author_id, in_reply_to, thread_root, like_count,
	repost_count, reply_count, reading_time_minutes, attachments, mentions, metadata, deleted_at,
	updated_at, created_at`

func (p *Posts) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("posts") + ` (
		id BIGSERIAL PRIMARY KEY,
		uuid TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		audience TEXT NOT NULL DEFAULT 'Public',
		title TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		ap_id TEXT NOT NULL,
		ap_id_hash CHAR(64) NOT NULL UNIQUE,
		author_id BIGINT NOT NULL,
		in_reply_to BIGINT,
		thread_root BIGINT,
		like_count INT NOT NULL DEFAULT 0,
		repost_count INT NOT NULL DEFAULT 0,
		reply_count INT NOT NULL DEFAULT 0,
		reading_time_minutes INT NOT NULL DEFAULT 0,
		attachments JSONB NOT NULL DEFAULT '[]',
		mentions JSONB NOT NULL DEFAULT '[]',
		metadata JSONB NOT NULL DEFAULT '{}',
		deleted_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS posts_author_id_idx ON ` + s.Table("posts") + ` (author_id)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS posts_in_reply_to_idx ON ` + s.Table("posts") + ` (in_reply_to)`)
	return err
}

func (p *Posts) Close() {
	for _, st := range []*sql.Stmt{p.insert, p.byAPIDHash, p.byID, p.updateMutable,
		p.incrReplyCount, p.decrReplyCount, p.setCounts, p.tombstone, p.outboxPage, p.outboxCount, p.keysetPage} {
		if st != nil {
			st.Close()
		}
	}
}

func scanPost(r SingleRow) (*Post, error) {
	post := &Post{}
	err := r.Scan(&post.ID, &post.UUID, &post.Type, &post.Audience, &post.Title, &post.Excerpt,
		&post.Summary, &post.Content, &post.URL, &post.ImageURL, &post.PublishedAt, &post.APID,
		&post.APIDHash, &post.AuthorID, &post.InReplyTo, &post.ThreadRoot, &post.LikeCount,
		&post.RepostCount, &post.ReplyCount, &post.ReadingTimeMinutes, &post.Attachments,
		&post.Mentions, &post.Metadata, &post.DeletedAt, &post.UpdatedAt, &post.CreatedAt)
	return post, err
}

// Insert creates a post row, returning the existing id on a duplicate
// ap_id_hash (spec.md §3: "a new-and-already-deleted post is never
// persisted" combined with §5's idempotent-insert contract).
func (p *Posts) Insert(c util.Context, tx *sql.Tx, post *Post) (int64, bool, error) {
	row := tx.Stmt(p.insert).QueryRowContext(c, post.UUID, post.Type, post.Audience, post.Title,
		post.Excerpt, post.Summary, post.Content, post.URL, post.ImageURL, post.PublishedAt,
		post.APID, post.APIDHash, post.AuthorID, post.InReplyTo, post.ThreadRoot, post.LikeCount,
		post.RepostCount, post.ReplyCount, post.ReadingTimeMinutes, post.Attachments, post.Mentions,
		post.Metadata)
	var id int64
	err := row.Scan(&id)
	if err == sql.ErrNoRows {
		existing, ferr := p.ByAPIDHash(c, tx, post.APIDHash)
		if ferr != nil {
			return 0, false, ferr
		}
		return existing.ID, true, nil
	}
	return id, false, err
}

func (p *Posts) ByAPIDHash(c util.Context, tx *sql.Tx, hash string) (*Post, error) {
	rows, err := tx.Stmt(p.byAPIDHash).QueryContext(c, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Post
	err = enforceOneRow(rows, "Posts.ByAPIDHash", func(r SingleRow) (e error) {
		out, e = scanPost(r)
		return e
	})
	return out, err
}

func (p *Posts) ByID(c util.Context, tx *sql.Tx, id int64) (*Post, error) {
	rows, err := tx.Stmt(p.byID).QueryContext(c, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Post
	err = enforceOneRow(rows, "Posts.ByID", func(r SingleRow) (e error) {
		out, e = scanPost(r)
		return e
	})
	return out, err
}

func (p *Posts) UpdateMutable(c util.Context, tx *sql.Tx, post *Post) error {
	r, err := tx.Stmt(p.updateMutable).ExecContext(c, post.ID, post.Title, post.Excerpt,
		post.Summary, post.Content, post.URL, post.ImageURL, post.Attachments, post.Mentions,
		post.Metadata)
	return mustChangeOneRow(r, err, "Posts.UpdateMutable")
}

func (p *Posts) IncrReplyCount(c util.Context, tx *sql.Tx, postID int64) error {
	r, err := tx.Stmt(p.incrReplyCount).ExecContext(c, postID)
	return mustChangeOneRow(r, err, "Posts.IncrReplyCount")
}

func (p *Posts) DecrReplyCount(c util.Context, tx *sql.Tx, postID int64) error {
	r, err := tx.Stmt(p.decrReplyCount).ExecContext(c, postID)
	return mustChangeOneRow(r, err, "Posts.DecrReplyCount")
}

func (p *Posts) SetCounts(c util.Context, tx *sql.Tx, postID int64, likeCount, repostCount int) error {
	r, err := tx.Stmt(p.setCounts).ExecContext(c, postID, likeCount, repostCount)
	return mustChangeOneRow(r, err, "Posts.SetCounts")
}

// Tombstone applies the spec.md §3 tombstone transition: nulls out the
// presentational fields and the mentions list, sets deleted_at,
// preserves ap_id and counts.
func (p *Posts) Tombstone(c util.Context, tx *sql.Tx, postID int64) error {
	r, err := tx.Stmt(p.tombstone).ExecContext(c, postID)
	return mustChangeOneRow(r, err, "Posts.Tombstone")
}

// OutboxItem is a lightweight row used to reconstitute Create/Announce
// activities at outbox-read time (spec.md §4.10): OutboxType tells the
// dispatcher whether this entry wraps the post's own Create (Original)
// or a reposting account's Announce (Repost).
type OutboxItem struct {
	PostID      int64
	APID        string
	Type        PostType
	OutboxType  OutboxEntryType
	PublishedAt time.Time
}

// KeysetPage returns up to limit posts strictly after the (updated_at,
// id) cursor, ordered the same way, along with the cursor to resume
// from for the next call (the last row's own position, or the input
// cursor unchanged if the page was empty).
func (p *Posts) KeysetPage(c util.Context, tx *sql.Tx, after PostsCursor, limit int) ([]*Post, PostsCursor, error) {
	rows, err := tx.Stmt(p.keysetPage).QueryContext(c, after.UpdatedAt, after.ID, limit)
	if err != nil {
		return nil, after, err
	}
	defer rows.Close()
	var out []*Post
	err = doForRows(rows, func(r SingleRow) error {
		post, e := scanPost(r)
		if e != nil {
			return e
		}
		out = append(out, post)
		return nil
	})
	if err != nil {
		return nil, after, err
	}
	next := after
	if len(out) > 0 {
		last := out[len(out)-1]
		next = PostsCursor{UpdatedAt: last.UpdatedAt, ID: last.ID}
	}
	return out, next, nil
}

// OutboxPage returns posts published before cursor for the given
// account's outbox, timestamp-cursor paginated per spec.md §4.10.
func (p *Posts) OutboxPage(c util.Context, tx *sql.Tx, accountID int64, cursor time.Time, limit int) ([]*OutboxItem, error) {
	rows, err := tx.Stmt(p.outboxPage).QueryContext(c, accountID, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*OutboxItem
	err = doForRows(rows, func(r SingleRow) error {
		item := &OutboxItem{}
		if e := r.Scan(&item.PostID, &item.APID, &item.Type, &item.OutboxType, &item.PublishedAt); e != nil {
			return e
		}
		out = append(out, item)
		return nil
	})
	return out, err
}

// OutboxCount is the outbox collection's totalItems (spec.md §4.10).
func (p *Posts) OutboxCount(c util.Context, tx *sql.Tx, accountID int64) (int, error) {
	var n int
	err := tx.Stmt(p.outboxCount).QueryRowContext(c, accountID).Scan(&n)
	return n, err
}
