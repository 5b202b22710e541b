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
	"fmt"
	"strings"
	"time"

	"github.com/tryghost/activitypub/internal/util"
)

// FeedPostType mirrors Post.Type but narrowed to what a feed row can
// reference (spec.md §3's Feed.post_type).
type FeedPostType string

const (
	FeedPostTypeNote    FeedPostType = "Note"
	FeedPostTypeArticle FeedPostType = "Article"
)

// FeedKind selects Feed (home timeline, Notes only) vs Inbox
// (Articles only), per spec.md §4.10's dispatcher filter.
type FeedKind int

const (
	FeedKindFeed FeedKind = iota
	FeedKindInbox
)

// FeedRow is one materialized per-user feed entry (spec.md §3: "(user_id,
// post_id, post_type, audience, author_id, reposted_by_id?, id auto)").
type FeedRow struct {
	ID           int64
	UserID       int64
	PostID       int64
	PostType     FeedPostType
	Audience     Audience
	AuthorID     int64
	RepostedByID *int64
	CreatedAt    time.Time
}

// FeedItem is a feed row joined with its post and interaction
// annotations, as spec.md §4.4's feed read query requires.
type FeedItem struct {
	FeedRow
	Post           *Post
	LikedByUser    bool
	RepostedByUser bool
}

var _ Model = &Feeds{}

type Feeds struct {
	insert    *sql.Stmt
	deleteRow *sql.Stmt
	page      *sql.Stmt
}

func (f *Feeds) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("feeds")
	return prepareStmtPairs(db, stmtPairs{
		{&f.insert, `INSERT INTO ` + t + ` (user_id, post_id, post_type, audience, author_id,
			reposted_by_id, created_at) VALUES ($1,$2,$3,$4,$5,$6,now())
			ON CONFLICT (user_id, post_id, reposted_by_id) DO NOTHING`},
		{&f.deleteRow, `DELETE FROM ` + t + ` WHERE user_id = $1 AND post_id = $2
			AND reposted_by_id IS NOT DISTINCT FROM $3`},
		{&f.page, `SELECT f.id, f.user_id, f.post_id, f.post_type, f.audience, f.author_id,
			f.reposted_by_id, f.created_at,
			` + postSelectColsPrefixed("p") + `,
			EXISTS(SELECT 1 FROM ` + s.Table("likes") + ` l WHERE l.post_id = f.post_id AND l.account_id = $1) liked,
			EXISTS(SELECT 1 FROM ` + s.Table("reposts") + ` rp WHERE rp.post_id = f.post_id AND rp.account_id = $1) reposted
			FROM ` + t + ` f JOIN ` + s.Table("posts") + ` p ON p.id = f.post_id
			WHERE f.user_id = $1 AND f.post_type = $2 AND f.id < $3
			ORDER BY f.id DESC LIMIT $4`},
	})
}

// postSelectColsPrefixed renders postSelectCols' column list qualified
// by alias, for use inside joined queries that also select other
// tables' columns.
func postSelectColsPrefixed(alias string) string {
	cols := []string{"id", "uuid", "type", "audience", "title", "excerpt", "summary", "content",
		"url", "image_url", "published_at", "ap_id", "ap_id_hash", "author_id", "in_reply_to",
		"thread_root", "like_count", "repost_count", "reply_count", "reading_time_minutes",
		"attachments", "mentions", "metadata", "deleted_at", "updated_at", "created_at"}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprintf("%s.%s", alias, c)
	}
	return strings.Join(out, ", ")
}

func (f *Feeds) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("feeds") + ` (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		post_id BIGINT NOT NULL,
		post_type TEXT NOT NULL,
		audience TEXT NOT NULL,
		author_id BIGINT NOT NULL,
		reposted_by_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, post_id, reposted_by_id)
	)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS feeds_user_id_id_idx ON ` + s.Table("feeds") + ` (user_id, id DESC)`)
	return err
}

func (f *Feeds) Close() {
	for _, st := range []*sql.Stmt{f.insert, f.deleteRow, f.page} {
		if st != nil {
			st.Close()
		}
	}
}

// Insert is one row of the chunked, ON CONFLICT IGNORE batch spec.md
// §4.4 requires ("Insert feed rows in a single transaction, in chunks
// of 1,000"); chunking itself is the feed engine service's concern.
func (f *Feeds) Insert(c util.Context, tx *sql.Tx, row FeedRow) error {
	_, err := tx.Stmt(f.insert).ExecContext(c, row.UserID, row.PostID, row.PostType, row.Audience,
		row.AuthorID, row.RepostedByID)
	return err
}

func (f *Feeds) Delete(c util.Context, tx *sql.Tx, userID, postID int64, repostedByID *int64) error {
	_, err := tx.Stmt(f.deleteRow).ExecContext(c, userID, postID, repostedByID)
	return err
}

// Page returns up to limit+1 feed items older than cursor, so the
// caller can detect a next page per spec.md §4.4's "return limit+1
// rows to compute nextCursor". The feed's owner is also the viewer
// whose likes/reposts annotate each item.
func (f *Feeds) Page(c util.Context, tx *sql.Tx, userID int64, kind FeedKind, cursor int64, limit int) ([]*FeedItem, error) {
	postType := FeedPostTypeNote
	if kind == FeedKindInbox {
		postType = FeedPostTypeArticle
	}
	rows, err := tx.Stmt(f.page).QueryContext(c, userID, postType, cursor, limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*FeedItem
	err = doForRows(rows, func(r SingleRow) error {
		item := &FeedItem{Post: &Post{}}
		if e := r.Scan(&item.ID, &item.UserID, &item.PostID, &item.PostType, &item.Audience,
			&item.AuthorID, &item.RepostedByID, &item.CreatedAt,
			&item.Post.ID, &item.Post.UUID, &item.Post.Type, &item.Post.Audience, &item.Post.Title,
			&item.Post.Excerpt, &item.Post.Summary, &item.Post.Content, &item.Post.URL,
			&item.Post.ImageURL, &item.Post.PublishedAt, &item.Post.APID, &item.Post.APIDHash,
			&item.Post.AuthorID, &item.Post.InReplyTo, &item.Post.ThreadRoot, &item.Post.LikeCount,
			&item.Post.RepostCount, &item.Post.ReplyCount, &item.Post.ReadingTimeMinutes,
			&item.Post.Attachments, &item.Post.Mentions, &item.Post.Metadata, &item.Post.DeletedAt,
			&item.Post.UpdatedAt, &item.Post.CreatedAt,
			&item.LikedByUser, &item.RepostedByUser); e != nil {
			return e
		}
		out = append(out, item)
		return nil
	})
	return out, err
}
