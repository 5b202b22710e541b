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

package services

import (
	"database/sql"

	"github.com/tryghost/activitypub/internal/events"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/util"
)

// FeedEngine implements spec.md §4.4: it subscribes to post.created/
// post.reposted/post.deleted/post.dereposted and maintains the
// materialized feeds table. New relative to the teacher (apcore has
// no feed concept); grounded on the chunked idempotent-insert idiom
// the teacher's models package uses throughout (ON CONFLICT IGNORE,
// mustChangeOneRow).
type FeedEngine struct {
	db        *sql.DB
	feeds     *models.Feeds
	accounts  *models.Accounts
	bus       *events.Bus
	chunkSize int
}

func NewFeedEngine(db *sql.DB, feeds *models.Feeds, accounts *models.Accounts, bus *events.Bus, chunkSize int) *FeedEngine {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &FeedEngine{db: db, feeds: feeds, accounts: accounts, bus: bus, chunkSize: chunkSize}
}

// Subscribe registers this engine's handlers on bus, wiring fan-out
// to the events the post service's save transaction emits.
func (f *FeedEngine) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.KindPostCreated, func(c util.Context, e events.Event) error {
		d := e.Data.(events.PostCreatedData)
		return f.addPostToFeeds(c, d.Post, nil)
	})
	bus.Subscribe(events.KindPostReposted, func(c util.Context, e events.Event) error {
		d := e.Data.(events.PostRepostedData)
		return f.addPostToFeeds(c, d.Post, d.RepostedBy)
	})
	bus.Subscribe(events.KindPostDeleted, func(c util.Context, e events.Event) error {
		d := e.Data.(events.PostDeletedData)
		return f.removePostFromFeeds(c, d.Post, nil)
	})
	bus.Subscribe(events.KindPostDereposted, func(c util.Context, e events.Event) error {
		d := e.Data.(events.PostDerepostedData)
		return f.removePostFromFeeds(c, d.Post, d.DerepostedBy)
	})
}

// targetUserIDs resolves the fan-out set for a post, per spec.md
// §4.4: the reposter (or author) plus everyone who follows them.
// Account ID is used directly as the feed's user ID; the users table's
// own ids are not joined through (spec.md's single-tenant account
// model collapses the teacher's account/user split).
func (f *FeedEngine) targetUserIDs(c util.Context, tx *sql.Tx, post *models.Post, repostedBy *models.Account) ([]int64, error) {
	subjectID := post.AuthorID
	ids := []int64{post.AuthorID}
	if repostedBy != nil {
		subjectID = repostedBy.ID
		ids = []int64{repostedBy.ID}
	}
	followers, err := f.accounts.FollowersAll(c, tx, subjectID)
	if err != nil {
		return nil, err
	}
	for _, a := range followers {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func chunk(ids []int64, size int) [][]int64 {
	var out [][]int64
	for size > 0 && len(ids) > 0 {
		if len(ids) <= size {
			out = append(out, ids)
			break
		}
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	return out
}

// addPostToFeeds inserts feed rows for the post's fan-out set, in
// chunks of chunkSize, all within one transaction (spec.md §4.4).
// Replies are never fed.
func (f *FeedEngine) addPostToFeeds(c util.Context, post *models.Post, repostedBy *models.Account) error {
	if post.InReplyTo != nil {
		return nil
	}

	var userIDs []int64
	err := doInTx(c, f.db, func(tx *sql.Tx) error {
		ids, err := f.targetUserIDs(c, tx, post, repostedBy)
		if err != nil {
			return err
		}
		userIDs = ids
		var repostedByID *int64
		if repostedBy != nil {
			repostedByID = &repostedBy.ID
		}
		for _, batch := range chunk(ids, f.chunkSize) {
			for _, userID := range batch {
				row := models.FeedRow{
					UserID: userID, PostID: post.ID, PostType: feedPostType(post.Type),
					Audience: post.Audience, AuthorID: post.AuthorID, RepostedByID: repostedByID,
				}
				if err := f.feeds.Insert(c, tx, row); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return newErr("addPostToFeeds", KindInvalidData, err)
	}

	return f.bus.Publish(c, events.Event{
		Kind: events.KindFeedsUpdated,
		Data: events.FeedsUpdatedData{UserIDs: userIDs, Change: events.FeedChangePostAdded, Post: post},
	})
}

// removePostFromFeeds mirrors addPostToFeeds (spec.md §4.4).
func (f *FeedEngine) removePostFromFeeds(c util.Context, post *models.Post, dereposter *models.Account) error {
	var userIDs []int64
	err := doInTx(c, f.db, func(tx *sql.Tx) error {
		ids, err := f.targetUserIDs(c, tx, post, dereposter)
		if err != nil {
			return err
		}
		userIDs = ids
		var repostedByID *int64
		if dereposter != nil {
			repostedByID = &dereposter.ID
		}
		for _, userID := range ids {
			if err := f.feeds.Delete(c, tx, userID, post.ID, repostedByID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return newErr("removePostFromFeeds", KindInvalidData, err)
	}

	return f.bus.Publish(c, events.Event{
		Kind: events.KindFeedsUpdated,
		Data: events.FeedsUpdatedData{UserIDs: userIDs, Change: events.FeedChangePostRemoved, Post: post},
	})
}

// feedPostType maps a post's storage type onto spec.md §4.4's feed
// post_type filter (Note -> Feed, Article -> Inbox).
func feedPostType(t models.PostType) models.FeedPostType {
	if t == models.PostTypeArticle {
		return models.FeedPostTypeArticle
	}
	return models.FeedPostTypeNote
}

// Page is the paginated feed read spec.md §4.4 describes, delegating
// straight to the model's join/filter/paginate query.
func (f *FeedEngine) Page(c util.Context, userID int64, kind models.FeedKind, cursor int64, limit int) ([]*models.FeedItem, error) {
	var items []*models.FeedItem
	err := doInTx(c, f.db, func(tx *sql.Tx) error {
		page, err := f.feeds.Page(c, tx, userID, kind, cursor, limit)
		if err != nil {
			return err
		}
		items = page
		return nil
	})
	if err != nil {
		return nil, newErr("Page", KindInvalidData, err)
	}
	return items, nil
}
