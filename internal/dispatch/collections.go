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

package dispatch

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/go-fed/activity/streams/vocab"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

func (rt *Router) parseAccountID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// handleFollowers serves GET /followers/{id}, an unpaginated snapshot
// per spec.md §4.10 ("all followers (bounded) as recipient objects").
func (rt *Router) handleFollowers(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())
	id, err := rt.parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	followers, err := rt.accounts.GetFollowerAccounts(c, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	iris := make([]string, len(followers))
	for i, f := range followers {
		iris[i] = f.APID
	}

	collIRI := paths.FollowersIRI(rt.scheme, rt.host, strconv.FormatInt(id, 10)).String()
	coll := gfactivity.BuildOrderedCollection(collIRI, iris, len(iris))
	body, err := gfactivity.Marshal(coll)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshaling followers")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}

// handleFollowing serves GET /following/{id}, offset-cursor paginated
// per spec.md §4.10, page size from ActivityPubConfig.FollowingPageSize.
func (rt *Router) handleFollowing(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())
	id, err := rt.parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	page := 0
	if v := r.URL.Query().Get("page"); v != "" {
		page, _ = strconv.Atoi(v)
		if page < 0 {
			page = 0
		}
	}
	limit := rt.cfg.ActivityPubConfig.FollowingPageSize
	offset := page * limit

	following, err := rt.accounts.GetFollowingAccounts(c, id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := rt.accounts.GetFollowingAccountsCount(c, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	iris := make([]string, len(following))
	for i, f := range following {
		iris[i] = f.APID
	}

	idStr := strconv.FormatInt(id, 10)
	partOf := paths.FollowingIRI(rt.scheme, rt.host, idStr).String()
	pageIRI := fmt.Sprintf("%s?page=%d", partOf, page)
	next := ""
	if offset+len(following) < total {
		next = fmt.Sprintf("%s?page=%d", partOf, page+1)
	}

	coll := gfactivity.BuildOrderedCollectionPageIRIs(pageIRI, iris, partOf, next, total)
	body, err := gfactivity.Marshal(coll)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshaling following")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}

// handleLiked serves GET /liked/{id}. This system never persists
// inbound Likes against an internal account's own liked set (spec.md
// §4.10 Non-goals), so it is always an empty collection.
func (rt *Router) handleLiked(w http.ResponseWriter, r *http.Request) {
	id, err := rt.parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	collIRI := paths.LikedIRI(rt.scheme, rt.host, strconv.FormatInt(id, 10)).String()
	coll := gfactivity.BuildOrderedCollection(collIRI, nil, 0)
	body, err := gfactivity.Marshal(coll)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshaling liked")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}

// handleOutbox serves GET /outbox/{id}, timestamp-cursor paginated per
// spec.md §4.10: each entry is reconstituted live from its post row, a
// Create wrapping the rendered object for an Original entry or an
// Announce referencing it for a Repost entry, rather than read back
// from the KV store (only delivered activities are persisted there;
// a post's own object representation is not).
func (rt *Router) handleOutbox(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())
	id, err := rt.parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	owner, err := rt.accounts.GetAccountByID(c, id)
	if err != nil {
		if services.Is(err, services.KindNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cursor := time.Now().UTC()
	if v := r.URL.Query().Get("cursor"); v != "" {
		parsed, perr := time.Parse(time.RFC3339Nano, v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = parsed
	}

	limit := rt.cfg.ActivityPubConfig.OutboxPageSize
	items, err := rt.posts.GetOutboxPage(c, id, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := rt.posts.GetOutboxCount(c, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activities := make([]vocab.Type, 0, len(items))
	for _, item := range items {
		built, buildErr := rt.buildOutboxActivity(c, owner, item)
		if buildErr != nil {
			util.ErrorLogger.Errorf("dispatch: outbox: %s", buildErr)
			continue
		}
		if built == nil {
			continue
		}
		activities = append(activities, built)
	}

	idStr := strconv.FormatInt(id, 10)
	partOf := paths.OutboxIRI(rt.scheme, rt.host, idStr).String()
	pageIRI := fmt.Sprintf("%s?cursor=%s", partOf, cursor.Format(time.RFC3339Nano))
	next := ""
	if len(items) == limit {
		last := items[len(items)-1].PublishedAt
		next = fmt.Sprintf("%s?cursor=%s", partOf, last.Format(time.RFC3339Nano))
	}

	coll := gfactivity.BuildOrderedCollectionPage(pageIRI, activities, partOf, next, total)
	body, err := gfactivity.Marshal(coll)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshaling outbox")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}

// buildOutboxActivity reconstitutes the Create (Original entry) or
// Announce (Repost entry) an outbox row represents. owner is the
// outbox's own account: the author of an Original post, or the
// reposting account for a Repost entry. Returns (nil, nil) for a
// tombstoned post, so a deleted post is never served even if an outbox
// row for it is read; DeleteByAuthor removes every outbox row of the
// post, Repost entries included, in the same transaction as the
// tombstone (spec.md §4.5 step 6).
func (rt *Router) buildOutboxActivity(c util.Context, owner *models.Account, item *models.OutboxItem) (vocab.Type, error) {
	post, err := rt.posts.FindExisting(c, item.APID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted() || post.Type == models.PostTypeTombstone {
		return nil, nil
	}

	if item.OutboxType == models.OutboxTypeRepost {
		id := item.APID + "#announce-" + strconv.FormatInt(owner.ID, 10)
		return gfactivity.BuildAnnounce(id, owner.APID, item.APID, []string{gfactivity.PublicIRI}), nil
	}

	obj := services.BuildPostObject(post, owner)
	id := item.APID + "#create"
	return gfactivity.BuildCreate(id, owner.APID, obj, services.AudienceTo(post)), nil
}
