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
	"net/http"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

// handleObject serves the generic GET /{kind}/{id} dispatcher route
// (spec.md §4.10). Activity kinds (Follow/Accept/Create/Update/Like/
// Announce/Undo/Delete/Reject) are read verbatim from the KV store,
// since every one of them is minted and persisted there the moment it
// is created (internal/delivery.Bridge.persist, internal/inbox's own
// caching). Article/Note kinds are never separately persisted that
// way; their own post row is the source of truth, so they are rendered
// live instead, the same path the outbox dispatcher uses.
func (rt *Router) handleObject(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())

	kind, id, ok := paths.ParseObjectPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if kind == paths.KindArticle || kind == paths.KindNote {
		rt.handlePostObject(c, w, kind, id)
		return
	}

	iri := paths.ObjectIRI(rt.scheme, rt.host, kind, id).String()
	body, err := rt.store.Get(c, iri)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}

func (rt *Router) handlePostObject(c util.Context, w http.ResponseWriter, kind paths.ObjectKind, id string) {
	apID := paths.ObjectIRI(rt.scheme, rt.host, kind, id).String()

	post, err := rt.posts.FindExisting(c, apID)
	if err != nil {
		if services.Is(err, services.KindNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if post.IsDeleted() || post.Type == models.PostTypeTombstone {
		writeError(w, http.StatusGone, "deleted")
		return
	}

	author, err := rt.accounts.GetAccountByID(c, post.AuthorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	obj := services.BuildPostObject(post, author)
	body, err := gfactivity.Marshal(obj)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshaling object")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}
