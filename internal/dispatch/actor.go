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
	"strconv"

	"github.com/gorilla/mux"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

// handleActor serves GET /.ghost/activitypub/users/{id}, the Person
// document services.BuildActorDocument builds from the same source the
// delivery bridge's account.updated Update(Actor) uses, so both render
// byte-identical documents.
func (rt *Router) handleActor(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	acc, err := rt.accounts.GetAccountByID(c, id)
	if err != nil {
		if services.Is(err, services.KindNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	doc := services.BuildActorDocument(rt.scheme, rt.host, acc)
	body, err := gfactivity.Marshal(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshaling actor")
		return
	}
	writeJSONLD(w, http.StatusOK, body)
}
