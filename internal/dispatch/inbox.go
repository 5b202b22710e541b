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
	"io"
	"net/http"

	"github.com/tryghost/activitypub/internal/util"
)

// handleInbox and handleSharedInbox both terminate at the same
// verify-then-dispatch path (spec.md §4.1's control flow: "HTTP POST
// /inbox -> signature verification (external) -> enqueue handler
// task"); this system's inbox.Dispatcher does not distinguish a
// per-account inbox from the shared one, so the {id} path segment is
// only a routing convenience, not a scoping key.
func (rt *Router) handleInbox(w http.ResponseWriter, r *http.Request) {
	rt.dispatchInbox(w, r)
}

func (rt *Router) handleSharedInbox(w http.ResponseWriter, r *http.Request) {
	rt.dispatchInbox(w, r)
}

func (rt *Router) dispatchInbox(w http.ResponseWriter, r *http.Request) {
	c := util.NewContext(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	originHost, err := rt.verifier.Verify(c, r, raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := rt.inbox.Handle(c, raw, originHost); err != nil {
		util.ErrorLogger.Errorf("dispatch: inbox: %s", err)
		writeError(w, http.StatusBadRequest, "activity rejected")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
