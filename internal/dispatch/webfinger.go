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

import "net/http"

type jrdLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type,omitempty"`
	Href string `json:"href,omitempty"`
}

type jrd struct {
	Subject string    `json:"subject"`
	Links   []jrdLink `json:"links"`
}

// handleWebfinger serves GET /.well-known/webfinger?resource=acct:...,
// delegating resolution to the collaborators.WebFinger implementation
// (spec.md §1: the responder is an external collaborator; only the
// route itself lives in the federation core's dispatch table).
func (rt *Router) handleWebfinger(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		writeError(w, http.StatusBadRequest, "missing resource parameter")
		return
	}

	subject, err := rt.webfinger.Resolve(r.Context(), resource)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	doc := jrd{
		Subject: resource,
		Links: []jrdLink{
			{Rel: "self", Type: jsonLDContentType, Href: subject.String()},
		},
	}
	writeJSON(w, http.StatusOK, "application/jrd+json", doc)
}
