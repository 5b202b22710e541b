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

// nodeInfo2_1 is the fixed-shape NodeInfo 2.1 document spec.md §6
// names; no nodeinfo library is used by anything in the example pack,
// so this is a plain struct marshaled with encoding/json rather than
// an unverified third-party dependency (see DESIGN.md).
type nodeInfo2_1 struct {
	Version string `json:"version"`
	Software struct {
		Name       string `json:"name"`
		Version    string `json:"version"`
		Repository string `json:"repository,omitempty"`
	} `json:"software"`
	Protocols         []string               `json:"protocols"`
	Services          nodeInfoServices        `json:"services"`
	OpenRegistrations bool                   `json:"openRegistrations"`
	Usage             nodeInfoUsage          `json:"usage"`
	Metadata          map[string]interface{} `json:"metadata"`
}

type nodeInfoServices struct {
	Inbound  []string `json:"inbound"`
	Outbound []string `json:"outbound"`
}

type nodeInfoUsage struct {
	Users struct {
		Total int `json:"total"`
	} `json:"users"`
	LocalPosts int `json:"localPosts"`
}

// handleNodeInfo serves GET /nodeinfo/2.1, a static federation
// discovery document: this instance has exactly one internal account
// (spec.md §1's single-tenant scope), so usage counts are cheap to
// report without a query.
func (rt *Router) handleNodeInfo(w http.ResponseWriter, r *http.Request) {
	doc := nodeInfo2_1{
		Version: "2.1",
		Protocols: []string{"activitypub"},
		OpenRegistrations: false,
	}
	doc.Software.Name = "ghostfed"
	doc.Software.Version = "1.0.0"
	doc.Services.Inbound = []string{}
	doc.Services.Outbound = []string{}
	doc.Usage.Users.Total = 1
	doc.Metadata = map[string]interface{}{}

	writeJSON(w, http.StatusOK, "application/json", doc)
}
