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

package inbox

import (
	"fmt"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/util"
)

// handleCreate implements spec.md §4.3's Create precondition/action:
// the object carries its own authoritative id, so ingestion is a plain
// GetByApId on that id (the object was already cached under its own
// IRI by Handle, so this resolves from the KV store rather than
// re-dereferencing the network).
func (d *Dispatcher) handleCreate(c util.Context, a *gfactivity.Activity) error {
	if a.Object == nil {
		return fmt.Errorf("inbox: create activity %s has no inline object", a.ID)
	}
	if a.Object.Kind != gfactivity.ObjectNote && a.Object.Kind != gfactivity.ObjectArticle {
		util.InfoLogger.Infof("inbox: ignoring create of non-post object kind %q: %s", a.Object.Kind, a.ID)
		return nil
	}
	objIRI, err := parseIRI(a.Object.ID)
	if err != nil {
		return err
	}
	_, err = d.posts.GetByApId(c, objIRI)
	return err
}
