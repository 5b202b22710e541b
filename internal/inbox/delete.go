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
	"net/url"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

// handleDelete implements spec.md §4.3's Delete precondition/action:
// actor must own object (same origin) and the object must already be
// mirrored locally — a Delete for an object this instance never
// ingested is indistinguishable from a successful no-op.
func (d *Dispatcher) handleDelete(c util.Context, a *gfactivity.Activity) error {
	if a.ObjectIRI == "" {
		return nil
	}
	actorHost, err := hostOf(a.ActorIRI)
	if err != nil {
		return err
	}
	objectHost, err := hostOf(a.ObjectIRI)
	if err != nil {
		return err
	}
	if actorHost != objectHost {
		util.InfoLogger.Infof("inbox: ignoring delete %s, actor host %q does not own object host %q", a.ID, actorHost, objectHost)
		return nil
	}

	post, err := d.posts.FindExisting(c, a.ObjectIRI)
	if err != nil {
		if services.Is(err, services.KindNotFound) {
			return nil
		}
		return err
	}
	return d.posts.DeleteByAuthor(c, post)
}

func hostOf(iri string) (string, error) {
	u, err := url.Parse(iri)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}
