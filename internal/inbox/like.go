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
	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/util"
)

// handleLike implements spec.md §4.3's Like precondition/action:
// resolve the liking actor and the target post, then apply the
// moderation-checked like (services.PostService.LikePost already
// enforces spec.md §4.7's block rules).
func (d *Dispatcher) handleLike(c util.Context, a *gfactivity.Activity) error {
	liker, err := d.resolveActor(c, a.ActorIRI)
	if err != nil {
		return err
	}
	objIRI, err := parseIRI(a.ObjectIRI)
	if err != nil {
		return err
	}
	post, err := d.posts.GetByApId(c, objIRI)
	if err != nil {
		return err
	}
	_, err = d.posts.LikePost(c, liker, post)
	return err
}
