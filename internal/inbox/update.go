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

// handleUpdate implements spec.md §4.3's Update precondition/action:
// a Note/Article object updates the mirrored post's mutable fields; an
// actor object refreshes the mirrored account profile.
func (d *Dispatcher) handleUpdate(c util.Context, a *gfactivity.Activity) error {
	if a.Object == nil {
		return fmt.Errorf("inbox: update activity %s has no inline object", a.ID)
	}

	switch a.Object.Kind {
	case gfactivity.ObjectNote, gfactivity.ObjectArticle:
		return d.updatePost(c, a)
	default:
		return d.updateActor(c, a)
	}
}

func (d *Dispatcher) updatePost(c util.Context, a *gfactivity.Activity) error {
	objIRI, err := parseIRI(a.Object.ID)
	if err != nil {
		return err
	}
	post, err := d.posts.GetByApId(c, objIRI)
	if err != nil {
		return err
	}
	post.Summary = a.Object.Summary
	post.Content = a.Object.Content
	if a.Object.Name != "" {
		post.Title = a.Object.Name
	}
	return d.posts.UpdateMutable(c, post)
}

func (d *Dispatcher) updateActor(c util.Context, a *gfactivity.Activity) error {
	acc, err := d.accounts.GetAccountByApId(c, a.Object.ID)
	if err != nil {
		return err
	}
	raw, err := d.store.Get(c, a.Object.ID)
	if err != nil {
		return err
	}
	actor, err := gfactivity.ParseActor(raw)
	if err != nil {
		return err
	}
	return d.accounts.RefreshExternalAccount(c, acc.ID, actor)
}
