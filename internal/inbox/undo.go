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

// handleUndo implements spec.md §4.3's Undo precondition/action:
// resolve the wrapped activity (inline, or a bare IRI dereferenced via
// the resolver) and reverse whichever of Follow/Like/Announce it
// names. The undoing actor must match the wrapped activity's own
// actor; anything else is a forged undo and is dropped.
func (d *Dispatcher) handleUndo(c util.Context, a *gfactivity.Activity) error {
	kind, actorIRI, objectIRI, err := d.resolveInner(c, a)
	if err != nil {
		return err
	}
	if actorIRI != a.ActorIRI {
		util.InfoLogger.Infof("inbox: dropping undo %s, actor %q does not own wrapped activity actor %q", a.ID, a.ActorIRI, actorIRI)
		return nil
	}

	actor, err := d.resolveActor(c, actorIRI)
	if err != nil {
		return err
	}

	switch kind {
	case gfactivity.KindFollow:
		target, err := d.resolveActor(c, objectIRI)
		if err != nil {
			return err
		}
		return d.accounts.RecordAccountUnfollow(c, target.ID, actor.ID)
	case gfactivity.KindLike:
		objIRI, err := parseIRI(objectIRI)
		if err != nil {
			return err
		}
		post, err := d.posts.GetByApId(c, objIRI)
		if err != nil {
			return err
		}
		_, err = d.posts.UnlikePost(c, actor, post)
		return err
	case gfactivity.KindAnnounce:
		objIRI, err := parseIRI(objectIRI)
		if err != nil {
			return err
		}
		_, err = d.posts.UnrepostByApId(c, actor, objIRI)
		return err
	default:
		util.InfoLogger.Infof("inbox: nothing to do for undo of activity kind %q: %s", kind, a.ID)
		return nil
	}
}

// resolveInner returns the kind/actor/object of the activity a's Undo
// wraps, dereferencing it by IRI when it was not carried inline.
func (d *Dispatcher) resolveInner(c util.Context, a *gfactivity.Activity) (gfactivity.Kind, string, string, error) {
	if a.InnerKind != "" {
		return a.InnerKind, a.InnerActorIRI, a.InnerObjectIRI, nil
	}
	if a.InnerActivityIRI == "" {
		return "", "", "", fmt.Errorf("inbox: undo %s has no wrapped activity", a.ID)
	}
	iri, err := parseIRI(a.InnerActivityIRI)
	if err != nil {
		return "", "", "", err
	}
	inner, err := d.resolver.LookupActivity(c, iri)
	if err != nil {
		return "", "", "", err
	}
	return inner.Kind, inner.ActorIRI, inner.ObjectIRI, nil
}
