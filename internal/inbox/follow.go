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
	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/util"
)

// handleFollow implements spec.md §4.3's Follow precondition/action:
// ensure the follower account, record the edge, then reply
// Accept(Follow) unless the target has blocked the follower, in which
// case Reject(Follow) is sent instead (spec.md §4.7).
func (d *Dispatcher) handleFollow(c util.Context, a *gfactivity.Activity) error {
	follower, err := d.resolveActor(c, a.ActorIRI)
	if err != nil {
		return err
	}
	target, err := d.resolveActor(c, a.ObjectIRI)
	if err != nil {
		return err
	}

	follow := gfactivity.BuildFollow(a.ID, a.ActorIRI, a.ObjectIRI)

	canFollow, err := d.moderation.CanInteractWithAccount(c, follower.ID, target.ID)
	if err != nil {
		return err
	}
	if !canFollow {
		rejectID := d.newActivityID(paths.KindReject)
		reject := gfactivity.BuildReject(rejectID, target.APID, follow)
		body, err := gfactivity.Marshal(reject)
		if err != nil {
			return err
		}
		if err := d.store.Set(c, rejectID, body); err != nil {
			return err
		}
		return d.deliverFrom(c, target, body, follower)
	}

	if err := d.accounts.FollowAccount(c, follower.ID, target.ID); err != nil {
		return err
	}

	acceptID := d.newActivityID(paths.KindAccept)
	accept := gfactivity.BuildAccept(acceptID, target.APID, follow)
	body, err := gfactivity.Marshal(accept)
	if err != nil {
		return err
	}
	if err := d.store.Set(c, acceptID, body); err != nil {
		return err
	}
	return d.deliverFrom(c, target, body, follower)
}

// handleAccept covers the inverse edge: a Follow this instance itself
// sent outbound being accepted by the remote target. spec.md §4.3's
// precondition is that the embedded Follow's actor is a locally
// tracked pending follow; since this is a single-tenant instance
// (spec.md §9), that means the inner actor must resolve to the one
// internal account. Ensures both accounts and records the edge, the
// same `FollowAccount` upsert `handleFollow` uses for the inbound
// direction.
func (d *Dispatcher) handleAccept(c util.Context, a *gfactivity.Activity) error {
	if a.InnerKind != gfactivity.KindFollow || a.InnerActorIRI == "" || a.InnerObjectIRI == "" {
		util.InfoLogger.Infof("inbox: accept received for %s with no embedded follow, no-op", a.InnerActivityIRI)
		return nil
	}

	local, err := d.resolveActor(c, a.InnerActorIRI)
	if err != nil {
		return err
	}
	if !local.IsInternal {
		util.InfoLogger.Infof("inbox: accept's inner follow actor %s is not a locally tracked pending follow, no-op", a.InnerActorIRI)
		return nil
	}
	remote, err := d.resolveActor(c, a.InnerObjectIRI)
	if err != nil {
		return err
	}

	return d.accounts.FollowAccount(c, local.ID, remote.ID)
}

// handleReject mirrors handleAccept: the remote target declined a
// Follow this instance sent outbound. spec.md §4.3 names no row to
// write for a Reject (unlike Accept, there is no edge to record), so
// this only validates the precondition and logs.
func (d *Dispatcher) handleReject(c util.Context, a *gfactivity.Activity) error {
	if a.InnerKind != gfactivity.KindFollow || a.InnerActorIRI == "" {
		util.InfoLogger.Infof("inbox: reject received for %s with no embedded follow, no-op", a.InnerActivityIRI)
		return nil
	}
	util.InfoLogger.Infof("inbox: follow by %s was rejected, no-op", a.InnerActorIRI)
	return nil
}
