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
	"github.com/tidwall/gjson"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/util"
)

// handleAnnounce implements spec.md §4.3's two Announce sub-shapes:
// a plain repost, whose object is a bare Note/Article IRI, and a
// FEP-1b12 group re-announcement, whose object is itself an Announce
// activity a Group actor is relaying on a member's behalf.
func (d *Dispatcher) handleAnnounce(c util.Context, a *gfactivity.Activity) error {
	if a.Object != nil && a.Object.Kind == gfactivity.ObjectKind("Announce") {
		return d.handleGroupReannounce(c, a)
	}
	return d.handlePlainRepost(c, a.ActorIRI, a.ObjectIRI)
}

func (d *Dispatcher) handlePlainRepost(c util.Context, reposterIRI, objectIRI string) error {
	reposter, err := d.resolveActor(c, reposterIRI)
	if err != nil {
		return err
	}
	objIRI, err := parseIRI(objectIRI)
	if err != nil {
		return err
	}
	_, err = d.posts.RepostByApId(c, reposter, objIRI)
	return err
}

// handleGroupReannounce verifies the relayed Announce before treating
// it as a repost on behalf of its original sender, per spec.md §4.3:
// "verify via an attached Linked-Data Signature proof, or by
// dereferencing the inner activity from its own origin if no proof is
// present; drop (log, do not error) an unverifiable reannouncement."
//
// TODO: verify an attached Linked-Data Signature directly once a
// suitable proof-suite library is wired in; today every group
// reannouncement falls through to the network-dereference fallback.
func (d *Dispatcher) handleGroupReannounce(c util.Context, a *gfactivity.Activity) error {
	raw, err := d.store.Get(c, a.ID)
	if err != nil {
		return err
	}
	innerRaw := gjson.GetBytes(raw, "object")
	innerActorIRI := firstIRIValue(innerRaw.Get("actor"))
	innerObjectIRI := firstIRIValue(innerRaw.Get("object"))
	innerID := innerRaw.Get("id").String()

	if innerID == "" || innerActorIRI == "" || innerObjectIRI == "" {
		util.InfoLogger.Infof("inbox: dropping unverifiable group reannounce %s: incomplete inner activity", a.ID)
		return nil
	}

	innerIRI, err := parseIRI(innerID)
	if err != nil {
		util.InfoLogger.Infof("inbox: dropping unverifiable group reannounce %s: %v", a.ID, err)
		return nil
	}
	verified, err := d.resolver.LookupActivity(c, innerIRI)
	if err != nil || verified.ActorIRI != innerActorIRI || verified.ObjectIRI != innerObjectIRI {
		util.InfoLogger.Infof("inbox: dropping unverifiable group reannounce %s: inner activity did not verify against its own origin", a.ID)
		return nil
	}

	return d.handlePlainRepost(c, innerActorIRI, innerObjectIRI)
}

func firstIRIValue(r gjson.Result) string {
	switch {
	case r.IsArray():
		arr := r.Array()
		if len(arr) == 0 {
			return ""
		}
		return firstIRIValue(arr[0])
	case r.IsObject():
		return r.Get("id").String()
	default:
		return r.String()
	}
}
