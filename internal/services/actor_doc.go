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

package services

import (
	"strconv"

	"github.com/go-fed/activity/streams/vocab"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/paths"
)

// PubKeyIDFor is the fixed convention this instance uses for an
// account's HTTP Signature key id, shared by the outbound signer
// (Transport) and the Person document's publicKey.id so a remote
// verifier dereferencing either one finds the same key.
func PubKeyIDFor(acc *models.Account) string {
	return acc.APID + "#main-key"
}

// BuildActorDocument builds acc's Person document, the single source
// both the actor GET dispatcher (internal/dispatch) and the delivery
// bridge's Update(Actor) activity (internal/delivery) render from, so
// the two never drift. Grounded on
// _examples/go-fed-apcore/services/activitystreams.go's toPersonActor.
func BuildActorDocument(scheme, host string, acc *models.Account) vocab.ActivityStreamsPerson {
	idStr := strconv.FormatInt(acc.ID, 10)
	return gfactivity.BuildActor(gfactivity.ActorParams{
		ID:                acc.APID,
		PreferredUsername: acc.Username,
		Name:              acc.Name,
		Summary:           acc.Bio,
		URL:               acc.URL,
		Inbox:             paths.InboxIRI(scheme, host, idStr).String(),
		SharedInbox:       paths.SharedInboxIRI(scheme, host).String(),
		Outbox:            paths.OutboxIRI(scheme, host, idStr).String(),
		Followers:         paths.FollowersIRI(scheme, host, idStr).String(),
		Following:         paths.FollowingIRI(scheme, host, idStr).String(),
		Liked:             paths.LikedIRI(scheme, host, idStr).String(),
		IconURL:           acc.AvatarURL,
		PublicKeyID:       PubKeyIDFor(acc),
		PublicKeyPEM:      acc.PublicKey,
	})
}
