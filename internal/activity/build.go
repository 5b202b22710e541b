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

package activity

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/go-fed/activity/pub"
	"github.com/go-fed/activity/streams"
	"github.com/go-fed/activity/streams/vocab"
)

// PublicIRI is the well-known "everyone" audience address ActivityPub
// activities use in their to/cc properties for public posts.
const PublicIRI = pub.PublicActivityPubIRI

// Marshal serializes a go-fed/activity vocab.Type to the JSON-LD bytes
// the delivery bridge sends and the KV store persists, grounded on
// ap/database.go's streams.Serialize + json.Marshal round trip.
func Marshal(t vocab.Type) ([]byte, error) {
	m, err := streams.Serialize(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func mustIRI(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		return &url.URL{}
	}
	return u
}

func idProperty(id string) vocab.JSONLDIdProperty {
	p := streams.NewJSONLDIdProperty()
	p.Set(mustIRI(id))
	return p
}

// BuildFollow constructs Follow(actor, object), grounded on
// example/app.go's streams.NewActivityStreamsFollow construction.
func BuildFollow(id, actorIRI, objectIRI string) vocab.ActivityStreamsFollow {
	f := streams.NewActivityStreamsFollow()
	f.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	f.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendIRI(mustIRI(objectIRI))
	f.SetActivityStreamsObject(objProp)

	toProp := streams.NewActivityStreamsToProperty()
	toProp.AppendIRI(mustIRI(objectIRI))
	f.SetActivityStreamsTo(toProp)

	return f
}

// BuildAccept wraps the given Follow in Accept(actor, Follow), the
// response spec.md §4.3 sends once a follow is recorded.
func BuildAccept(id, actorIRI string, follow vocab.ActivityStreamsFollow) vocab.ActivityStreamsAccept {
	a := streams.NewActivityStreamsAccept()
	a.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	a.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendActivityStreamsFollow(follow)
	a.SetActivityStreamsObject(objProp)

	followActor := follow.GetActivityStreamsActor()
	toProp := streams.NewActivityStreamsToProperty()
	if followActor != nil {
		for iter := followActor.Begin(); iter != followActor.End(); iter = iter.Next() {
			if iri := iter.GetIRI(); iri != nil {
				toProp.AppendIRI(iri)
			}
		}
	}
	a.SetActivityStreamsTo(toProp)

	return a
}

// BuildReject mirrors BuildAccept for the moderation-driven
// Reject(Follow) path spec.md §4.7 describes.
func BuildReject(id, actorIRI string, follow vocab.ActivityStreamsFollow) vocab.ActivityStreamsReject {
	r := streams.NewActivityStreamsReject()
	r.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	r.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendActivityStreamsFollow(follow)
	r.SetActivityStreamsObject(objProp)

	return r
}

// NoteParams carries the fields BuildNote/BuildArticle need to build
// the object inline inside Create/Update (spec.md §4.5's outbox
// reconciliation, §4.6's delivery bridge).
type NoteParams struct {
	ID          string
	AttributedTo string
	Content     string
	Summary     string
	Name        string
	URL         string
	InReplyTo   string
	Published   time.Time
	Public      bool
	To          []string
}

func setObjectCommon(content vocab.ActivityStreamsContentProperty, summary vocab.ActivityStreamsSummaryProperty, name vocab.ActivityStreamsNameProperty, p NoteParams) {
	if p.Content != "" {
		content.AppendXMLSchemaString(p.Content)
	}
	if p.Summary != "" {
		summary.AppendXMLSchemaString(p.Summary)
	}
	if p.Name != "" {
		name.AppendXMLSchemaString(p.Name)
	}
}

func audienceProperty(p NoteParams) vocab.ActivityStreamsToProperty {
	toProp := streams.NewActivityStreamsToProperty()
	if p.Public {
		toProp.AppendIRI(mustIRI(PublicIRI))
	}
	for _, t := range p.To {
		toProp.AppendIRI(mustIRI(t))
	}
	return toProp
}

// BuildNote constructs a Note object, grounded on example/app.go's
// streams.NewActivityStreamsNote construction (to/summary/content
// property-setter idiom), extended with attributedTo/inReplyTo/
// published for this spec's post model.
func BuildNote(p NoteParams) vocab.ActivityStreamsNote {
	n := streams.NewActivityStreamsNote()
	n.SetJSONLDId(idProperty(p.ID))

	content := streams.NewActivityStreamsContentProperty()
	summary := streams.NewActivityStreamsSummaryProperty()
	name := streams.NewActivityStreamsNameProperty()
	setObjectCommon(content, summary, name, p)
	n.SetActivityStreamsContent(content)
	n.SetActivityStreamsSummary(summary)

	attrTo := streams.NewActivityStreamsAttributedToProperty()
	attrTo.AppendIRI(mustIRI(p.AttributedTo))
	n.SetActivityStreamsAttributedTo(attrTo)

	n.SetActivityStreamsTo(audienceProperty(p))

	if p.InReplyTo != "" {
		irt := streams.NewActivityStreamsInReplyToProperty()
		irt.AppendIRI(mustIRI(p.InReplyTo))
		n.SetActivityStreamsInReplyTo(irt)
	}

	if !p.Published.IsZero() {
		pub := streams.NewActivityStreamsPublishedProperty()
		pub.Set(p.Published)
		n.SetActivityStreamsPublished(pub)
	}

	return n
}

// BuildArticle mirrors BuildNote for spec.md §3's Article post type
// (long-form content with a title, carried in the "name" property).
func BuildArticle(p NoteParams) vocab.ActivityStreamsArticle {
	a := streams.NewActivityStreamsArticle()
	a.SetJSONLDId(idProperty(p.ID))

	content := streams.NewActivityStreamsContentProperty()
	summary := streams.NewActivityStreamsSummaryProperty()
	name := streams.NewActivityStreamsNameProperty()
	setObjectCommon(content, summary, name, p)
	a.SetActivityStreamsContent(content)
	a.SetActivityStreamsSummary(summary)
	a.SetActivityStreamsName(name)

	attrTo := streams.NewActivityStreamsAttributedToProperty()
	attrTo.AppendIRI(mustIRI(p.AttributedTo))
	a.SetActivityStreamsAttributedTo(attrTo)

	a.SetActivityStreamsTo(audienceProperty(p))

	if !p.Published.IsZero() {
		pub := streams.NewActivityStreamsPublishedProperty()
		pub.Set(p.Published)
		a.SetActivityStreamsPublished(pub)
	}

	return a
}

// BuildCreate wraps obj in Create(actor, obj), the delivery bridge's
// entry for post.created (spec.md §4.6).
func BuildCreate(id, actorIRI string, obj vocab.Type, to []string) vocab.ActivityStreamsCreate {
	c := streams.NewActivityStreamsCreate()
	c.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	c.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendType(obj)
	c.SetActivityStreamsObject(objProp)

	toProp := streams.NewActivityStreamsToProperty()
	for _, t := range to {
		toProp.AppendIRI(mustIRI(t))
	}
	c.SetActivityStreamsTo(toProp)

	return c
}

// BuildUpdate mirrors BuildCreate for post.updated / account.updated
// (spec.md §4.6).
func BuildUpdate(id, actorIRI string, obj vocab.Type, to []string) vocab.ActivityStreamsUpdate {
	u := streams.NewActivityStreamsUpdate()
	u.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	u.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendType(obj)
	u.SetActivityStreamsObject(objProp)

	toProp := streams.NewActivityStreamsToProperty()
	for _, t := range to {
		toProp.AppendIRI(mustIRI(t))
	}
	u.SetActivityStreamsTo(toProp)

	return u
}

// BuildDelete wraps a Tombstone for objectIRI in Delete(actor, obj),
// spec.md §4.6's post.deleted entry.
func BuildDelete(id, actorIRI, objectIRI string) vocab.ActivityStreamsDelete {
	d := streams.NewActivityStreamsDelete()
	d.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	d.SetActivityStreamsActor(actorProp)

	tomb := streams.NewActivityStreamsTombstone()
	tomb.SetJSONLDId(idProperty(objectIRI))

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendActivityStreamsTombstone(tomb)
	d.SetActivityStreamsObject(objProp)

	toProp := streams.NewActivityStreamsToProperty()
	toProp.AppendIRI(mustIRI(PublicIRI))
	d.SetActivityStreamsTo(toProp)

	return d
}

// BuildLike constructs Like(actor, object), spec.md §4.6's
// post.liked entry (also reused, inverted via BuildUndo, for
// unliking).
func BuildLike(id, actorIRI, objectIRI string) vocab.ActivityStreamsLike {
	l := streams.NewActivityStreamsLike()
	l.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	l.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendIRI(mustIRI(objectIRI))
	l.SetActivityStreamsObject(objProp)

	return l
}

// BuildAnnounce constructs Announce(actor, object), spec.md §4.6's
// post.reposted entry.
func BuildAnnounce(id, actorIRI, objectIRI string, to []string) vocab.ActivityStreamsAnnounce {
	a := streams.NewActivityStreamsAnnounce()
	a.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	a.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendIRI(mustIRI(objectIRI))
	a.SetActivityStreamsObject(objProp)

	toProp := streams.NewActivityStreamsToProperty()
	for _, t := range to {
		toProp.AppendIRI(mustIRI(t))
	}
	a.SetActivityStreamsTo(toProp)

	return a
}

// BuildUndo wraps inner (a Follow, Like, or Announce this actor
// previously sent) in Undo(actor, inner), spec.md §4.6's
// post.dereposted / account.unfollowed entries.
func BuildUndo(id, actorIRI string, inner vocab.Type) vocab.ActivityStreamsUndo {
	u := streams.NewActivityStreamsUndo()
	u.SetJSONLDId(idProperty(id))

	actorProp := streams.NewActivityStreamsActorProperty()
	actorProp.AppendIRI(mustIRI(actorIRI))
	u.SetActivityStreamsActor(actorProp)

	objProp := streams.NewActivityStreamsObjectProperty()
	objProp.AppendType(inner)
	u.SetActivityStreamsObject(objProp)

	return u
}

// ActorParams carries the fields BuildActor needs to construct a
// Person document describing a local account, the object Update
// wraps for spec.md §4.6's account.updated entry.
type ActorParams struct {
	ID                string
	PreferredUsername string
	Name              string
	Summary           string
	URL               string
	Inbox             string
	SharedInbox       string
	Outbox            string
	Followers         string
	Following         string
	Liked             string
	IconURL           string
	PublicKeyID       string
	PublicKeyPEM      string
}

// BuildActor constructs a Person document, grounded on the same
// streams.NewActivityStreamsPerson property-setter idiom BuildNote
// uses, plus the publicKey extension object-to-object federated
// servers expect for HTTP Signature verification (ap/util.go's
// getPublicKeyFromResponse reads this same shape back).
func BuildActor(p ActorParams) vocab.ActivityStreamsPerson {
	actor := streams.NewActivityStreamsPerson()
	actor.SetJSONLDId(idProperty(p.ID))

	if p.PreferredUsername != "" {
		u := streams.NewActivityStreamsPreferredUsernameProperty()
		u.SetXMLSchemaString(p.PreferredUsername)
		actor.SetActivityStreamsPreferredUsername(u)
	}
	if p.Name != "" {
		n := streams.NewActivityStreamsNameProperty()
		n.AppendXMLSchemaString(p.Name)
		actor.SetActivityStreamsName(n)
	}
	if p.Summary != "" {
		s := streams.NewActivityStreamsSummaryProperty()
		s.AppendXMLSchemaString(p.Summary)
		actor.SetActivityStreamsSummary(s)
	}
	if p.URL != "" {
		up := streams.NewActivityStreamsUrlProperty()
		up.AppendIRI(mustIRI(p.URL))
		actor.SetActivityStreamsUrl(up)
	}
	if p.Inbox != "" {
		ib := streams.NewActivityStreamsInboxProperty()
		ib.SetIRI(mustIRI(p.Inbox))
		actor.SetActivityStreamsInbox(ib)
	}
	if p.Outbox != "" {
		ob := streams.NewActivityStreamsOutboxProperty()
		ob.SetIRI(mustIRI(p.Outbox))
		actor.SetActivityStreamsOutbox(ob)
	}
	if p.Followers != "" {
		f := streams.NewActivityStreamsFollowersProperty()
		f.SetIRI(mustIRI(p.Followers))
		actor.SetActivityStreamsFollowers(f)
	}
	if p.Following != "" {
		f := streams.NewActivityStreamsFollowingProperty()
		f.SetIRI(mustIRI(p.Following))
		actor.SetActivityStreamsFollowing(f)
	}
	if p.Liked != "" {
		l := streams.NewActivityStreamsLikedProperty()
		l.SetIRI(mustIRI(p.Liked))
		actor.SetActivityStreamsLiked(l)
	}
	if p.PublicKeyID != "" && p.PublicKeyPEM != "" {
		pk := streams.NewW3IDSecurityV1PublicKeyProperty()
		keyObj := streams.NewW3IDSecurityV1PublicKey()
		keyObj.SetJSONLDId(idProperty(p.PublicKeyID))
		owner := streams.NewW3IDSecurityV1OwnerProperty()
		owner.SetIRI(mustIRI(p.ID))
		keyObj.SetW3IDSecurityV1Owner(owner)
		pem := streams.NewW3IDSecurityV1PublicKeyPemProperty()
		pem.Set(p.PublicKeyPEM)
		keyObj.SetW3IDSecurityV1PublicKeyPem(pem)
		pk.AppendW3IDSecurityV1PublicKey(keyObj)
		actor.SetW3IDSecurityV1PublicKey(pk)
	}

	return actor
}

// ToType decodes raw JSON-LD bytes into a typed vocab.Type, grounded
// on ap/util.go's getPublicKeyFromResponse json.Unmarshal + streams.ToType
// round trip. Used where a genuine typed value is required (signature
// verification's publicKey extraction) rather than ParseActivity's
// cheaper gjson field reads.
func ToType(ctx context.Context, raw []byte) (vocab.Type, error) {
	m := make(map[string]interface{})
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return streams.ToType(ctx, m)
}
