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

// Package activity is the polymorphic Activity/Actor/Object model
// spec.md §9 calls for ("activities are a closed, tagged-variant set;
// do not model them as a single flat struct with every possible
// field"). Each Kind carries only the fields that kind needs, parsed
// from inbound JSON-LD with a cheap gjson pass before a full typed
// decode, and built for outbound delivery with the real
// go-fed/activity/streams vocabulary so the wire form is always a
// genuine ActivityStreams document rather than a hand-assembled map.
package activity

import "time"

// Kind names one of the activity types spec.md §2/§4.3 enumerates.
type Kind string

const (
	KindFollow   Kind = "Follow"
	KindAccept   Kind = "Accept"
	KindReject   Kind = "Reject"
	KindCreate   Kind = "Create"
	KindUpdate   Kind = "Update"
	KindDelete   Kind = "Delete"
	KindLike     Kind = "Like"
	KindAnnounce Kind = "Announce"
	KindUndo     Kind = "Undo"
)

// ObjectKind names one of the object types an Activity's object
// property can carry.
type ObjectKind string

const (
	ObjectNote      ObjectKind = "Note"
	ObjectArticle   ObjectKind = "Article"
	ObjectTombstone ObjectKind = "Tombstone"
	ObjectActor     ObjectKind = "actor"
	ObjectActivity  ObjectKind = "activity"
)

// Activity is the tagged variant this package passes between the
// inbox dispatcher, the delivery bridge, and the resolver. Only the
// fields relevant to Kind are populated; callers switch on Kind before
// reading kind-specific fields (InnerKind/InnerActivityIRI for Undo/Accept/
// Reject, which wrap another activity by reference).
type Activity struct {
	Kind      Kind
	ID        string
	ActorIRI  string
	ObjectIRI string

	// ObjectKind/Object are populated when Object is embedded inline
	// (Create/Update carry a Note or Article; Delete carries a
	// Tombstone or a bare IRI, per spec.md §4.3's Delete precondition
	// "actor may be a bare IRI without a Tombstone body").
	ObjectKind ObjectKind
	Object     *Object

	// InnerKind/InnerActivityIRI/InnerObjectIRI describe the
	// activity Undo/Accept/Reject wrap (e.g. Undo(Follow)).
	InnerKind        Kind
	InnerActivityIRI string
	InnerActorIRI    string
	InnerObjectIRI   string

	Published time.Time
}

// Object is the inline object payload an Activity's object property
// may carry (a Note/Article being created or updated, or a Tombstone
// marking a deletion).
type Object struct {
	Kind        ObjectKind
	ID          string
	AttributedTo string
	Content     string
	Summary     string
	Name        string
	URL         string
	InReplyTo   string
	Published   time.Time
	To          []string
	Cc          []string

	// LikeCount/RepostCount mirror the remote object's likes/shares
	// collection totals (Mastodon-style "likes"/"shares" properties
	// with a totalItems count), used by the interaction-counts
	// refresher to mirror authoritative values for external posts
	// (spec.md §4.9).
	LikeCount   int
	RepostCount int
}

// Actor is the minimal remote-actor shape the resolver extracts from a
// dereferenced Person/Application/Service/Group/Organization document
// (spec.md §4.1's account-ensure path).
type Actor struct {
	ID            string
	Type          string
	PreferredName string
	Name          string
	Summary       string
	URL           string
	Inbox         string
	SharedInbox   string
	Outbox        string
	Followers     string
	Following     string
	Liked         string
	IconURL       string
	ImageURL      string
	PublicKeyID   string
	PublicKeyPEM  string
}
