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
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// OriginHost extracts the host the activity's id claims to originate
// from, without paying for a full typed JSON-LD decode. Grounded on
// ap/util.go's cheap-field-before-full-parse shape (there used for the
// publicKey probe before streams.ToType).
func OriginHost(raw []byte) (string, error) {
	id := gjson.GetBytes(raw, "id")
	if !id.Exists() || id.String() == "" {
		return "", fmt.Errorf("activity: missing id")
	}
	u, err := url.Parse(id.String())
	if err != nil {
		return "", fmt.Errorf("activity: invalid id %q: %w", id.String(), err)
	}
	return u.Host, nil
}

// CheckOrigin enforces spec.md §4.1's origin integrity rule: an
// inbound document's id and actor must share a host with the host the
// document was actually fetched from or delivered by (claimedHost),
// otherwise it is a forged cross-origin claim and must be rejected
// before any side effect runs.
func CheckOrigin(raw []byte, claimedHost string) error {
	host, err := OriginHost(raw)
	if err != nil {
		return err
	}
	if host != claimedHost {
		return fmt.Errorf("activity: id host %q does not match origin %q", host, claimedHost)
	}
	actor := gjson.GetBytes(raw, "actor")
	actorIRI := actor.String()
	if actor.IsArray() {
		actorIRI = actor.Array()[0].String()
	} else if actor.IsObject() {
		actorIRI = actor.Get("id").String()
	}
	if actorIRI == "" {
		return nil
	}
	u, err := url.Parse(actorIRI)
	if err != nil {
		return fmt.Errorf("activity: invalid actor %q: %w", actorIRI, err)
	}
	if u.Host != claimedHost {
		return fmt.Errorf("activity: actor host %q does not match origin %q", u.Host, claimedHost)
	}
	return nil
}

// ParseActivity decodes raw JSON-LD into the tagged Activity shape,
// using gjson to read only the fields each Kind needs rather than
// round-tripping through the full go-fed/activity/streams.ToType
// decoder (reserved for cases that need the typed vocab.Type, such as
// outbound delivery's own construction in build.go).
func ParseActivity(raw []byte) (*Activity, error) {
	root := gjson.ParseBytes(raw)
	kind := Kind(root.Get("type").String())
	if kind == "" {
		return nil, fmt.Errorf("activity: missing type")
	}

	a := &Activity{
		Kind:      kind,
		ID:        root.Get("id").String(),
		ActorIRI:  firstIRI(root.Get("actor")),
		ObjectIRI: firstIRI(root.Get("object")),
		Published: parseTime(root.Get("published").String()),
	}

	obj := root.Get("object")
	if obj.IsObject() {
		o, err := parseObject(obj)
		if err != nil {
			return nil, err
		}
		a.ObjectKind = o.Kind
		a.Object = o
	}

	switch kind {
	case KindUndo, KindAccept, KindReject:
		inner := root.Get("object")
		if inner.IsObject() {
			a.InnerKind = Kind(inner.Get("type").String())
			a.InnerActivityIRI = inner.Get("id").String()
			a.InnerActorIRI = firstIRI(inner.Get("actor"))
			a.InnerObjectIRI = firstIRI(inner.Get("object"))
		} else {
			// Bare IRI object; the inbox handler resolves it via
			// the KV store before acting (spec.md §4.3).
			a.InnerActivityIRI = inner.String()
		}
	}

	return a, nil
}

func parseObject(obj gjson.Result) (*Object, error) {
	o := &Object{
		Kind:        ObjectKind(obj.Get("type").String()),
		ID:          obj.Get("id").String(),
		AttributedTo: firstIRI(obj.Get("attributedTo")),
		Content:      obj.Get("content").String(),
		Summary:      obj.Get("summary").String(),
		Name:         obj.Get("name").String(),
		URL:          firstIRI(obj.Get("url")),
		InReplyTo:    obj.Get("inReplyTo").String(),
		Published:    parseTime(obj.Get("published").String()),
		LikeCount:    int(obj.Get("likes.totalItems").Int()),
		RepostCount:  int(obj.Get("shares.totalItems").Int()),
	}
	for _, r := range obj.Get("to").Array() {
		o.To = append(o.To, r.String())
	}
	for _, r := range obj.Get("cc").Array() {
		o.Cc = append(o.Cc, r.String())
	}
	return o, nil
}

// ParseObject decodes a dereferenced Note/Article/Tombstone document
// fetched directly by IRI (as opposed to one embedded inline inside
// an Activity, which ParseActivity already extracts into its Object
// field).
func ParseObject(raw []byte) (*Object, error) {
	root := gjson.ParseBytes(raw)
	if root.Get("type").String() == "" {
		return nil, fmt.Errorf("activity: object missing type")
	}
	return parseObject(root)
}

// ParseActor decodes a dereferenced actor document (Person/Service/
// Application/Group/Organization) into the minimal Actor shape the
// resolver's ensureByApId path needs (spec.md §4.1).
func ParseActor(raw []byte) (*Actor, error) {
	root := gjson.ParseBytes(raw)
	id := root.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("activity: actor missing id")
	}
	a := &Actor{
		ID:            id,
		Type:          root.Get("type").String(),
		PreferredName: root.Get("preferredUsername").String(),
		Name:          root.Get("name").String(),
		Summary:       root.Get("summary").String(),
		URL:           firstIRI(root.Get("url")),
		Inbox:         root.Get("inbox").String(),
		SharedInbox:   root.Get("endpoints.sharedInbox").String(),
		Outbox:        root.Get("outbox").String(),
		Followers:     root.Get("followers").String(),
		Following:     root.Get("following").String(),
		Liked:         root.Get("liked").String(),
		IconURL:       firstIRI(root.Get("icon")),
		ImageURL:      firstIRI(root.Get("image")),
		PublicKeyID:   root.Get("publicKey.id").String(),
		PublicKeyPEM:  root.Get("publicKey.publicKeyPem").String(),
	}
	return a, nil
}

// firstIRI reads a property that may be a bare string IRI, an object
// with an id, or an array of either, and returns the first IRI found.
func firstIRI(r gjson.Result) string {
	switch {
	case r.IsArray():
		arr := r.Array()
		if len(arr) == 0 {
			return ""
		}
		return firstIRI(arr[0])
	case r.IsObject():
		return r.Get("id").String()
	default:
		return r.String()
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
