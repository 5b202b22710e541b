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

// Package paths builds and parses the fixed set of AP routes spec.md §6
// names, generalized from the teacher's generic PathKey table
// (paths/iri.go) down to this system's fixed route list.
package paths

import (
	"fmt"
	"net/url"
	"strings"
)

const base = "/.ghost/activitypub"

// ObjectKind is the tag for an object/activity dispatcher route.
type ObjectKind string

const (
	KindArticle  ObjectKind = "article"
	KindNote     ObjectKind = "note"
	KindFollow   ObjectKind = "follow"
	KindAccept   ObjectKind = "accept"
	KindCreate   ObjectKind = "create"
	KindUpdate   ObjectKind = "update"
	KindLike     ObjectKind = "like"
	KindAnnounce ObjectKind = "announce"
	KindUndo     ObjectKind = "undo"
	KindDelete   ObjectKind = "delete"
	KindReject   ObjectKind = "reject"
)

func Normalize(i *url.URL) *url.URL {
	c := *i
	c.RawQuery = ""
	c.Fragment = ""
	return &c
}

func NormalizeAsIRI(s string) (*url.URL, error) {
	c, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return Normalize(c), nil
}

func iri(scheme, host, pathAndID string) *url.URL {
	return &url.URL{Scheme: scheme, Host: host, Path: base + pathAndID}
}

func ActorIRI(scheme, host string, accountID string) *url.URL {
	return iri(scheme, host, "/users/"+accountID)
}

func InboxIRI(scheme, host string, accountID string) *url.URL {
	return iri(scheme, host, "/inbox/"+accountID)
}

func SharedInboxIRI(scheme, host string) *url.URL {
	return iri(scheme, host, "/inbox")
}

func FollowersIRI(scheme, host string, accountID string) *url.URL {
	return iri(scheme, host, "/followers/"+accountID)
}

func FollowingIRI(scheme, host string, accountID string) *url.URL {
	return iri(scheme, host, "/following/"+accountID)
}

func OutboxIRI(scheme, host string, accountID string) *url.URL {
	return iri(scheme, host, "/outbox/"+accountID)
}

func LikedIRI(scheme, host string, accountID string) *url.URL {
	return iri(scheme, host, "/liked/"+accountID)
}

// ObjectIRI builds a dispatcher route for a stored activity/object of
// the given kind.
func ObjectIRI(scheme, host string, kind ObjectKind, id string) *url.URL {
	return iri(scheme, host, "/"+string(kind)+"/"+id)
}

// ParseObjectPath extracts the kind and id from a dispatcher path, or
// returns ok=false if it doesn't match the fixed route list.
func ParseObjectPath(path string) (kind ObjectKind, id string, ok bool) {
	rest := strings.TrimPrefix(path, base+"/")
	if rest == path {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	switch ObjectKind(parts[0]) {
	case KindArticle, KindNote, KindFollow, KindAccept, KindCreate, KindUpdate,
		KindLike, KindAnnounce, KindUndo, KindDelete, KindReject:
		return ObjectKind(parts[0]), parts[1], true
	}
	return "", "", false
}

// NewActivityID mints a fresh, unused object/activity IRI under the
// given kind's route, per spec.md §4.6 ("assigned a fresh URI (UUIDv4
// under the object dispatcher's route)").
func NewActivityID(scheme, host string, kind ObjectKind, uuidStr string) *url.URL {
	return ObjectIRI(scheme, host, kind, uuidStr)
}

func WebfingerResource(username, host string) string {
	return fmt.Sprintf("acct:%s@%s", username, host)
}
