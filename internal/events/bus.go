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

// Package events is the in-process domain event bus spec.md §9 calls
// for: "in-process message passing with awaitable delivery so save()
// returns only after subscribers complete." Unlike a fire-and-forget
// broadcast bus, Publish here blocks until every subscriber for the
// event's kind has run, and returns the first subscriber error so
// callers (the post-service save transaction, the feed engine) can
// decide whether a failure should roll back or merely log.
package events

import (
	"sync"

	"github.com/tryghost/activitypub/internal/util"
)

// Kind names a domain event, matching the event names spec.md §4.3-4.6
// use verbatim (post.created, post.deleted, account.followed, ...).
type Kind string

const (
	KindAccountFollowed   Kind = "account.followed"
	KindAccountUnfollowed Kind = "account.unfollowed"
	KindAccountUpdated    Kind = "account.updated"
	KindAccountBlocked    Kind = "account.blocked"
	KindPostCreated       Kind = "post.created"
	KindPostDeleted       Kind = "post.deleted"
	KindPostReposted      Kind = "post.reposted"
	KindPostDereposted    Kind = "post.dereposted"
	KindPostLiked         Kind = "post.liked"
	KindPostUnliked       Kind = "post.unliked"
	KindFeedsUpdated      Kind = "feeds.updated"
)

// Event is the envelope carried through the bus and, per spec.md §9,
// the same shape serialized to the queue's internal topic for
// cross-process fan-out.
type Event struct {
	Kind Kind
	Data interface{}
}

// Handler processes one event. Returning an error aborts Publish for
// the remaining subscribers of that kind and the error surfaces to
// the publisher.
type Handler func(c util.Context, e Event) error

// Bus is the awaitable, synchronous publish/subscribe registry.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]Handler
}

func New() *Bus {
	return &Bus{subs: make(map[Kind][]Handler)}
}

// Subscribe registers h to run, in registration order, whenever kind
// is published.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], h)
}

// Publish runs every kind subscriber synchronously and returns only
// after they all complete (or one fails), satisfying spec.md §5's
// ordering guarantee: "a post.created event for post P is observed by
// the feed engine before any later post.deleted(P) event; this is
// guaranteed by awaiting event emission in the repository."
func (b *Bus) Publish(c util.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[e.Kind]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		if err := h(c, e); err != nil {
			return err
		}
	}
	return nil
}
