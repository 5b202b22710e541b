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
	"github.com/go-fed/activity/streams"
	"github.com/go-fed/activity/streams/vocab"
)

// BuildOrderedCollection constructs an unpaginated OrderedCollection
// of actor IRIs, the shape spec.md §4.10 names for the followers
// collection ("all followers (bounded) as recipient objects") and the
// always-empty liked collection, grounded on BuildActor's property-
// setter idiom extended to the Activity Streams collection vocabulary.
func BuildOrderedCollection(id string, itemIRIs []string, totalItems int) vocab.ActivityStreamsOrderedCollection {
	oc := streams.NewActivityStreamsOrderedCollection()
	oc.SetJSONLDId(idProperty(id))

	items := streams.NewActivityStreamsOrderedItemsProperty()
	for _, iri := range itemIRIs {
		items.AppendIRI(mustIRI(iri))
	}
	oc.SetActivityStreamsOrderedItems(items)

	total := streams.NewActivityStreamsTotalItemsProperty()
	total.Set(totalItems)
	oc.SetActivityStreamsTotalItems(total)

	return oc
}

// BuildOrderedCollectionPageIRIs constructs one page of actor IRIs,
// spec.md §4.10's offset-cursor following collection.
func BuildOrderedCollectionPageIRIs(id string, itemIRIs []string, partOf string, next string, totalItems int) vocab.ActivityStreamsOrderedCollectionPage {
	p := streams.NewActivityStreamsOrderedCollectionPage()
	p.SetJSONLDId(idProperty(id))

	items := streams.NewActivityStreamsOrderedItemsProperty()
	for _, iri := range itemIRIs {
		items.AppendIRI(mustIRI(iri))
	}
	p.SetActivityStreamsOrderedItems(items)

	total := streams.NewActivityStreamsTotalItemsProperty()
	total.Set(totalItems)
	p.SetActivityStreamsTotalItems(total)

	partOfProp := streams.NewActivityStreamsPartOfProperty()
	partOfProp.SetIRI(mustIRI(partOf))
	p.SetActivityStreamsPartOf(partOfProp)

	if next != "" {
		nextProp := streams.NewActivityStreamsNextProperty()
		nextProp.SetIRI(mustIRI(next))
		p.SetActivityStreamsNext(nextProp)
	}

	return p
}

// BuildOrderedCollectionPage constructs one page of embedded
// activities, spec.md §4.10's timestamp-cursor outbox collection
// (Create/Announce objects reconstituted from stored post rows).
func BuildOrderedCollectionPage(id string, items []vocab.Type, partOf string, next string, totalItems int) vocab.ActivityStreamsOrderedCollectionPage {
	p := streams.NewActivityStreamsOrderedCollectionPage()
	p.SetJSONLDId(idProperty(id))

	itemsProp := streams.NewActivityStreamsOrderedItemsProperty()
	for _, it := range items {
		itemsProp.AppendType(it)
	}
	p.SetActivityStreamsOrderedItems(itemsProp)

	total := streams.NewActivityStreamsTotalItemsProperty()
	total.Set(totalItems)
	p.SetActivityStreamsTotalItems(total)

	partOfProp := streams.NewActivityStreamsPartOfProperty()
	partOfProp.SetIRI(mustIRI(partOf))
	p.SetActivityStreamsPartOf(partOfProp)

	if next != "" {
		nextProp := streams.NewActivityStreamsNextProperty()
		nextProp.SetIRI(mustIRI(next))
		p.SetActivityStreamsNext(nextProp)
	}

	return p
}
