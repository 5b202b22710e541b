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
	"testing"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
)

// handleAccept/handleReject's precondition checks must all short-circuit
// before touching d.accounts, since a dispatcher built with no
// AccountService (as these cases exercise) would panic on any resolveActor
// call past that point.

func TestHandleAcceptNoOpsOnNonFollowInner(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, newMemStore(), nil, "https", "example.com")
	a := &gfactivity.Activity{
		Kind:             gfactivity.KindAccept,
		InnerKind:        gfactivity.KindLike,
		InnerActivityIRI: "https://remote.example/activities/1",
		InnerActorIRI:    "https://example.com/users/alice",
		InnerObjectIRI:   "https://remote.example/users/bob",
	}
	if err := d.handleAccept(testContext(), a); err != nil {
		t.Fatalf("handleAccept: %v", err)
	}
}

func TestHandleAcceptNoOpsOnBareIRIInner(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, newMemStore(), nil, "https", "example.com")
	a := &gfactivity.Activity{
		Kind:             gfactivity.KindAccept,
		InnerKind:        gfactivity.KindFollow,
		InnerActivityIRI: "https://remote.example/activities/1",
	}
	if err := d.handleAccept(testContext(), a); err != nil {
		t.Fatalf("handleAccept: %v", err)
	}
}

func TestHandleRejectNoOpsOnNonFollowInner(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, newMemStore(), nil, "https", "example.com")
	a := &gfactivity.Activity{
		Kind:             gfactivity.KindReject,
		InnerKind:        gfactivity.KindAnnounce,
		InnerActivityIRI: "https://remote.example/activities/1",
	}
	if err := d.handleReject(testContext(), a); err != nil {
		t.Fatalf("handleReject: %v", err)
	}
}

func TestHandleRejectNoOpsOnBareIRIInner(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, newMemStore(), nil, "https", "example.com")
	a := &gfactivity.Activity{
		Kind:             gfactivity.KindReject,
		InnerKind:        gfactivity.KindFollow,
		InnerActivityIRI: "https://remote.example/activities/1",
	}
	if err := d.handleReject(testContext(), a); err != nil {
		t.Fatalf("handleReject: %v", err)
	}
}
