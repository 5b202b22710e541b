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

package collaborators

import (
	"context"
	"errors"
	"testing"
)

type stubAccountLookup struct {
	username string
	apID     string
}

func (s stubAccountLookup) GetAccountByUsername(ctx context.Context, username string) (string, error) {
	if username != s.username {
		return "", errors.New("not found")
	}
	return s.apID, nil
}

func TestSingleAccountWebFingerResolvesAcctResource(t *testing.T) {
	w := SingleAccountWebFinger{Accounts: stubAccountLookup{username: "alice", apID: "https://example.com/.ghost/activitypub/users/1"}}

	got, err := w.Resolve(context.Background(), "acct:alice@example.com")
	if err != nil {
		t.Fatalf("Resolve returned error: %s", err)
	}
	if got.String() != "https://example.com/.ghost/activitypub/users/1" {
		t.Errorf("Resolve = %q, want actor IRI", got.String())
	}
}

func TestSingleAccountWebFingerResolvesBareUsername(t *testing.T) {
	w := SingleAccountWebFinger{Accounts: stubAccountLookup{username: "alice", apID: "https://example.com/.ghost/activitypub/users/1"}}

	got, err := w.Resolve(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Resolve returned error: %s", err)
	}
	if got.String() != "https://example.com/.ghost/activitypub/users/1" {
		t.Errorf("Resolve = %q, want actor IRI", got.String())
	}
}

func TestSingleAccountWebFingerUnknownUsername(t *testing.T) {
	w := SingleAccountWebFinger{Accounts: stubAccountLookup{username: "alice", apID: "https://example.com/.ghost/activitypub/users/1"}}

	if _, err := w.Resolve(context.Background(), "acct:bob@example.com"); err == nil {
		t.Errorf("expected an error resolving an unknown username")
	}
}
