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
	"context"
	"strings"
	"testing"

	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/util"
)

// memStore is a minimal in-memory kv.Store, standing in for a real
// backend so Handle's caching behavior can be asserted without a
// database.
type memStore struct {
	data map[string][]byte
	sets []string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(c util.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memStore) Set(c util.Context, key string, value []byte) error {
	m.data[key] = value
	m.sets = append(m.sets, key)
	return nil
}

func (m *memStore) Delete(c util.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testContext() util.Context {
	return util.NewContext(context.Background())
}

func TestHandleRejectsOriginMismatch(t *testing.T) {
	store := newMemStore()
	d := NewDispatcher(nil, nil, nil, nil, store, nil, "https", "example.com")

	raw := []byte(`{
		"id": "https://evil.example/activities/1",
		"type": "Follow",
		"actor": "https://evil.example/users/eve",
		"object": "https://example.com/users/alice"
	}`)

	err := d.Handle(testContext(), raw, "example.com")
	if err == nil {
		t.Fatal("expected an origin mismatch error")
	}
	if len(store.sets) != 0 {
		t.Errorf("store should not be touched before origin is verified, got %d Set calls", len(store.sets))
	}
}

func TestHandleCachesActivityAndInlineObject(t *testing.T) {
	store := newMemStore()
	d := NewDispatcher(nil, nil, nil, nil, store, nil, "https", "example.com")

	raw := []byte(`{
		"id": "https://example.com/activities/1",
		"type": "Arrive",
		"actor": "https://example.com/users/alice",
		"object": {
			"id": "https://example.com/notes/1",
			"type": "Note",
			"content": "hi"
		}
	}`)

	if err := d.Handle(testContext(), raw, "example.com"); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if _, ok := store.data["https://example.com/activities/1"]; !ok {
		t.Error("raw activity should be cached under its own id")
	}
	cached, ok := store.data["https://example.com/notes/1"]
	if !ok {
		t.Fatal("inline object should be cached under its own id")
	}
	if got := gjsonParse(string(cached)).Get("content").String(); got != "hi" {
		t.Errorf("cached object content = %q, want %q", got, "hi")
	}
}

func TestHandleUnknownKindWithoutInlineObjectCachesOnlyActivity(t *testing.T) {
	store := newMemStore()
	d := NewDispatcher(nil, nil, nil, nil, store, nil, "https", "example.com")

	raw := []byte(`{
		"id": "https://example.com/activities/2",
		"type": "Arrive",
		"actor": "https://example.com/users/alice",
		"object": "https://example.com/places/1"
	}`)

	if err := d.Handle(testContext(), raw, "example.com"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.sets) != 1 {
		t.Errorf("expected exactly 1 Set call (the activity itself), got %d: %v", len(store.sets), store.sets)
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://example.com/users/alice")
	if err != nil {
		t.Fatalf("hostOf: %v", err)
	}
	if host != "example.com" {
		t.Errorf("host = %q, want example.com", host)
	}
}

func TestHostOfInvalidIRI(t *testing.T) {
	if _, err := hostOf("://not a url"); err == nil {
		t.Error("expected an error for a malformed IRI")
	}
}

func TestParseIRI(t *testing.T) {
	u, err := parseIRI("https://example.com/users/alice")
	if err != nil {
		t.Fatalf("parseIRI: %v", err)
	}
	if u.Host != "example.com" {
		t.Errorf("Host = %q", u.Host)
	}

	if _, err := parseIRI(""); err == nil {
		t.Error("expected an error for an empty iri")
	}
}

func TestFirstIRIValueVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare string", raw: `"https://example.com/1"`, want: "https://example.com/1"},
		{name: "object with id", raw: `{"id":"https://example.com/2"}`, want: "https://example.com/2"},
		{name: "array picks first element", raw: `["https://example.com/3","https://example.com/4"]`, want: "https://example.com/3"},
		{name: "empty array", raw: `[]`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firstIRIValue(gjsonParse(tt.raw))
			if got != tt.want {
				t.Errorf("firstIRIValue(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDispatcherNewActivityID(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, newMemStore(), nil, "https", "example.com")
	id := d.newActivityID(paths.KindAccept)
	if !strings.HasPrefix(id, "https://example.com/.ghost/activitypub/accept/") {
		t.Errorf("newActivityID = %q, want an accept route under example.com", id)
	}
}

func TestDeliverFromRejectsNonInternalSender(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, newMemStore(), nil, "https", "example.com")
	err := d.deliverFrom(testContext(), remoteTestAccount(), nil, remoteTestAccount())
	if err == nil {
		t.Fatal("expected an error delivering as a non-internal account")
	}
}
