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

import "testing"

func TestParseActivityFollow(t *testing.T) {
	raw := []byte(`{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id": "https://example.com/follows/123",
		"type": "Follow",
		"actor": "https://example.com/users/alice",
		"object": "https://remote.example/users/bob"
	}`)

	a, err := ParseActivity(raw)
	if err != nil {
		t.Fatalf("ParseActivity: %v", err)
	}
	if a.Kind != KindFollow {
		t.Errorf("Kind = %q, want Follow", a.Kind)
	}
	if a.ActorIRI != "https://example.com/users/alice" {
		t.Errorf("ActorIRI = %q", a.ActorIRI)
	}
	if a.ObjectIRI != "https://remote.example/users/bob" {
		t.Errorf("ObjectIRI = %q", a.ObjectIRI)
	}
	if a.Object != nil {
		t.Error("Object should be nil for a bare-IRI object")
	}
}

func TestParseActivityCreateWithInlineNote(t *testing.T) {
	raw := []byte(`{
		"id": "https://example.com/activities/1",
		"type": "Create",
		"actor": "https://example.com/users/alice",
		"object": {
			"id": "https://example.com/notes/1",
			"type": "Note",
			"attributedTo": "https://example.com/users/alice",
			"content": "hello",
			"likes": {"totalItems": 3},
			"shares": {"totalItems": 1}
		}
	}`)

	a, err := ParseActivity(raw)
	if err != nil {
		t.Fatalf("ParseActivity: %v", err)
	}
	if a.Object == nil {
		t.Fatal("Object should be populated for an inline object")
	}
	if a.Object.Kind != ObjectNote {
		t.Errorf("Object.Kind = %q, want Note", a.Object.Kind)
	}
	if a.Object.Content != "hello" {
		t.Errorf("Object.Content = %q", a.Object.Content)
	}
	if a.Object.LikeCount != 3 || a.Object.RepostCount != 1 {
		t.Errorf("LikeCount/RepostCount = %d/%d, want 3/1", a.Object.LikeCount, a.Object.RepostCount)
	}
	if a.ObjectIRI != "https://example.com/notes/1" {
		t.Errorf("ObjectIRI = %q", a.ObjectIRI)
	}
}

func TestParseActivityUndoWrapsInlineFollow(t *testing.T) {
	raw := []byte(`{
		"id": "https://example.com/activities/undo-1",
		"type": "Undo",
		"actor": "https://example.com/users/alice",
		"object": {
			"id": "https://example.com/follows/123",
			"type": "Follow",
			"actor": "https://example.com/users/alice",
			"object": "https://remote.example/users/bob"
		}
	}`)

	a, err := ParseActivity(raw)
	if err != nil {
		t.Fatalf("ParseActivity: %v", err)
	}
	if a.InnerKind != KindFollow {
		t.Errorf("InnerKind = %q, want Follow", a.InnerKind)
	}
	if a.InnerActivityIRI != "https://example.com/follows/123" {
		t.Errorf("InnerActivityIRI = %q", a.InnerActivityIRI)
	}
	if a.InnerActorIRI != "https://example.com/users/alice" {
		t.Errorf("InnerActorIRI = %q", a.InnerActorIRI)
	}
	if a.InnerObjectIRI != "https://remote.example/users/bob" {
		t.Errorf("InnerObjectIRI = %q", a.InnerObjectIRI)
	}
}

func TestParseActivityUndoWrapsBareIRI(t *testing.T) {
	raw := []byte(`{
		"id": "https://example.com/activities/undo-2",
		"type": "Undo",
		"actor": "https://example.com/users/alice",
		"object": "https://example.com/likes/456"
	}`)

	a, err := ParseActivity(raw)
	if err != nil {
		t.Fatalf("ParseActivity: %v", err)
	}
	if a.InnerKind != "" {
		t.Errorf("InnerKind = %q, want empty for a bare-IRI undo target", a.InnerKind)
	}
	if a.InnerActivityIRI != "https://example.com/likes/456" {
		t.Errorf("InnerActivityIRI = %q", a.InnerActivityIRI)
	}
}

func TestParseActivityMissingType(t *testing.T) {
	_, err := ParseActivity([]byte(`{"id": "https://example.com/x", "actor": "https://example.com/users/alice"}`))
	if err == nil {
		t.Error("expected error for an activity with no type")
	}
}

func TestParseActivityActorAsObjectOrArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "actor as embedded object",
			raw:  `{"id":"https://example.com/1","type":"Like","actor":{"id":"https://example.com/users/alice"},"object":"https://example.com/notes/1"}`,
			want: "https://example.com/users/alice",
		},
		{
			name: "actor as array of IRIs",
			raw:  `{"id":"https://example.com/1","type":"Like","actor":["https://example.com/users/alice"],"object":"https://example.com/notes/1"}`,
			want: "https://example.com/users/alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseActivity([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseActivity: %v", err)
			}
			if a.ActorIRI != tt.want {
				t.Errorf("ActorIRI = %q, want %q", a.ActorIRI, tt.want)
			}
		})
	}
}

func TestParseObjectTombstone(t *testing.T) {
	raw := []byte(`{"id": "https://example.com/notes/1", "type": "Tombstone"}`)
	o, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	if o.Kind != ObjectTombstone {
		t.Errorf("Kind = %q, want Tombstone", o.Kind)
	}
}

func TestParseActor(t *testing.T) {
	raw := []byte(`{
		"id": "https://remote.example/users/bob",
		"type": "Person",
		"preferredUsername": "bob",
		"name": "Bob",
		"inbox": "https://remote.example/users/bob/inbox",
		"endpoints": {"sharedInbox": "https://remote.example/inbox"},
		"publicKey": {"id": "https://remote.example/users/bob#main-key", "publicKeyPem": "-----BEGIN PUBLIC KEY-----\n...\n-----END PUBLIC KEY-----"}
	}`)

	a, err := ParseActor(raw)
	if err != nil {
		t.Fatalf("ParseActor: %v", err)
	}
	if a.PreferredName != "bob" {
		t.Errorf("PreferredName = %q", a.PreferredName)
	}
	if a.SharedInbox != "https://remote.example/inbox" {
		t.Errorf("SharedInbox = %q", a.SharedInbox)
	}
	if a.PublicKeyID != "https://remote.example/users/bob#main-key" {
		t.Errorf("PublicKeyID = %q", a.PublicKeyID)
	}
}

func TestParseActorMissingID(t *testing.T) {
	_, err := ParseActor([]byte(`{"type": "Person"}`))
	if err == nil {
		t.Error("expected error for an actor document with no id")
	}
}

func TestOriginHost(t *testing.T) {
	host, err := OriginHost([]byte(`{"id": "https://example.com/activities/1"}`))
	if err != nil {
		t.Fatalf("OriginHost: %v", err)
	}
	if host != "example.com" {
		t.Errorf("host = %q, want example.com", host)
	}

	if _, err := OriginHost([]byte(`{}`)); err == nil {
		t.Error("expected error for a document with no id")
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		claimedHost string
		wantErr     bool
	}{
		{
			name:        "id and actor match claimed host",
			raw:         `{"id":"https://example.com/activities/1","actor":"https://example.com/users/alice"}`,
			claimedHost: "example.com",
			wantErr:     false,
		},
		{
			name:        "id host does not match claimed host",
			raw:         `{"id":"https://evil.example/activities/1","actor":"https://example.com/users/alice"}`,
			claimedHost: "example.com",
			wantErr:     true,
		},
		{
			name:        "actor host does not match claimed host",
			raw:         `{"id":"https://example.com/activities/1","actor":"https://evil.example/users/alice"}`,
			claimedHost: "example.com",
			wantErr:     true,
		},
		{
			name:        "no actor property still checks id",
			raw:         `{"id":"https://example.com/activities/1"}`,
			claimedHost: "example.com",
			wantErr:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOrigin([]byte(tt.raw), tt.claimedHost)
			if tt.wantErr && err == nil {
				t.Error("expected error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
