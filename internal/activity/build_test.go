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
	"testing"

	"github.com/tidwall/gjson"
)

func TestBuildFollowMarshal(t *testing.T) {
	f := BuildFollow("https://example.com/follows/1", "https://example.com/users/alice", "https://remote.example/users/bob")
	body, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	root := gjson.ParseBytes(body)
	if root.Get("type").String() != "Follow" {
		t.Errorf("type = %q, want Follow", root.Get("type").String())
	}
	if root.Get("actor").String() != "https://example.com/users/alice" {
		t.Errorf("actor = %q", root.Get("actor").String())
	}
	if root.Get("object").String() != "https://remote.example/users/bob" {
		t.Errorf("object = %q", root.Get("object").String())
	}
}

func TestBuildAcceptWrapsFollowAndTargetsFollower(t *testing.T) {
	follow := BuildFollow("https://example.com/follows/1", "https://example.com/users/alice", "https://remote.example/users/bob")
	accept := BuildAccept("https://remote.example/accept/1", "https://remote.example/users/bob", follow)
	body, err := Marshal(accept)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	root := gjson.ParseBytes(body)
	if root.Get("type").String() != "Accept" {
		t.Errorf("type = %q, want Accept", root.Get("type").String())
	}
	if root.Get("object.type").String() != "Follow" {
		t.Errorf("object.type = %q, want Follow", root.Get("object.type").String())
	}
	// Accept's "to" mirrors the wrapped Follow's actor (the original follower).
	if root.Get("to").String() != "https://example.com/users/alice" {
		t.Errorf("to = %q, want the follow's actor", root.Get("to").String())
	}
}

func TestBuildRejectWrapsFollow(t *testing.T) {
	follow := BuildFollow("https://example.com/follows/1", "https://example.com/users/alice", "https://remote.example/users/bob")
	reject := BuildReject("https://remote.example/reject/1", "https://remote.example/users/bob", follow)
	body, err := Marshal(reject)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	root := gjson.ParseBytes(body)
	if root.Get("type").String() != "Reject" {
		t.Errorf("type = %q, want Reject", root.Get("type").String())
	}
	if root.Get("object.id").String() != "https://example.com/follows/1" {
		t.Errorf("object.id = %q", root.Get("object.id").String())
	}
}

func TestBuildNoteAndArticle(t *testing.T) {
	p := NoteParams{
		ID:           "https://example.com/notes/1",
		AttributedTo: "https://example.com/users/alice",
		Content:      "hello world",
		Public:       true,
	}

	note := BuildNote(p)
	body, err := Marshal(note)
	if err != nil {
		t.Fatalf("Marshal note: %v", err)
	}
	root := gjson.ParseBytes(body)
	if root.Get("type").String() != "Note" {
		t.Errorf("type = %q, want Note", root.Get("type").String())
	}
	if root.Get("content").String() != "hello world" {
		t.Errorf("content = %q", root.Get("content").String())
	}
	if root.Get("to").String() != PublicIRI {
		t.Errorf("to = %q, want the public IRI", root.Get("to").String())
	}

	p.Name = "A title"
	article := BuildArticle(p)
	body, err = Marshal(article)
	if err != nil {
		t.Fatalf("Marshal article: %v", err)
	}
	root = gjson.ParseBytes(body)
	if root.Get("type").String() != "Article" {
		t.Errorf("type = %q, want Article", root.Get("type").String())
	}
	if root.Get("name").String() != "A title" {
		t.Errorf("name = %q", root.Get("name").String())
	}
}

func TestBuildCreateWrapsObject(t *testing.T) {
	note := BuildNote(NoteParams{ID: "https://example.com/notes/1", AttributedTo: "https://example.com/users/alice", Content: "hi"})
	create := BuildCreate("https://example.com/activities/1", "https://example.com/users/alice", note, []string{PublicIRI})
	body, err := Marshal(create)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root := gjson.ParseBytes(body)
	if root.Get("type").String() != "Create" {
		t.Errorf("type = %q, want Create", root.Get("type").String())
	}
	if root.Get("object.id").String() != "https://example.com/notes/1" {
		t.Errorf("object.id = %q", root.Get("object.id").String())
	}
}

func TestBuildDeleteWrapsTombstone(t *testing.T) {
	del := BuildDelete("https://example.com/activities/2", "https://example.com/users/alice", "https://example.com/notes/1")
	body, err := Marshal(del)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root := gjson.ParseBytes(body)
	if root.Get("object.type").String() != "Tombstone" {
		t.Errorf("object.type = %q, want Tombstone", root.Get("object.type").String())
	}
	if root.Get("object.id").String() != "https://example.com/notes/1" {
		t.Errorf("object.id = %q", root.Get("object.id").String())
	}
}

func TestBuildLikeAndUndo(t *testing.T) {
	like := BuildLike("https://example.com/likes/1", "https://example.com/users/alice", "https://remote.example/notes/9")
	undo := BuildUndo("https://example.com/activities/3", "https://example.com/users/alice", like)
	body, err := Marshal(undo)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root := gjson.ParseBytes(body)
	if root.Get("type").String() != "Undo" {
		t.Errorf("type = %q, want Undo", root.Get("type").String())
	}
	if root.Get("object.type").String() != "Like" {
		t.Errorf("object.type = %q, want Like", root.Get("object.type").String())
	}
	if root.Get("object.object").String() != "https://remote.example/notes/9" {
		t.Errorf("object.object = %q", root.Get("object.object").String())
	}
}

func TestBuildAnnounceRecipients(t *testing.T) {
	ann := BuildAnnounce("https://example.com/activities/4", "https://example.com/users/alice", "https://remote.example/notes/9", []string{PublicIRI, "https://example.com/users/alice/followers"})
	body, err := Marshal(ann)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root := gjson.ParseBytes(body)
	if !root.Get("to").IsArray() {
		t.Fatalf("to should be an array of recipients, got %s", root.Get("to").Raw)
	}
	if len(root.Get("to").Array()) != 2 {
		t.Errorf("to has %d entries, want 2", len(root.Get("to").Array()))
	}
}

func TestToTypeRoundTrip(t *testing.T) {
	follow := BuildFollow("https://example.com/follows/1", "https://example.com/users/alice", "https://remote.example/users/bob")
	body, err := Marshal(follow)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	typed, err := ToType(context.Background(), body)
	if err != nil {
		t.Fatalf("ToType: %v", err)
	}
	if typed.GetTypeName() != "Follow" {
		t.Errorf("GetTypeName() = %q, want Follow", typed.GetTypeName())
	}
}
