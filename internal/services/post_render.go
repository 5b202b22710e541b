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

package services

import (
	"github.com/go-fed/activity/streams/vocab"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/models"
)

// BuildPostObject renders post as a Note or Article object, the single
// source both the delivery bridge's Create/Update(Object) activities
// and the outbox dispatcher's reconstituted Create entries build from
// (spec.md §4.6, §4.10), so a post's federated shape never drifts
// between the two call sites.
func BuildPostObject(post *models.Post, author *models.Account) vocab.Type {
	p := gfactivity.NoteParams{
		ID:           post.APID,
		AttributedTo: author.APID,
		Content:      post.Content,
		Summary:      post.Summary,
		Published:    post.PublishedAt,
		Public:       post.Audience == models.AudiencePublic,
	}
	if post.Type == models.PostTypeArticle {
		p.Name = post.Title
		return gfactivity.BuildArticle(p)
	}
	return gfactivity.BuildNote(p)
}

// AudienceTo is the "to" addressing spec.md §4.6 gives a Create: the
// public collection for a public post, nothing (followers-only
// addressing happens by recipient inbox selection, not an explicit
// "to") otherwise.
func AudienceTo(post *models.Post) []string {
	if post.Audience == models.AudiencePublic {
		return []string{gfactivity.PublicIRI}
	}
	return nil
}
