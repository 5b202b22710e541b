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

package events

import "github.com/tryghost/activitypub/internal/models"

// AccountFollowedData/AccountUnfollowedData carry the follow edge for
// account.followed / account.unfollowed (spec.md §4.2).
type AccountFollowedData struct {
	FollowerID int64
	FolloweeID int64
}

type AccountUnfollowedData struct {
	FolloweeID   int64
	UnfollowerID int64
}

// AccountUpdatedData carries the account whose local columns changed
// (spec.md §4.2), so the delivery bridge can build Update(actor).
type AccountUpdatedData struct {
	Account *models.Account
}

// AccountBlockedData drives the Reject(Follow(...)) delivery bridge
// entry (spec.md §4.6): the ids of the blocking account and the
// blocked account.
type AccountBlockedData struct {
	BlockerID int64
	BlockedID int64
}

// PostCreatedData/PostDeletedData carry the post for the Create/Delete
// delivery bridge entries (spec.md §4.6) and the feed engine's
// addPostToFeeds/removePostFromFeeds (spec.md §4.4).
type PostCreatedData struct {
	Post *models.Post
}

type PostDeletedData struct {
	Post *models.Post
}

// PostRepostedData/PostDerepostedData additionally carry the
// reposting/dereposting account, since fan-out targets differ from a
// plain post.created (spec.md §4.4: "include the user bound to that
// account plus users whose accounts follow repostedBy").
type PostRepostedData struct {
	Post       *models.Post
	RepostedBy *models.Account
}

type PostDerepostedData struct {
	Post        *models.Post
	DerepostedBy *models.Account
}

// PostLikedData/PostUnlikedData carry the liking/unliking account for
// the per-liker post.liked/post.unliked events spec.md §4.5 step 7
// requires alongside the aggregate count update.
type PostLikedData struct {
	Post    *models.Post
	LikedBy *models.Account
}

type PostUnlikedData struct {
	Post      *models.Post
	UnlikedBy *models.Account
}

// FeedChangeKind distinguishes the two feeds.updated shapes spec.md
// §4.4 names.
type FeedChangeKind string

const (
	FeedChangePostAdded   FeedChangeKind = "PostAdded"
	FeedChangePostRemoved FeedChangeKind = "PostRemoved"
)

// FeedsUpdatedData is emitted after a fan-out transaction commits
// (spec.md §4.4: "Emit feeds.updated(userIds, PostAdded, post)").
type FeedsUpdatedData struct {
	UserIDs []int64
	Change  FeedChangeKind
	Post    *models.Post
}

// RegisterAll registers every payload type this repo emits, for
// cross-process decoding (spec.md §9's "registry of event kinds").
func RegisterAll(r *Registry) {
	r.Register(KindAccountFollowed, AccountFollowedData{})
	r.Register(KindAccountUnfollowed, AccountUnfollowedData{})
	r.Register(KindAccountUpdated, AccountUpdatedData{})
	r.Register(KindAccountBlocked, AccountBlockedData{})
	r.Register(KindPostCreated, PostCreatedData{})
	r.Register(KindPostDeleted, PostDeletedData{})
	r.Register(KindPostReposted, PostRepostedData{})
	r.Register(KindPostDereposted, PostDerepostedData{})
	r.Register(KindPostLiked, PostLikedData{})
	r.Register(KindPostUnliked, PostUnlikedData{})
	r.Register(KindFeedsUpdated, FeedsUpdatedData{})
}
