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
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/google/uuid"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/events"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/util"
)

// PostService implements spec.md §4.5: GetByApId, RepostByApId,
// LikePost, CreateNote, CreateReply, and the authoritative save
// transaction every mutation funnels through. Grounded on
// services/data.go's Create/Update/Delete/Exists dispatch-by-ownership
// pattern and services/outboxes.go's per-entry-type writes.
type PostService struct {
	db          *sql.DB
	posts       *models.Posts
	likes       *models.Likes
	reposts     *models.Reposts
	outboxes    *models.Outboxes
	accounts    *models.Accounts
	resolver    *Resolver
	moderation  *ModerationService
	bus         *events.Bus
	maxReplyDepth int
	scheme      string
	host        string
}

func NewPostService(db *sql.DB, posts *models.Posts, likes *models.Likes, reposts *models.Reposts,
	outboxes *models.Outboxes, accounts *models.Accounts, resolver *Resolver, moderation *ModerationService,
	bus *events.Bus, maxReplyDepth int, scheme, host string) *PostService {
	return &PostService{
		db: db, posts: posts, likes: likes, reposts: reposts, outboxes: outboxes,
		accounts: accounts, resolver: resolver, moderation: moderation, bus: bus,
		maxReplyDepth: maxReplyDepth, scheme: scheme, host: host,
	}
}

// mintObjectID assigns a locally authored post its own stable
// dispatcher route, the way internal/inbox.Dispatcher.newActivityID
// mints a fresh activity id, except a post's id is assigned once at
// creation and kept for the post's lifetime rather than minted fresh
// per activity.
func (s *PostService) mintObjectID(kind paths.ObjectKind) (idUUID, apID string) {
	idUUID = uuid.New().String()
	apID = paths.ObjectIRI(s.scheme, s.host, kind, idUUID).String()
	return idUUID, apID
}

func postAPIDHash(apID string) string {
	sum := sha256.Sum256([]byte(apID))
	return hex.EncodeToString(sum[:])
}

// interactionDiff is the set of account-id deltas between a post's
// prior like/repost snapshot and its freshly observed one, feeding
// spec.md §4.5 step 4's diff-and-apply reconciliation.
type interactionDiff struct {
	added   []int64
	removed []int64
}

func diffAccountIDs(prior, next map[int64]bool) interactionDiff {
	var d interactionDiff
	for id := range next {
		if !prior[id] {
			d.added = append(d.added, id)
		}
	}
	for id := range prior {
		if !next[id] {
			d.removed = append(d.removed, id)
		}
	}
	return d
}

// GetByApId is spec.md §4.5's fast/slow path: return the existing
// row, or resolve+persist a never-seen remote Note/Article.
func (s *PostService) GetByApId(c util.Context, iri *url.URL) (*models.Post, error) {
	return s.getByApIdAtDepth(c, iri, 0)
}

// FindExisting returns the row already mirrored for apID without
// dereferencing it, used by Delete's handler: a tombstoned object is
// frequently no longer fetchable, so deletion must work off whatever
// this instance already has (spec.md §4.3).
func (s *PostService) FindExisting(c util.Context, apID string) (*models.Post, error) {
	return s.byAPID(c, apID)
}

func (s *PostService) getByApIdAtDepth(c util.Context, iri *url.URL, depth int) (*models.Post, error) {
	if p, err := s.byAPID(c, iri.String()); err == nil {
		return p, nil
	}

	raw, err := s.resolver.Lookup(c, iri)
	if err != nil {
		return nil, err
	}
	return s.ingestObject(c, raw, depth)
}

func (s *PostService) byAPID(c util.Context, apID string) (*models.Post, error) {
	var p *models.Post
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		row, err := s.posts.ByAPIDHash(c, tx, postAPIDHash(apID))
		if err != nil {
			return err
		}
		p = row
		return nil
	})
	if err != nil {
		return nil, newErr("GetByApId", KindNotFound, err)
	}
	return p, nil
}

// ingestObject parses a dereferenced Note/Article, resolves its
// author and (bounded, memoized) reply chain, and saves it, per
// spec.md §4.5's slow path and §9's reply-graph memoization/depth-cap
// design note.
func (s *PostService) ingestObject(c util.Context, raw []byte, depth int) (*models.Post, error) {
	obj, err := gfactivity.ParseObject(raw)
	if err != nil {
		return nil, newErr("GetByApId", KindInvalidType, err)
	}
	if obj.Kind != gfactivity.ObjectNote && obj.Kind != gfactivity.ObjectArticle {
		return nil, newErr("GetByApId", KindNotAPost, nil)
	}
	if obj.AttributedTo == "" {
		return nil, newErr("GetByApId", KindMissingAuthor, nil)
	}

	authorIRI, err := url.Parse(obj.AttributedTo)
	if err != nil {
		return nil, newErr("GetByApId", KindInvalidData, err)
	}
	accountSvc := s.accountServiceHook()
	author, err := accountSvc.EnsureByApId(c, authorIRI)
	if err != nil {
		return nil, newErr("GetByApId", KindUpstreamError, err)
	}

	var inReplyTo *int64
	if obj.InReplyTo != "" && depth < s.maxReplyDepth {
		parentIRI, err := url.Parse(obj.InReplyTo)
		if err == nil {
			if parent, err := s.getByApIdAtDepth(c, parentIRI, depth+1); err == nil {
				inReplyTo = &parent.ID
			}
		}
	}

	postType := models.PostTypeNote
	if obj.Kind == gfactivity.ObjectArticle {
		postType = models.PostTypeArticle
	}
	audience := models.AudienceFollowersOnly
	for _, t := range obj.To {
		if t == gfactivity.PublicIRI {
			audience = models.AudiencePublic
		}
	}

	post := &models.Post{
		UUID:        obj.ID,
		Type:        postType,
		Audience:    audience,
		Summary:     obj.Summary,
		Content:     obj.Content,
		PublishedAt: obj.Published,
		APID:        obj.ID,
		APIDHash:    postAPIDHash(obj.ID),
		AuthorID:    author.ID,
		InReplyTo:   inReplyTo,
	}
	if postType == models.PostTypeArticle {
		post.Title = obj.Name
	}

	return s.save(c, post, nil, nil)
}

// accountServiceHook breaks the PostService<->AccountService
// construction cycle: both need each other (posts need authors;
// account refresh can touch posts), so AccountService is wired in
// lazily by the application root (internal/app) after both exist.
var accountServiceSingleton *AccountService

func (s *PostService) accountServiceHook() *AccountService { return accountServiceSingleton }

// SetAccountService wires the AccountService this package's
// GetByApId/ingestObject path needs, called once during startup.
func SetAccountService(a *AccountService) { accountServiceSingleton = a }

// RepostByApId: moderation check, ensure target, addRepost, save
// (spec.md §4.5).
func (s *PostService) RepostByApId(c util.Context, reposter *models.Account, iri *url.URL) (*models.Post, error) {
	post, err := s.GetByApId(c, iri)
	if err != nil {
		return nil, err
	}
	ok, err := s.moderation.CanInteractWithAccount(c, reposter.ID, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newErr("RepostByApId", KindCannotInteract, nil)
	}

	already, err := s.repostExists(c, reposter.ID, post.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, newErr("RepostByApId", KindAlreadyExists, nil)
	}

	return s.save(c, post, &reposterChange{accountID: reposter.ID, add: true}, nil)
}

func (s *PostService) repostExists(c util.Context, accountID, postID int64) (bool, error) {
	var exists bool
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		e, err := s.reposts.Exists(c, tx, accountID, postID)
		if err != nil {
			return err
		}
		exists = e
		return nil
	})
	return exists, err
}

// LikePost: moderation check, add like row, save (spec.md §4.5).
func (s *PostService) LikePost(c util.Context, liker *models.Account, post *models.Post) (*models.Post, error) {
	ok, err := s.moderation.CanInteractWithAccount(c, liker.ID, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newErr("LikePost", KindCannotInteract, nil)
	}
	return s.save(c, post, nil, &likerChange{accountID: liker.ID, add: true})
}

// UnlikePost removes a prior like (Undo(Like), spec.md §4.3).
func (s *PostService) UnlikePost(c util.Context, liker *models.Account, post *models.Post) (*models.Post, error) {
	return s.save(c, post, nil, &likerChange{accountID: liker.ID, add: false})
}

// UnrepostByApId removes a prior repost (Undo(Announce), spec.md §4.3).
func (s *PostService) UnrepostByApId(c util.Context, reposter *models.Account, iri *url.URL) (*models.Post, error) {
	post, err := s.GetByApId(c, iri)
	if err != nil {
		return nil, err
	}
	return s.save(c, post, &reposterChange{accountID: reposter.ID, add: false}, nil)
}

// CreateNote/CreateReply construct and save a locally authored post
// (spec.md §4.5).
func (s *PostService) CreateNote(c util.Context, author *models.Account, content string, public bool) (*models.Post, error) {
	audience := models.AudienceFollowersOnly
	if public {
		audience = models.AudiencePublic
	}
	idUUID, apID := s.mintObjectID(paths.KindNote)
	post := &models.Post{
		UUID:        idUUID,
		Type:        models.PostTypeNote,
		Audience:    audience,
		Content:     content,
		PublishedAt: time.Now(),
		APID:        apID,
		APIDHash:    postAPIDHash(apID),
		AuthorID:    author.ID,
	}
	return s.save(c, post, nil, nil)
}

func (s *PostService) CreateReply(c util.Context, author *models.Account, content string, targetIRI *url.URL) (*models.Post, error) {
	target, err := s.GetByApId(c, targetIRI)
	if err != nil {
		return nil, err
	}
	idUUID, apID := s.mintObjectID(paths.KindNote)
	post := &models.Post{
		UUID:        idUUID,
		Type:        models.PostTypeNote,
		Audience:    models.AudienceFollowersOnly,
		Content:     content,
		PublishedAt: time.Now(),
		APID:        apID,
		APIDHash:    postAPIDHash(apID),
		AuthorID:    author.ID,
		InReplyTo:   &target.ID,
	}
	return s.save(c, post, nil, nil)
}

// CreatePublishedArticle is the post.published webhook's entry point
// (spec.md §4.6's "post.published (webhook) → Create(Article)" row):
// a long-form post authored outside this service (the publishing
// platform's own editor) becoming federated for the first time.
func (s *PostService) CreatePublishedArticle(c util.Context, author *models.Account, title, excerpt, content, url, imageURL string, public bool) (*models.Post, error) {
	audience := models.AudienceFollowersOnly
	if public {
		audience = models.AudiencePublic
	}
	idUUID, apID := s.mintObjectID(paths.KindArticle)
	post := &models.Post{
		UUID:        idUUID,
		Type:        models.PostTypeArticle,
		Audience:    audience,
		Title:       title,
		Excerpt:     excerpt,
		Content:     content,
		URL:         url,
		ImageURL:    imageURL,
		PublishedAt: time.Now(),
		APID:        apID,
		APIDHash:    postAPIDHash(apID),
		AuthorID:    author.ID,
	}
	return s.save(c, post, nil, nil)
}

type reposterChange struct {
	accountID int64
	add       bool
}

type likerChange struct {
	accountID int64
	add       bool
}

// save is spec.md §4.5's authoritative save-transaction contract.
// post.ID == 0 signals a new post. repostDelta/likeDelta, when set,
// apply a single interaction change on top of whatever rows already
// exist (RepostByApId/LikePost/undo paths); both are nil for a bare
// create/update/delete.
func (s *PostService) save(c util.Context, post *models.Post, repostDelta *reposterChange, likeDelta *likerChange) (*models.Post, error) {
	isNew := post.ID == 0
	var priorLikes, priorReposts map[int64]bool
	var likeDiff, repostDiff interactionDiff
	var postID int64
	var duplicate bool

	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		if isNew {
			id, existed, err := s.posts.Insert(c, tx, post)
			if err != nil {
				return err
			}
			postID = id
			duplicate = existed
			if existed {
				// Duplicate ap_id_hash: idempotent success against
				// the row that already won the race (spec.md §4.5
				// step 1).
				return nil
			}
			if post.InReplyTo != nil {
				if err := s.posts.IncrReplyCount(c, tx, *post.InReplyTo); err != nil {
					return err
				}
			}
			author, err := s.accounts.ByID(c, tx, post.AuthorID)
			if err != nil {
				return err
			}
			if author.IsInternal {
				entryType := models.OutboxTypeOriginal
				if post.InReplyTo != nil {
					entryType = models.OutboxTypeReply
				}
				if err := s.outboxes.Append(c, tx, models.OutboxEntry{
					AccountID: post.AuthorID, PostID: postID, PostType: outboxPostType(post.Type),
					OutboxType: entryType, AuthorID: post.AuthorID, PublishedAt: post.PublishedAt,
				}); err != nil {
					return err
				}
			}
		} else {
			postID = post.ID
			prior, err := s.likes.AccountIDsForPost(c, tx, postID)
			if err != nil {
				return err
			}
			priorLikes = prior
			priorR, err := s.reposts.AccountIDsForPost(c, tx, postID)
			if err != nil {
				return err
			}
			priorReposts = priorR
		}

		if likeDelta != nil {
			if likeDelta.add {
				if err := s.likes.Add(c, tx, likeDelta.accountID, postID); err != nil {
					return err
				}
			} else {
				if err := s.likes.Remove(c, tx, likeDelta.accountID, postID); err != nil {
					return err
				}
			}
		}
		if repostDelta != nil {
			if repostDelta.add {
				if err := s.reposts.Add(c, tx, repostDelta.accountID, postID); err != nil {
					return err
				}
				author, err := s.accounts.ByID(c, tx, repostDelta.accountID)
				if err == nil && author.IsInternal {
					if err := s.outboxes.Append(c, tx, models.OutboxEntry{
						AccountID: repostDelta.accountID, PostID: postID, PostType: outboxPostType(post.Type),
						OutboxType: models.OutboxTypeRepost, AuthorID: post.AuthorID, PublishedAt: time.Now(),
					}); err != nil {
						return err
					}
				}
			} else {
				if err := s.reposts.Remove(c, tx, repostDelta.accountID, postID); err != nil {
					return err
				}
				if err := s.outboxes.RemoveRepost(c, tx, repostDelta.accountID, postID); err != nil {
					return err
				}
			}
		}

		nextLikes, err := s.likes.AccountIDsForPost(c, tx, postID)
		if err != nil {
			return err
		}
		nextReposts, err := s.reposts.AccountIDsForPost(c, tx, postID)
		if err != nil {
			return err
		}
		if !isNew {
			likeDiff = diffAccountIDs(priorLikes, nextLikes)
			repostDiff = diffAccountIDs(priorReposts, nextReposts)
		}

		likeCount, err := s.likes.Count(c, tx, postID)
		if err != nil {
			return err
		}
		repostCount, err := s.reposts.Count(c, tx, postID)
		if err != nil {
			return err
		}
		return s.posts.SetCounts(c, tx, postID, likeCount, repostCount)
	})
	if err != nil {
		return nil, newErr("save", KindInvalidData, err)
	}

	post.ID = postID
	if duplicate {
		return post, nil
	}
	if err := s.emitSaveEvents(c, isNew, post, likeDiff, repostDiff); err != nil {
		return nil, err
	}
	return post, nil
}

func outboxPostType(t models.PostType) models.PostType { return t }

// emitSaveEvents publishes the save transaction's post-commit events,
// all awaited (internal/events.Bus.Publish blocks), in this order:
// post.created (new posts only), post.reposted per added reposter,
// post.dereposted per removed reposter, post.liked per added liker,
// post.unliked per removed liker. Likes are published after reposts.
func (s *PostService) emitSaveEvents(c util.Context, isNew bool, post *models.Post, likeDiff, repostDiff interactionDiff) error {
	if isNew {
		if err := s.bus.Publish(c, events.Event{Kind: events.KindPostCreated, Data: events.PostCreatedData{Post: post}}); err != nil {
			return err
		}
	}
	for _, reposterID := range repostDiff.added {
		acc, err := s.lookupAccount(c, reposterID)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(c, events.Event{Kind: events.KindPostReposted, Data: events.PostRepostedData{Post: post, RepostedBy: acc}}); err != nil {
			return err
		}
	}
	for _, reposterID := range repostDiff.removed {
		acc, err := s.lookupAccount(c, reposterID)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(c, events.Event{Kind: events.KindPostDereposted, Data: events.PostDerepostedData{Post: post, DerepostedBy: acc}}); err != nil {
			return err
		}
	}
	for _, likerID := range likeDiff.added {
		acc, err := s.lookupAccount(c, likerID)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(c, events.Event{Kind: events.KindPostLiked, Data: events.PostLikedData{Post: post, LikedBy: acc}}); err != nil {
			return err
		}
	}
	for _, likerID := range likeDiff.removed {
		acc, err := s.lookupAccount(c, likerID)
		if err != nil {
			return err
		}
		if err := s.bus.Publish(c, events.Event{Kind: events.KindPostUnliked, Data: events.PostUnlikedData{Post: post, UnlikedBy: acc}}); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostService) lookupAccount(c util.Context, id int64) (*models.Account, error) {
	var acc *models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.ByID(c, tx, id)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	return acc, err
}

// GetOutboxPage is the outbox dispatcher's timestamp-cursor read
// (spec.md §4.10): posts authored or reposted by accountID, published
// strictly before cursor, newest first.
func (s *PostService) GetOutboxPage(c util.Context, accountID int64, cursor time.Time, limit int) ([]*models.OutboxItem, error) {
	var items []*models.OutboxItem
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		i, err := s.posts.OutboxPage(c, tx, accountID, cursor, limit)
		if err != nil {
			return err
		}
		items = i
		return nil
	})
	if err != nil {
		return nil, newErr("GetOutboxPage", KindInvalidData, err)
	}
	return items, nil
}

// GetOutboxCount is the outbox collection's totalItems (spec.md §4.10).
func (s *PostService) GetOutboxCount(c util.Context, accountID int64) (int, error) {
	var n int
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		var err error
		n, err = s.posts.OutboxCount(c, tx, accountID)
		return err
	})
	if err != nil {
		return 0, newErr("GetOutboxCount", KindInvalidData, err)
	}
	return n, nil
}

// DeleteByAuthor tombstones post when sender owns it (actor origin ==
// object origin): decrements the parent reply_count and strips the
// likes/reposts/outboxes rows that would otherwise keep resurfacing a
// dead post through its interactors' and reposters' own collections
// (spec.md §4.5 step 6's "delete likes/mentions/outboxes of this
// post"; a post's mentions live in its own mentions column, which
// Posts.Tombstone resets to an empty list).
func (s *PostService) DeleteByAuthor(c util.Context, post *models.Post) error {
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		if err := s.posts.Tombstone(c, tx, post.ID); err != nil {
			return err
		}
		if post.InReplyTo != nil {
			if err := s.posts.DecrReplyCount(c, tx, *post.InReplyTo); err != nil {
				return err
			}
		}
		if err := s.likes.DeleteByPost(c, tx, post.ID); err != nil {
			return err
		}
		if err := s.reposts.DeleteByPost(c, tx, post.ID); err != nil {
			return err
		}
		return s.outboxes.DeleteByPost(c, tx, post.ID)
	})
	if err != nil {
		return newErr("DeleteByAuthor", KindInvalidData, err)
	}
	return s.bus.Publish(c, events.Event{Kind: events.KindPostDeleted, Data: events.PostDeletedData{Post: post}})
}

// UpdateMutable applies Update(object) to a known post without
// touching interaction counters (spec.md §4.3's Update handler).
func (s *PostService) UpdateMutable(c util.Context, post *models.Post) error {
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		return s.posts.UpdateMutable(c, tx, post)
	})
	if err != nil {
		return newErr("UpdateMutable", KindInvalidData, err)
	}
	return nil
}
