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

// Package delivery is the bridge spec.md §4.6 describes: domain events
// in, typed activities out, handed to internal/queue for per-inbox
// push delivery. Grounded on ap/s2s.go's send path (actor/object
// construction before handing off to the transport) and
// framework/conn/transport.go's signed-POST Deliver, reusing
// internal/services.Transport for the actual signed HTTP call rather
// than reimplementing it here.
package delivery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-fed/activity/streams/vocab"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/events"
	"github.com/tryghost/activitypub/internal/kv"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/queue"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

// Bridge subscribes to internal/events, builds the typed activity
// spec.md §4.6's table names for each event kind, persists it to KV
// under a fresh URI, and enqueues one delivery per recipient inbox.
// It also implements internal/inbox.Deliverer, for the inbox
// dispatch table's synchronous Accept/Reject(Follow) replies.
type Bridge struct {
	accounts  *services.AccountService
	store     kv.Store
	queue     *queue.Queue
	cfg       *config.Config
	scheme    string
	host      string
	userAgent string
}

func NewBridge(accounts *services.AccountService, store kv.Store, q *queue.Queue, cfg *config.Config, scheme, host, userAgent string) *Bridge {
	b := &Bridge{accounts: accounts, store: store, queue: q, cfg: cfg, scheme: scheme, host: host, userAgent: userAgent}
	b.configureQueue()
	return b
}

// Subscribe registers this bridge against every domain event spec.md
// §4.6 federates, generalized beyond the table's five illustrative
// rows to cover the full set of outbound activities the inbox
// handlers' inverse operations require (Follow/Undo(Follow) for
// account.followed/unfollowed, Like/Undo(Like) for post.liked/
// unliked, Announce/Undo(Announce) for post.reposted/dereposted) so
// that federation is complete in both directions, not just the table
// rows the distillation happened to spell out.
func (b *Bridge) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.KindPostCreated, b.onPostCreated)
	bus.Subscribe(events.KindPostDeleted, b.onPostDeleted)
	bus.Subscribe(events.KindAccountUpdated, b.onAccountUpdated)
	bus.Subscribe(events.KindAccountBlocked, b.onAccountBlocked)
	bus.Subscribe(events.KindAccountFollowed, b.onAccountFollowed)
	bus.Subscribe(events.KindAccountUnfollowed, b.onAccountUnfollowed)
	bus.Subscribe(events.KindPostLiked, b.onPostLiked)
	bus.Subscribe(events.KindPostUnliked, b.onPostUnliked)
	bus.Subscribe(events.KindPostReposted, b.onPostReposted)
	bus.Subscribe(events.KindPostDereposted, b.onPostDereposted)
}

func (b *Bridge) newID(kind paths.ObjectKind) string {
	return paths.NewActivityID(b.scheme, b.host, kind, uuid.New().String()).String()
}

// persist stores a freshly built activity under its own id, spec.md
// §4.6's "persisted to KV" step, before handing it to the queue.
func (b *Bridge) persist(c util.Context, id string, body []byte) error {
	return b.store.Set(c, id, body)
}

// buildActor constructs the Person document for an internal account,
// the object Update wraps for account.updated (spec.md §4.6), shared
// with the actor-profile dispatcher (internal/dispatch) via
// services.BuildActorDocument so both render the identical document.
func (b *Bridge) buildActor(acc *models.Account) vocab.ActivityStreamsPerson {
	return services.BuildActorDocument(b.scheme, b.host, acc)
}

// buildObject constructs the Note or Article a Create/Update wraps,
// shared with the outbox dispatcher (internal/dispatch) via
// services.BuildPostObject so a post's rendered shape never drifts
// between a just-delivered activity and a later outbox page fetch.
func (b *Bridge) buildObject(post *models.Post, author *models.Account) vocab.Type {
	return services.BuildPostObject(post, author)
}

// recipientInboxes returns the deduplicated set of inbox URLs for
// accountID's followers, preferring each follower's shared
// inbox (spec.md §4.6's "preferSharedInbox: true"). Only external
// followers are addressed; an internal follower has no HTTP inbox to
// deliver to.
func (b *Bridge) recipientInboxes(c util.Context, accountID int64) ([]string, error) {
	followers, err := b.accounts.GetFollowerAccounts(c, accountID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var inboxes []string
	for _, f := range followers {
		if f.IsInternal {
			continue
		}
		inbox := f.APSharedInbox
		if inbox == "" {
			inbox = f.APInbox
		}
		if inbox == "" || seen[inbox] {
			continue
		}
		seen[inbox] = true
		inboxes = append(inboxes, inbox)
	}
	return inboxes, nil
}

// enqueueAll hands body to the queue once per inbox, logging (not
// failing) an individual Enqueue error so one bad recipient does not
// drop delivery to the rest.
func (b *Bridge) enqueueAll(body []byte, inboxes []string) {
	for _, inbox := range inboxes {
		if err := b.queue.Enqueue(inbox, body); err != nil {
			util.ErrorLogger.Errorf("delivery: enqueue to %s: %s", inbox, err)
		}
	}
}

func (b *Bridge) onPostCreated(c util.Context, e events.Event) error {
	data := e.Data.(events.PostCreatedData)
	author, err := b.accounts.GetAccountByID(c, data.Post.AuthorID)
	if err != nil {
		return err
	}
	if !author.IsInternal {
		// Only locally authored posts are ours to federate out.
		return nil
	}
	obj := b.buildObject(data.Post, author)
	id := b.newID(paths.KindCreate)
	create := gfactivity.BuildCreate(id, author.APID, obj, services.AudienceTo(data.Post))
	body, err := gfactivity.Marshal(create)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	inboxes, err := b.recipientInboxes(c, author.ID)
	if err != nil {
		return err
	}
	b.enqueueAll(body, inboxes)
	return nil
}

func (b *Bridge) onPostDeleted(c util.Context, e events.Event) error {
	data := e.Data.(events.PostDeletedData)
	author, err := b.accounts.GetAccountByID(c, data.Post.AuthorID)
	if err != nil {
		return err
	}
	if !author.IsInternal {
		return nil
	}
	id := b.newID(paths.KindDelete)
	del := gfactivity.BuildDelete(id, author.APID, data.Post.APID)
	body, err := gfactivity.Marshal(del)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	inboxes, err := b.recipientInboxes(c, author.ID)
	if err != nil {
		return err
	}
	b.enqueueAll(body, inboxes)
	return nil
}

func (b *Bridge) onAccountUpdated(c util.Context, e events.Event) error {
	data := e.Data.(events.AccountUpdatedData)
	if !data.Account.IsInternal {
		return nil
	}
	actor := b.buildActor(data.Account)
	id := b.newID(paths.KindUpdate)
	update := gfactivity.BuildUpdate(id, data.Account.APID, actor, []string{gfactivity.PublicIRI})
	body, err := gfactivity.Marshal(update)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	inboxes, err := b.recipientInboxes(c, data.Account.ID)
	if err != nil {
		return err
	}
	b.enqueueAll(body, inboxes)
	return nil
}

// onAccountBlocked implements spec.md §4.6's "account.blocked →
// Reject(Follow(...))" row: the blocker severs a follow relation by
// rejecting it outright, the same reply the inbox's live moderation
// check sends for a newly arriving Follow (internal/inbox/follow.go),
// just triggered retroactively for a follow that was already in
// place when the block was recorded.
func (b *Bridge) onAccountBlocked(c util.Context, e events.Event) error {
	data := e.Data.(events.AccountBlockedData)
	blocker, err := b.accounts.GetAccountByID(c, data.BlockerID)
	if err != nil {
		return err
	}
	if !blocker.IsInternal {
		return nil
	}
	blocked, err := b.accounts.GetAccountByID(c, data.BlockedID)
	if err != nil {
		return err
	}
	follow := gfactivity.BuildFollow(b.newID(paths.KindFollow), blocked.APID, blocker.APID)
	id := b.newID(paths.KindReject)
	reject := gfactivity.BuildReject(id, blocker.APID, follow)
	body, err := gfactivity.Marshal(reject)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	return b.deliverNowToAccount(c, blocker, body, blocked)
}

func (b *Bridge) onAccountFollowed(c util.Context, e events.Event) error {
	data := e.Data.(events.AccountFollowedData)
	follower, err := b.accounts.GetAccountByID(c, data.FollowerID)
	if err != nil {
		return err
	}
	if !follower.IsInternal {
		// The followee is internal and already recorded the edge;
		// the Accept goes out synchronously from internal/inbox.
		return nil
	}
	followee, err := b.accounts.GetAccountByID(c, data.FolloweeID)
	if err != nil {
		return err
	}
	if followee.IsInternal {
		return nil
	}
	id := b.newID(paths.KindFollow)
	follow := gfactivity.BuildFollow(id, follower.APID, followee.APID)
	body, err := gfactivity.Marshal(follow)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	return b.deliverNowToAccount(c, follower, body, followee)
}

func (b *Bridge) onAccountUnfollowed(c util.Context, e events.Event) error {
	data := e.Data.(events.AccountUnfollowedData)
	unfollower, err := b.accounts.GetAccountByID(c, data.UnfollowerID)
	if err != nil {
		return err
	}
	if !unfollower.IsInternal {
		return nil
	}
	followee, err := b.accounts.GetAccountByID(c, data.FolloweeID)
	if err != nil {
		return err
	}
	if followee.IsInternal {
		return nil
	}
	inner := gfactivity.BuildFollow(b.newID(paths.KindFollow), unfollower.APID, followee.APID)
	id := b.newID(paths.KindUndo)
	undo := gfactivity.BuildUndo(id, unfollower.APID, inner)
	body, err := gfactivity.Marshal(undo)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	return b.deliverNowToAccount(c, unfollower, body, followee)
}

func (b *Bridge) onPostLiked(c util.Context, e events.Event) error {
	data := e.Data.(events.PostLikedData)
	if !data.LikedBy.IsInternal {
		return nil
	}
	author, err := b.accounts.GetAccountByID(c, data.Post.AuthorID)
	if err != nil {
		return err
	}
	if author.IsInternal {
		return nil
	}
	id := b.newID(paths.KindLike)
	like := gfactivity.BuildLike(id, data.LikedBy.APID, data.Post.APID)
	body, err := gfactivity.Marshal(like)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	return b.deliverNowToAccount(c, data.LikedBy, body, author)
}

func (b *Bridge) onPostUnliked(c util.Context, e events.Event) error {
	data := e.Data.(events.PostUnlikedData)
	if !data.UnlikedBy.IsInternal {
		return nil
	}
	author, err := b.accounts.GetAccountByID(c, data.Post.AuthorID)
	if err != nil {
		return err
	}
	if author.IsInternal {
		return nil
	}
	inner := gfactivity.BuildLike(b.newID(paths.KindLike), data.UnlikedBy.APID, data.Post.APID)
	id := b.newID(paths.KindUndo)
	undo := gfactivity.BuildUndo(id, data.UnlikedBy.APID, inner)
	body, err := gfactivity.Marshal(undo)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	return b.deliverNowToAccount(c, data.UnlikedBy, body, author)
}

func (b *Bridge) onPostReposted(c util.Context, e events.Event) error {
	data := e.Data.(events.PostRepostedData)
	if !data.RepostedBy.IsInternal {
		return nil
	}
	id := b.newID(paths.KindAnnounce)
	announce := gfactivity.BuildAnnounce(id, data.RepostedBy.APID, data.Post.APID, []string{gfactivity.PublicIRI})
	body, err := gfactivity.Marshal(announce)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	inboxes, err := b.recipientInboxes(c, data.RepostedBy.ID)
	if err != nil {
		return err
	}
	b.enqueueAll(body, inboxes)
	return nil
}

func (b *Bridge) onPostDereposted(c util.Context, e events.Event) error {
	data := e.Data.(events.PostDerepostedData)
	if !data.DerepostedBy.IsInternal {
		return nil
	}
	inner := gfactivity.BuildAnnounce(b.newID(paths.KindAnnounce), data.DerepostedBy.APID, data.Post.APID, []string{gfactivity.PublicIRI})
	id := b.newID(paths.KindUndo)
	undo := gfactivity.BuildUndo(id, data.DerepostedBy.APID, inner)
	body, err := gfactivity.Marshal(undo)
	if err != nil {
		return err
	}
	if err := b.persist(c, id, body); err != nil {
		return err
	}
	inboxes, err := b.recipientInboxes(c, data.DerepostedBy.ID)
	if err != nil {
		return err
	}
	b.enqueueAll(body, inboxes)
	return nil
}

// transportForAccount builds a signed Transport using from's own key
// pair, the signer every outbound send (synchronous or queued) needs.
func (b *Bridge) transportForAccount(c util.Context, from *models.Account) (*services.Transport, error) {
	_, privPEM, err := b.accounts.GetKeyPair(c, from.ID)
	if err != nil {
		return nil, err
	}
	priv, err := services.ParsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, err
	}
	return services.NewTransport(b.cfg, priv, services.PubKeyIDFor(from), b.userAgent)
}

func (b *Bridge) deliverNowToAccount(c util.Context, from *models.Account, body []byte, to *models.Account) error {
	inbox := to.APSharedInbox
	if inbox == "" {
		inbox = to.APInbox
	}
	if inbox == "" {
		return fmt.Errorf("delivery: account %s has no inbox", to.APID)
	}
	u, err := url.Parse(inbox)
	if err != nil {
		return err
	}
	t, err := b.transportForAccount(c, from)
	if err != nil {
		return err
	}
	return t.Deliver(c, body, u)
}

// DeliverNow implements internal/inbox.Deliverer: a single synchronous
// signed send as fromAccountID, the path internal/inbox's Accept/
// Reject(Follow) replies use (spec.md §4.3).
func (b *Bridge) DeliverNow(c util.Context, activity []byte, fromAccountID int64, to *url.URL) error {
	from, err := b.accounts.GetAccountByID(c, fromAccountID)
	if err != nil {
		return err
	}
	t, err := b.transportForAccount(c, from)
	if err != nil {
		return err
	}
	return t.Deliver(c, activity, to)
}

// deliverOne is the queue.Handler this bridge runs against the
// primary/retry topics: the activity names its own actor, so the
// signer is recovered from the payload rather than carried in queue
// metadata, keeping internal/queue's message shape domain-agnostic.
func (b *Bridge) deliverOne(ctx context.Context, to string, attempt int, body []byte) error {
	c := util.NewContext(ctx)
	actorIRI := gjson.GetBytes(body, "actor").String()
	if actorIRI == "" {
		return fmt.Errorf("delivery: activity missing actor")
	}
	from, err := b.accounts.GetAccountByApId(c, actorIRI)
	if err != nil {
		return err
	}
	t, err := b.transportForAccount(c, from)
	if err != nil {
		return err
	}
	toURL, err := url.Parse(to)
	if err != nil {
		return err
	}
	return t.Deliver(c, body, toURL)
}

// Run drains the queue until ctx is canceled, classifying each
// delivery failure via Classify (spec.md §4.8) to decide whether to
// retry. Reportable failures are logged distinctly from the routine
// non-reportable 4xx/DNS/cert failures; this repo has no dedicated
// error-tracker integration in its dependency set, so a log line
// stands in for the "surfaces to the error tracker" step spec.md
// §4.6 names.
func (b *Bridge) Run(ctx context.Context) error {
	return b.queue.Run(ctx)
}

// HandlePush feeds one message a Pub/Sub push subscription delivered
// over HTTP into the same retry policy Run's in-process loop uses,
// internal/dispatch's entry point for the pubsub/ghost/push and
// pubsub/fedify/push routes (spec.md §6).
func (b *Bridge) HandlePush(ctx context.Context, to string, attempt int, body []byte) error {
	return b.queue.Deliver(ctx, to, attempt, body)
}

// configureQueue wires this bridge's delivery handler and retry
// policy into the queue, shared by Run's in-process loop and
// internal/dispatch's Pub/Sub-push route (both need the same consumer
// wired before either is used).
func (b *Bridge) configureQueue() {
	classify := func(err error) queue.Verdict {
		return queue.Verdict{Retryable: Classify(err).Retryable}
	}
	onAbandon := func(to string, attempt int, err error) {
		v := Classify(err)
		if v.Reportable {
			util.ErrorLogger.Errorf("delivery: abandoning send to %s after %d attempts (reportable): %s", to, attempt+1, err)
			return
		}
		util.InfoLogger.Infof("delivery: abandoning send to %s after %d attempts: %s", to, attempt+1, err)
	}
	b.queue.SetConsumer(b.deliverOne, classify, onAbandon)
}
