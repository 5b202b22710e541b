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
	"strconv"

	"github.com/google/uuid"

	gfactivity "github.com/tryghost/activitypub/internal/activity"
	"github.com/tryghost/activitypub/internal/events"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/paths"
	"github.com/tryghost/activitypub/internal/util"
)

// AccountService implements spec.md §4.2, grounded on
// services/user.go's createUser / GetAccountByApId shape, generalized
// from apcore's local-account-only model to external accounts
// materialized from resolved actor documents.
type AccountService struct {
	db       *sql.DB
	accounts *models.Accounts
	follows  *models.Follows
	resolver *Resolver
	bus      *events.Bus
	scheme   string
	host     string
}

func NewAccountService(db *sql.DB, accounts *models.Accounts, follows *models.Follows, resolver *Resolver, bus *events.Bus, scheme, host string) *AccountService {
	return &AccountService{db: db, accounts: accounts, follows: follows, resolver: resolver, bus: bus, scheme: scheme, host: host}
}

func apIDHash(apID string) string {
	sum := sha256.Sum256([]byte(apID))
	return hex.EncodeToString(sum[:])
}

// GetAccountByApId is the no-network read path.
func (s *AccountService) GetAccountByApId(c util.Context, apID string) (*models.Account, error) {
	var acc *models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.ByAPIDHash(c, tx, apIDHash(apID))
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, newErr("GetAccountByApId", KindNotFound, err)
	}
	return acc, nil
}

// EnsureByApId is idempotent: returns the existing row if ap_id_hash
// matches, else resolves the actor remotely and inserts it (spec.md
// §4.2). Race safety comes from the unique index on ap_id_hash: a
// concurrent insert loses the race and Posts/Accounts.Insert falls
// back to reading the winning row.
func (s *AccountService) EnsureByApId(c util.Context, iri *url.URL) (*models.Account, error) {
	if acc, err := s.GetAccountByApId(c, iri.String()); err == nil {
		return acc, nil
	}

	actor, err := s.resolver.LookupActor(c, iri)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		APID:          actor.ID,
		APIDHash:      apIDHash(actor.ID),
		Username:      actor.PreferredName,
		Name:          actor.Name,
		Bio:           actor.Summary,
		URL:           actor.URL,
		AvatarURL:     actor.IconURL,
		BannerImageURL: actor.ImageURL,
		APInbox:       actor.Inbox,
		APSharedInbox: actor.SharedInbox,
		APOutbox:      actor.Outbox,
		APFollowers:   actor.Followers,
		APFollowing:   actor.Following,
		APLiked:       actor.Liked,
		IsInternal:    false,
		PublicKey:     actor.PublicKeyPEM,
		Domain:        iri.Host,
		DomainHash:    apIDHash(iri.Host),
	}

	var id int64
	err = doInTx(c, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = s.accounts.Insert(c, tx, acc)
		return err
	})
	if err != nil {
		return nil, newErr("EnsureByApId", KindInvalidData, err)
	}
	acc.ID = id
	return acc, nil
}

// FollowAccount upserts the follows row and emits account.followed.
func (s *AccountService) FollowAccount(c util.Context, followerID, followeeID int64) error {
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		return s.follows.Follow(c, tx, followerID, followeeID)
	})
	if err != nil {
		return newErr("FollowAccount", KindInvalidData, err)
	}
	return s.bus.Publish(c, events.Event{
		Kind: events.KindAccountFollowed,
		Data: events.AccountFollowedData{FollowerID: followerID, FolloweeID: followeeID},
	})
}

// RecordAccountUnfollow deletes the follows row and emits
// account.unfollowed.
func (s *AccountService) RecordAccountUnfollow(c util.Context, followeeID, unfollowerID int64) error {
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		return s.follows.Unfollow(c, tx, unfollowerID, followeeID)
	})
	if err != nil {
		return newErr("RecordAccountUnfollow", KindInvalidData, err)
	}
	return s.bus.Publish(c, events.Event{
		Kind: events.KindAccountUnfollowed,
		Data: events.AccountUnfollowedData{FolloweeID: followeeID, UnfollowerID: unfollowerID},
	})
}

// GetKeyPair returns the PEM key pair for internal accounts only
// (spec.md §4.2); external accounts have no private key to return.
func (s *AccountService) GetKeyPair(c util.Context, accountID int64) (pub, priv string, err error) {
	var acc *models.Account
	err = doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.ByID(c, tx, accountID)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return "", "", newErr("GetKeyPair", KindNotFound, err)
	}
	if !acc.IsInternal {
		return "", "", newErr("GetKeyPair", KindInvalidData, nil)
	}
	return acc.PublicKey, acc.PrivateKey, nil
}

// CreateInternalAccount mints a fresh RSA key pair and inserts the
// single-tenant internal Account (spec.md §3/§4.2), the bootstrap
// subcommand's entry point. A row's own IRIs are built from its
// numeric id, so the row is inserted first, then stamped with its
// ap_id/inbox/outbox/etc columns once that id is known, grounded on
// services/user.go's createUser insert-then-decorate shape.
func (s *AccountService) CreateInternalAccount(c util.Context, username, name string) (*models.Account, error) {
	pubPEM, privPEM, err := GenerateKeyPair()
	if err != nil {
		return nil, newErr("CreateInternalAccount", KindInvalidData, err)
	}

	acc := &models.Account{
		UUID:       uuid.New().String(),
		Username:   username,
		Name:       name,
		IsInternal: true,
		PublicKey:  pubPEM,
		PrivateKey: privPEM,
		Domain:     s.host,
		DomainHash: apIDHash(s.host),
	}
	// APID/APIDHash must be non-empty and unique at insert time; a
	// temporary value keyed off the UUID is overwritten by
	// FinalizeInternal immediately below.
	acc.APID = "urn:uuid:" + acc.UUID
	acc.APIDHash = apIDHash(acc.APID)

	err = doInTx(c, s.db, func(tx *sql.Tx) error {
		id, err := s.accounts.Insert(c, tx, acc)
		if err != nil {
			return err
		}
		acc.ID = id

		idStr := strconv.FormatInt(id, 10)
		acc.APID = paths.ActorIRI(s.scheme, s.host, idStr).String()
		acc.APIDHash = apIDHash(acc.APID)
		acc.APInbox = paths.InboxIRI(s.scheme, s.host, idStr).String()
		acc.APSharedInbox = paths.SharedInboxIRI(s.scheme, s.host).String()
		acc.APOutbox = paths.OutboxIRI(s.scheme, s.host, idStr).String()
		acc.APFollowers = paths.FollowersIRI(s.scheme, s.host, idStr).String()
		acc.APFollowing = paths.FollowingIRI(s.scheme, s.host, idStr).String()
		acc.APLiked = paths.LikedIRI(s.scheme, s.host, idStr).String()

		return s.accounts.FinalizeInternal(c, tx, id, acc.APID, acc.APIDHash, acc.APInbox,
			acc.APSharedInbox, acc.APOutbox, acc.APFollowers, acc.APFollowing, acc.APLiked)
	})
	if err != nil {
		return nil, newErr("CreateInternalAccount", KindInvalidData, err)
	}
	return acc, nil
}

// UpdateAccountProfile mutates local columns and emits
// account.updated (spec.md §4.2).
func (s *AccountService) UpdateAccountProfile(c util.Context, accountID int64, patch models.ProfilePatch) (*models.Account, error) {
	var acc *models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		if err := s.accounts.UpdateProfile(c, tx, accountID, patch); err != nil {
			return err
		}
		a, err := s.accounts.ByID(c, tx, accountID)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, newErr("UpdateAccountProfile", KindInvalidData, err)
	}
	if err := s.bus.Publish(c, events.Event{Kind: events.KindAccountUpdated, Data: events.AccountUpdatedData{Account: acc}}); err != nil {
		return nil, err
	}
	return acc, nil
}

// RefreshExternalAccount overwrites the mirrored profile columns of a
// federated account from a freshly dereferenced actor document
// (spec.md §4.3's Update(actor) handler, §4.9's maintenance refresh).
func (s *AccountService) RefreshExternalAccount(c util.Context, accountID int64, actor *gfactivity.Actor) error {
	return doInTx(c, s.db, func(tx *sql.Tx) error {
		return s.accounts.UpdateExternal(c, tx, accountID, actor.Name, actor.Summary, actor.URL, actor.IconURL, actor.ImageURL)
	})
}

// GetFollowingAccounts is the offset-paginated snapshot dispatchers
// use (spec.md §4.2/§4.10).
func (s *AccountService) GetFollowingAccounts(c util.Context, accountID int64, limit, offset int) ([]*models.Account, error) {
	var accs []*models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.FollowingPage(c, tx, accountID, limit, offset)
		if err != nil {
			return err
		}
		accs = a
		return nil
	})
	if err != nil {
		return nil, newErr("GetFollowingAccounts", KindInvalidData, err)
	}
	return accs, nil
}

// GetAccountByID is the delivery bridge's lookup for the actor
// originating an outbound activity (spec.md §4.6) and the moderation
// bridge's lookup for the blocked actor in a Reject(Follow) send.
func (s *AccountService) GetAccountByID(c util.Context, accountID int64) (*models.Account, error) {
	var acc *models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.ByID(c, tx, accountID)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, newErr("GetAccountByID", KindNotFound, err)
	}
	return acc, nil
}

// GetAccountByUsername is the WebFinger responder's lookup for the
// single internal account a bare username resolves to (spec.md §6's
// `/.well-known/webfinger`).
func (s *AccountService) GetAccountByUsername(c util.Context, username string) (*models.Account, error) {
	var acc *models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.ByUsername(c, tx, username)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, newErr("GetAccountByUsername", KindNotFound, err)
	}
	return acc, nil
}

// GetFollowerAccounts returns every follower of accountID, the
// delivery bridge's recipient set for a followers-addressed activity
// (spec.md §4.6's "actor's followers collection" recipients column).
func (s *AccountService) GetFollowerAccounts(c util.Context, accountID int64) ([]*models.Account, error) {
	var accs []*models.Account
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := s.accounts.FollowersAll(c, tx, accountID)
		if err != nil {
			return err
		}
		accs = a
		return nil
	})
	if err != nil {
		return nil, newErr("GetFollowerAccounts", KindInvalidData, err)
	}
	return accs, nil
}

func (s *AccountService) GetFollowerAccountsCount(c util.Context, accountID int64) (int, error) {
	var n int
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		var err error
		n, err = s.accounts.FollowerCount(c, tx, accountID)
		return err
	})
	if err != nil {
		return 0, newErr("GetFollowerAccountsCount", KindInvalidData, err)
	}
	return n, nil
}

func (s *AccountService) GetFollowingAccountsCount(c util.Context, accountID int64) (int, error) {
	var n int
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		var err error
		n, err = s.accounts.FollowingCount(c, tx, accountID)
		return err
	})
	if err != nil {
		return 0, newErr("GetFollowingAccountsCount", KindInvalidData, err)
	}
	return n, nil
}
