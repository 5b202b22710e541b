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

package models

import (
	"database/sql"
	"time"

	"github.com/tryghost/activitypub/internal/util"
)

// Account is the spec.md §3 Account row. PrivateKey is only populated
// for internal accounts.
type Account struct {
	ID              int64
	UUID            string
	APID            string
	APIDHash        string
	Username        string
	Name            string
	Bio             string
	URL             string
	AvatarURL       string
	BannerImageURL  string
	APInbox         string
	APSharedInbox   string
	APOutbox        string
	APFollowers     string
	APFollowing     string
	APLiked         string
	IsInternal      bool
	PublicKey       string
	PrivateKey      string
	Domain          string
	DomainHash      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfilePatch is the set of mutable local columns updateAccountProfile
// may change (spec.md §4.2).
type ProfilePatch struct {
	Name           *string
	Bio            *string
	URL            *string
	AvatarURL      *string
	BannerImageURL *string
}

var _ Model = &Accounts{}

// Accounts is the Model backing the accounts table, grounded on
// models/users.go's prepared-statement-per-method shape.
type Accounts struct {
	insert         *sql.Stmt
	byAPIDHash     *sql.Stmt
	byID           *sql.Stmt
	byUsername     *sql.Stmt
	updateProfile  *sql.Stmt
	updateExternal *sql.Stmt
	followingPage  *sql.Stmt
	followingCount *sql.Stmt
	followerCount  *sql.Stmt
	followersAll   *sql.Stmt
	finalizeInternal *sql.Stmt
}

func (a *Accounts) Prepare(db *sql.DB, s SqlDialect) error {
	t := s.Table("accounts")
	return prepareStmtPairs(db, stmtPairs{
		{&a.insert, `INSERT INTO ` + t + ` (uuid, ap_id, ap_id_hash, username, name, bio, url,
			avatar_url, banner_image_url, ap_inbox, ap_shared_inbox, ap_outbox, ap_followers,
			ap_following, ap_liked, is_internal, public_key, private_key, domain, domain_hash,
			created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,now(),now())
			ON CONFLICT (ap_id_hash) DO NOTHING
			RETURNING id`},
		{&a.byAPIDHash, `SELECT id, uuid, ap_id, ap_id_hash, username, name, bio, url, avatar_url,
			banner_image_url, ap_inbox, ap_shared_inbox, ap_outbox, ap_followers, ap_following,
			ap_liked, is_internal, public_key, private_key, domain, domain_hash, created_at, updated_at
			FROM ` + t + ` WHERE ap_id_hash = $1`},
		{&a.byID, `SELECT id, uuid, ap_id, ap_id_hash, username, name, bio, url, avatar_url,
			banner_image_url, ap_inbox, ap_shared_inbox, ap_outbox, ap_followers, ap_following,
			ap_liked, is_internal, public_key, private_key, domain, domain_hash, created_at, updated_at
			FROM ` + t + ` WHERE id = $1`},
		{&a.byUsername, `SELECT id, uuid, ap_id, ap_id_hash, username, name, bio, url, avatar_url,
			banner_image_url, ap_inbox, ap_shared_inbox, ap_outbox, ap_followers, ap_following,
			ap_liked, is_internal, public_key, private_key, domain, domain_hash, created_at, updated_at
			FROM ` + t + ` WHERE username = $1 AND is_internal`},
		{&a.updateProfile, `UPDATE ` + t + ` SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			url = COALESCE($4, url),
			avatar_url = COALESCE($5, avatar_url),
			banner_image_url = COALESCE($6, banner_image_url),
			updated_at = now()
			WHERE id = $1`},
		{&a.updateExternal, `UPDATE ` + t + ` SET
			name = $2, bio = $3, url = $4, avatar_url = $5, banner_image_url = $6, updated_at = now()
			WHERE id = $1 AND NOT is_internal`},
		{&a.followingPage, `SELECT a.id, a.uuid, a.ap_id, a.ap_id_hash, a.username, a.name, a.bio,
			a.url, a.avatar_url, a.banner_image_url, a.ap_inbox, a.ap_shared_inbox, a.ap_outbox,
			a.ap_followers, a.ap_following, a.ap_liked, a.is_internal, a.public_key, a.private_key,
			a.domain, a.domain_hash, a.created_at, a.updated_at
			FROM ` + s.Table("follows") + ` f JOIN ` + t + ` a ON a.id = f.following_id
			WHERE f.follower_id = $1 ORDER BY f.created_at DESC LIMIT $2 OFFSET $3`},
		{&a.followingCount, `SELECT count(*) FROM ` + s.Table("follows") + ` WHERE follower_id = $1`},
		{&a.followerCount, `SELECT count(*) FROM ` + s.Table("follows") + ` WHERE following_id = $1`},
		{&a.followersAll, `SELECT a.id, a.uuid, a.ap_id, a.ap_id_hash, a.username, a.name, a.bio,
			a.url, a.avatar_url, a.banner_image_url, a.ap_inbox, a.ap_shared_inbox, a.ap_outbox,
			a.ap_followers, a.ap_following, a.ap_liked, a.is_internal, a.public_key, a.private_key,
			a.domain, a.domain_hash, a.created_at, a.updated_at
			FROM ` + s.Table("follows") + ` f JOIN ` + t + ` a ON a.id = f.follower_id
			WHERE f.following_id = $1 ORDER BY f.created_at DESC`},
		{&a.finalizeInternal, `UPDATE ` + t + ` SET
			ap_id = $2, ap_id_hash = $3, ap_inbox = $4, ap_shared_inbox = $5, ap_outbox = $6,
			ap_followers = $7, ap_following = $8, ap_liked = $9, updated_at = now()
			WHERE id = $1`},
	})
}

func (a *Accounts) CreateTable(t *sql.Tx, s SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + s.Table("accounts") + ` (
		id BIGSERIAL PRIMARY KEY,
		uuid TEXT NOT NULL UNIQUE,
		ap_id TEXT NOT NULL,
		ap_id_hash CHAR(64) NOT NULL UNIQUE,
		username TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		banner_image_url TEXT NOT NULL DEFAULT '',
		ap_inbox TEXT NOT NULL DEFAULT '',
		ap_shared_inbox TEXT NOT NULL DEFAULT '',
		ap_outbox TEXT NOT NULL DEFAULT '',
		ap_followers TEXT NOT NULL DEFAULT '',
		ap_following TEXT NOT NULL DEFAULT '',
		ap_liked TEXT NOT NULL DEFAULT '',
		is_internal BOOLEAN NOT NULL DEFAULT false,
		public_key TEXT NOT NULL DEFAULT '',
		private_key TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		domain_hash CHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return err
	}
	_, err = t.Exec(`CREATE INDEX IF NOT EXISTS accounts_domain_hash_idx ON ` + s.Table("accounts") + ` (domain_hash)`)
	return err
}

func (a *Accounts) Close() {
	for _, st := range []*sql.Stmt{a.insert, a.byAPIDHash, a.byID, a.byUsername, a.updateProfile,
		a.updateExternal, a.followingPage, a.followingCount, a.followerCount, a.followersAll,
		a.finalizeInternal} {
		if st != nil {
			st.Close()
		}
	}
}

func scanAccount(r SingleRow) (*Account, error) {
	a := &Account{}
	err := r.Scan(&a.ID, &a.UUID, &a.APID, &a.APIDHash, &a.Username, &a.Name, &a.Bio, &a.URL,
		&a.AvatarURL, &a.BannerImageURL, &a.APInbox, &a.APSharedInbox, &a.APOutbox, &a.APFollowers,
		&a.APFollowing, &a.APLiked, &a.IsInternal, &a.PublicKey, &a.PrivateKey, &a.Domain,
		&a.DomainHash, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// FinalizeInternal binds an internal account's own IRI columns once its
// numeric id is known, the second half of
// AccountService.CreateInternalAccount's insert-then-stamp bootstrap
// flow (every IRI a newly bootstrapped internal account federates
// under is built from its own row id, so it cannot be known before the
// row exists).
func (a *Accounts) FinalizeInternal(c util.Context, tx *sql.Tx, id int64, apID, apIDHash, inbox, sharedInbox, outbox, followers, following, liked string) error {
	_, err := tx.Stmt(a.finalizeInternal).ExecContext(c, id, apID, apIDHash, inbox, sharedInbox, outbox, followers, following, liked)
	return err
}

// Insert creates a new account row, returning the existing id if the
// ap_id_hash is already present (race-safe idempotent insert per
// spec.md §5).
func (a *Accounts) Insert(c util.Context, tx *sql.Tx, acc *Account) (id int64, err error) {
	row := tx.Stmt(a.insert).QueryRowContext(c, acc.UUID, acc.APID, acc.APIDHash, acc.Username,
		acc.Name, acc.Bio, acc.URL, acc.AvatarURL, acc.BannerImageURL, acc.APInbox,
		acc.APSharedInbox, acc.APOutbox, acc.APFollowers, acc.APFollowing, acc.APLiked,
		acc.IsInternal, acc.PublicKey, acc.PrivateKey, acc.Domain, acc.DomainHash)
	err = row.Scan(&id)
	if err == sql.ErrNoRows {
		// Conflict on ap_id_hash: look up the existing row instead.
		existing, ferr := a.ByAPIDHash(c, tx, acc.APIDHash)
		if ferr != nil {
			return 0, ferr
		}
		return existing.ID, nil
	}
	return id, err
}

func (a *Accounts) ByAPIDHash(c util.Context, tx *sql.Tx, hash string) (*Account, error) {
	rows, err := tx.Stmt(a.byAPIDHash).QueryContext(c, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Account
	err = enforceOneRow(rows, "Accounts.ByAPIDHash", func(r SingleRow) (e error) {
		out, e = scanAccount(r)
		return e
	})
	return out, err
}

func (a *Accounts) ByID(c util.Context, tx *sql.Tx, id int64) (*Account, error) {
	rows, err := tx.Stmt(a.byID).QueryContext(c, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Account
	err = enforceOneRow(rows, "Accounts.ByID", func(r SingleRow) (e error) {
		out, e = scanAccount(r)
		return e
	})
	return out, err
}

func (a *Accounts) ByUsername(c util.Context, tx *sql.Tx, username string) (*Account, error) {
	rows, err := tx.Stmt(a.byUsername).QueryContext(c, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Account
	err = enforceOneRow(rows, "Accounts.ByUsername", func(r SingleRow) (e error) {
		out, e = scanAccount(r)
		return e
	})
	return out, err
}

func (a *Accounts) UpdateProfile(c util.Context, tx *sql.Tx, id int64, p ProfilePatch) error {
	r, err := tx.Stmt(a.updateProfile).ExecContext(c, id, p.Name, p.Bio, p.URL, p.AvatarURL, p.BannerImageURL)
	return mustChangeOneRow(r, err, "Accounts.UpdateProfile")
}

// UpdateExternal refreshes the columns an inbound Update(Actor)
// mutates for a non-internal (remote) account.
func (a *Accounts) UpdateExternal(c util.Context, tx *sql.Tx, id int64, name, bio, url, avatarURL, bannerURL string) error {
	r, err := tx.Stmt(a.updateExternal).ExecContext(c, id, name, bio, url, avatarURL, bannerURL)
	return mustChangeOneRow(r, err, "Accounts.UpdateExternal")
}

func (a *Accounts) FollowingPage(c util.Context, tx *sql.Tx, followerID int64, limit, offset int) ([]*Account, error) {
	rows, err := tx.Stmt(a.followingPage).QueryContext(c, followerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Account
	err = doForRows(rows, func(r SingleRow) error {
		acc, e := scanAccount(r)
		if e != nil {
			return e
		}
		out = append(out, acc)
		return nil
	})
	return out, err
}

func (a *Accounts) FollowingCount(c util.Context, tx *sql.Tx, followerID int64) (n int, err error) {
	err = tx.Stmt(a.followingCount).QueryRowContext(c, followerID).Scan(&n)
	return
}

func (a *Accounts) FollowerCount(c util.Context, tx *sql.Tx, followingID int64) (n int, err error) {
	err = tx.Stmt(a.followerCount).QueryRowContext(c, followingID).Scan(&n)
	return
}

// FollowersAll returns every account following id, unpaginated, for
// internal fan-out use (spec.md §4.4's feed target set, §4.10's
// "Followers: dispatcher returns all followers (bounded) as recipient
// objects for internal use").
func (a *Accounts) FollowersAll(c util.Context, tx *sql.Tx, id int64) ([]*Account, error) {
	rows, err := tx.Stmt(a.followersAll).QueryContext(c, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Account
	err = doForRows(rows, func(r SingleRow) error {
		acc, e := scanAccount(r)
		if e != nil {
			return e
		}
		out = append(out, acc)
		return nil
	})
	return out, err
}
