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

	"github.com/tryghost/activitypub/internal/util"
)

// Site is a hosted tenant (spec.md §3). Host resolution itself is the
// out-of-scope multitenant collaborator; this table still exists
// because a Site owns exactly one default internal Account.
type Site struct {
	ID                int64
	Host              string
	WebhookSecret     string
	GhostPro          bool
	DefaultAccountID  int64
}

// User binds an Account to a Site, making it an internal (site-local)
// account, per spec.md §3's "is_internal (derived: has a users row
// bound to a site)".
type User struct {
	ID        int64
	AccountID int64
	SiteID    int64
}

var _ Model = &Sites{}

type Sites struct {
	insert     *sql.Stmt
	byHost     *sql.Stmt
	byID       *sql.Stmt
	setDefault *sql.Stmt
}

func (s *Sites) Prepare(db *sql.DB, d SqlDialect) error {
	t := d.Table("sites")
	return prepareStmtPairs(db, stmtPairs{
		{&s.insert, `INSERT INTO ` + t + ` (host, webhook_secret, ghost_pro) VALUES ($1,$2,$3)
			ON CONFLICT (host) DO NOTHING RETURNING id`},
		{&s.byHost, `SELECT id, host, webhook_secret, ghost_pro, COALESCE(default_account_id, 0) FROM ` + t + ` WHERE host = $1`},
		{&s.byID, `SELECT id, host, webhook_secret, ghost_pro, COALESCE(default_account_id, 0) FROM ` + t + ` WHERE id = $1`},
		{&s.setDefault, `UPDATE ` + t + ` SET default_account_id = $2 WHERE id = $1`},
	})
}

func (s *Sites) CreateTable(t *sql.Tx, d SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + d.Table("sites") + ` (
		id BIGSERIAL PRIMARY KEY,
		host TEXT NOT NULL UNIQUE,
		webhook_secret TEXT NOT NULL DEFAULT '',
		ghost_pro BOOLEAN NOT NULL DEFAULT false,
		default_account_id BIGINT
	)`)
	return err
}

func (s *Sites) Close() {
	for _, st := range []*sql.Stmt{s.insert, s.byHost, s.byID, s.setDefault} {
		if st != nil {
			st.Close()
		}
	}
}

func scanSite(r SingleRow) (*Site, error) {
	site := &Site{}
	err := r.Scan(&site.ID, &site.Host, &site.WebhookSecret, &site.GhostPro, &site.DefaultAccountID)
	return site, err
}

func (s *Sites) Insert(c util.Context, tx *sql.Tx, site *Site) (int64, error) {
	var id int64
	row := tx.Stmt(s.insert).QueryRowContext(c, site.Host, site.WebhookSecret, site.GhostPro)
	err := row.Scan(&id)
	if err == sql.ErrNoRows {
		existing, ferr := s.ByHost(c, tx, site.Host)
		if ferr != nil {
			return 0, ferr
		}
		return existing.ID, nil
	}
	return id, err
}

func (s *Sites) ByHost(c util.Context, tx *sql.Tx, host string) (*Site, error) {
	rows, err := tx.Stmt(s.byHost).QueryContext(c, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Site
	err = enforceOneRow(rows, "Sites.ByHost", func(r SingleRow) (e error) {
		out, e = scanSite(r)
		return e
	})
	return out, err
}

func (s *Sites) ByID(c util.Context, tx *sql.Tx, id int64) (*Site, error) {
	rows, err := tx.Stmt(s.byID).QueryContext(c, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *Site
	err = enforceOneRow(rows, "Sites.ByID", func(r SingleRow) (e error) {
		out, e = scanSite(r)
		return e
	})
	return out, err
}

func (s *Sites) SetDefaultAccount(c util.Context, tx *sql.Tx, siteID, accountID int64) error {
	r, err := tx.Stmt(s.setDefault).ExecContext(c, siteID, accountID)
	return mustChangeOneRow(r, err, "Sites.SetDefaultAccount")
}

var _ Model = &Users{}

// Users is the Model for the site-local account binding table.
type Users struct {
	insert          *sql.Stmt
	byAccountID     *sql.Stmt
	bySiteID        *sql.Stmt
	isInternal      *sql.Stmt
}

func (u *Users) Prepare(db *sql.DB, d SqlDialect) error {
	t := d.Table("users")
	return prepareStmtPairs(db, stmtPairs{
		{&u.insert, `INSERT INTO ` + t + ` (account_id, site_id) VALUES ($1,$2)
			ON CONFLICT (account_id) DO NOTHING`},
		{&u.byAccountID, `SELECT id, account_id, site_id FROM ` + t + ` WHERE account_id = $1`},
		{&u.bySiteID, `SELECT id, account_id, site_id FROM ` + t + ` WHERE site_id = $1`},
		{&u.isInternal, `SELECT EXISTS(SELECT 1 FROM ` + t + ` WHERE account_id = $1)`},
	})
}

func (u *Users) CreateTable(t *sql.Tx, d SqlDialect) error {
	_, err := t.Exec(`CREATE TABLE IF NOT EXISTS ` + d.Table("users") + ` (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL UNIQUE,
		site_id BIGINT NOT NULL
	)`)
	return err
}

func (u *Users) Close() {
	for _, st := range []*sql.Stmt{u.insert, u.byAccountID, u.bySiteID, u.isInternal} {
		if st != nil {
			st.Close()
		}
	}
}

func (u *Users) Insert(c util.Context, tx *sql.Tx, accountID, siteID int64) error {
	_, err := tx.Stmt(u.insert).ExecContext(c, accountID, siteID)
	return err
}

func (u *Users) ByAccountID(c util.Context, tx *sql.Tx, accountID int64) (*User, error) {
	rows, err := tx.Stmt(u.byAccountID).QueryContext(c, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out *User
	err = enforceOneRow(rows, "Users.ByAccountID", func(r SingleRow) error {
		out = &User{}
		return r.Scan(&out.ID, &out.AccountID, &out.SiteID)
	})
	return out, err
}

func (u *Users) BySiteID(c util.Context, tx *sql.Tx, siteID int64) ([]*User, error) {
	rows, err := tx.Stmt(u.bySiteID).QueryContext(c, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*User
	err = doForRows(rows, func(r SingleRow) error {
		usr := &User{}
		if e := r.Scan(&usr.ID, &usr.AccountID, &usr.SiteID); e != nil {
			return e
		}
		out = append(out, usr)
		return nil
	})
	return out, err
}

func (u *Users) IsInternal(c util.Context, tx *sql.Tx, accountID int64) (bool, error) {
	var b bool
	err := tx.Stmt(u.isInternal).QueryRowContext(c, accountID).Scan(&b)
	return b, err
}
