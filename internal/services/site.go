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
	"database/sql"

	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/util"
)

// SiteService is the thin read path over models.Sites the webhook
// dispatcher and startup bootstrap need (spec.md §3's Site row and its
// webhook_secret/default Account), grounded on services/user.go's
// pattern of wrapping a single Model behind doInTx.
type SiteService struct {
	db    *sql.DB
	sites *models.Sites
}

func NewSiteService(db *sql.DB, sites *models.Sites) *SiteService {
	return &SiteService{db: db, sites: sites}
}

// GetSiteByHost is the webhook dispatcher's lookup for the HMAC secret
// to verify x-ghost-signature against (spec.md §6).
func (s *SiteService) GetSiteByHost(c util.Context, host string) (*models.Site, error) {
	var site *models.Site
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		v, err := s.sites.ByHost(c, tx, host)
		if err != nil {
			return err
		}
		site = v
		return nil
	})
	if err != nil {
		return nil, newErr("GetSiteByHost", KindNotFound, err)
	}
	return site, nil
}

// EnsureSite returns the existing row for host, or creates one with a
// fresh webhook secret, the bootstrap subcommand's entry point.
func (s *SiteService) EnsureSite(c util.Context, host, webhookSecret string, ghostPro bool) (*models.Site, error) {
	if site, err := s.GetSiteByHost(c, host); err == nil {
		return site, nil
	}
	site := &models.Site{Host: host, WebhookSecret: webhookSecret, GhostPro: ghostPro}
	var id int64
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		v, err := s.sites.Insert(c, tx, site)
		if err != nil {
			return err
		}
		id = v
		return nil
	})
	if err != nil {
		return nil, newErr("EnsureSite", KindInvalidData, err)
	}
	site.ID = id
	return site, nil
}

// SetDefaultAccount binds siteID's default internal Account, the
// bootstrap subcommand's final step once the internal Account row
// exists.
func (s *SiteService) SetDefaultAccount(c util.Context, siteID, accountID int64) error {
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		return s.sites.SetDefaultAccount(c, tx, siteID, accountID)
	})
	if err != nil {
		return newErr("SetDefaultAccount", KindInvalidData, err)
	}
	return nil
}

// GetDefaultAccount returns the Account bound as siteID's default
// internal account, the identity federated activities are authored as
// when no more specific author is named (spec.md §3).
func (s *SiteService) GetDefaultAccount(c util.Context, accounts *models.Accounts, siteID int64) (*models.Account, error) {
	site, err := s.getByID(c, siteID)
	if err != nil {
		return nil, err
	}
	var acc *models.Account
	err = doInTx(c, s.db, func(tx *sql.Tx) error {
		a, err := accounts.ByID(c, tx, site.DefaultAccountID)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, newErr("GetDefaultAccount", KindNotFound, err)
	}
	return acc, nil
}

func (s *SiteService) getByID(c util.Context, id int64) (*models.Site, error) {
	var site *models.Site
	err := doInTx(c, s.db, func(tx *sql.Tx) error {
		v, err := s.sites.ByID(c, tx, id)
		if err != nil {
			return err
		}
		site = v
		return nil
	})
	if err != nil {
		return nil, newErr("getByID", KindNotFound, err)
	}
	return site, nil
}
