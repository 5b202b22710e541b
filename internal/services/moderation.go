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

// ModerationService implements spec.md §4.7's CanInteractWithAccount,
// generalized from apcore's pluggable policy engine
// (services/policies.go's block-resolution-in-a-transaction shape) to
// this spec's fixed blocks/domain_blocks rule.
type ModerationService struct {
	db           *sql.DB
	accounts     *models.Accounts
	blocks       *models.Blocks
	domainBlocks *models.DomainBlocks
}

func NewModerationService(db *sql.DB, accounts *models.Accounts, blocks *models.Blocks, domainBlocks *models.DomainBlocks) *ModerationService {
	return &ModerationService{db: db, accounts: accounts, blocks: blocks, domainBlocks: domainBlocks}
}

// CanInteractWithAccount is spec.md §4.7's three-rule check: direct
// blocks in either direction, or a domain block covering either
// side's domain.
func (m *ModerationService) CanInteractWithAccount(c util.Context, viewerID, targetID int64) (bool, error) {
	var ok bool
	err := doInTx(c, m.db, func(tx *sql.Tx) error {
		if blocked, err := m.blocks.Exists(c, tx, targetID, viewerID); err != nil {
			return err
		} else if blocked {
			ok = false
			return nil
		}
		if blocked, err := m.blocks.Exists(c, tx, viewerID, targetID); err != nil {
			return err
		} else if blocked {
			ok = false
			return nil
		}

		viewer, err := m.accounts.ByID(c, tx, viewerID)
		if err != nil {
			return err
		}
		target, err := m.accounts.ByID(c, tx, targetID)
		if err != nil {
			return err
		}
		if viewer.DomainHash != "" {
			if blocked, err := m.domainBlocks.Exists(c, tx, targetID, viewer.DomainHash); err != nil {
				return err
			} else if blocked {
				ok = false
				return nil
			}
		}
		if target.DomainHash != "" {
			if blocked, err := m.domainBlocks.Exists(c, tx, viewerID, target.DomainHash); err != nil {
				return err
			} else if blocked {
				ok = false
				return nil
			}
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, newErr("CanInteractWithAccount", KindInvalidData, err)
	}
	return ok, nil
}
