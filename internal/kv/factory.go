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

package kv

import (
	"database/sql"
	"fmt"

	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/models"
)

// New selects the KV backend named by c.KVConfig.StoreType, the
// caller-agnostic switch spec.md §6 requires.
func New(c *config.Config, sqldb *sql.DB, kvModel *models.KeyValue) (Store, error) {
	switch c.KVConfig.StoreType {
	case "", "sql":
		return NewSQLStore(sqldb, kvModel), nil
	case "redis":
		return NewRedisStore(c.KVConfig)
	default:
		return nil, fmt.Errorf("kv: unknown store_type %q", c.KVConfig.StoreType)
	}
}
