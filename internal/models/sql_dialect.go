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

// SqlDialect names the schema this instance's tables live under, the
// way framework/db/postgres.go's pgV0 does. The teacher exposes one
// interface method per prepared statement because apcore supports
// arbitrary pluggable backends; this system only ever runs against
// Postgres, so the per-table CRUD SQL lives directly on each Model and
// SqlDialect is reduced to the one thing that actually varies per
// deployment: the schema prefix.
type SqlDialect interface {
	Schema() string
	Table(name string) string
}

var _ SqlDialect = &PgDialect{}

// PgDialect is the Postgres SqlDialect, grounded on pgV0 in
// framework/db/postgres.go.
type PgDialect struct {
	schema string
}

func NewPgDialect(schema string) *PgDialect {
	if schema == "" {
		schema = "public"
	}
	return &PgDialect{schema: schema}
}

func (p *PgDialect) Schema() string {
	return p.schema
}

func (p *PgDialect) Table(name string) string {
	return p.schema + "." + name
}
