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

// Package kv is the content-addressed JSON-LD store keyed by
// ActivityPub IRI (spec.md §2/§4.1): last-writer-wins, caller-agnostic
// over a SQL or Redis backend.
package kv

import (
	"github.com/tryghost/activitypub/internal/util"
)

// Store is the caller-agnostic KV contract spec.md §4.1 describes:
// "store(iri, jsonLd) / get(iri) on KV: last-writer-wins; keys are the
// exact IRI string."
type Store interface {
	// Get returns (nil, nil) on a missing key.
	Get(c util.Context, key string) ([]byte, error)
	Set(c util.Context, key string, value []byte) error
	Delete(c util.Context, key string) error
}
