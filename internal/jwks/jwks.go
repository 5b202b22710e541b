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

// Package jwks is the hostname-keyed JWKS cache spec.md §4.1's last
// bullet names ("JWKS cache for JWT key rotation uses a separate,
// hostname-keyed entry with retry (5 attempts, exponential
// backoff)"). The admin REST JWT verifier that consumes this cache is
// itself an external collaborator (spec.md §6); this package is the
// piece of the contract that belongs inside the federation core: one
// cache entry per site host, refreshed from that site's own JWKS
// endpoint on a miss or a verifier-reported unknown key id.
package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tryghost/activitypub/internal/kv"
	"github.com/tryghost/activitypub/internal/util"
)

const cacheKeyPrefix = "jwks:"

// Set is a decoded JSON Web Key Set, kept as raw per-key JSON so this
// package need not model every JWK member a verifier might need.
type Set struct {
	Keys []json.RawMessage `json:"keys"`
}

// Cache fetches and caches a site's JWKS by hostname, grounded on
// internal/services.Transport.Dereference's plain GET-and-decode shape
// (a JWKS endpoint is unauthenticated, so no HTTP Signature is
// attached here).
type Cache struct {
	store   kv.Store
	client  *http.Client
	retries uint64
}

// New builds a Cache. retryAttempts is spec.md §4.1's retry count
// (config.DeliveryConfig.JWKSRetryAttempts, default 5); timeout bounds
// each individual fetch attempt (spec.md's "every outbound HTTP...
// must honor a configurable deadline").
func New(store kv.Store, retryAttempts int, timeout time.Duration) *Cache {
	if retryAttempts <= 0 {
		retryAttempts = 5
	}
	return &Cache{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		retries: uint64(retryAttempts),
	}
}

func cacheKey(host string) string {
	return cacheKeyPrefix + host
}

// Get returns host's cached JWKS, fetching and caching it on a miss.
func (c *Cache) Get(ctx context.Context, host string) (*Set, error) {
	uc := util.NewContext(ctx)
	cached, err := c.store.Get(uc, cacheKey(host))
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var s Set
		if err := json.Unmarshal(cached, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	return c.Refresh(ctx, host)
}

// Refresh unconditionally re-fetches host's JWKS, the path a verifier
// takes after failing to find a key id in an otherwise-cached set (the
// site may have rotated keys since the cache was last populated).
func (c *Cache) Refresh(ctx context.Context, host string) (*Set, error) {
	set, err := c.refreshFrom(ctx, fmt.Sprintf("https://%s/.well-known/jwks.json", host))
	if err != nil {
		return nil, fmt.Errorf("jwks: refresh %s: %w", host, err)
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(util.NewContext(ctx), cacheKey(host), raw); err != nil {
		return nil, err
	}
	return set, nil
}

// refreshFrom fetches and decodes the JWKS document at url, making
// up to c.retries attempts in all with exponential backoff (spec.md §4.1's "5
// attempts, exponential backoff"). Split out from Refresh so tests can
// point it at an httptest.Server without the https://host convention.
func (c *Cache) refreshFrom(ctx context.Context, url string) (*Set, error) {
	var body []byte
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("jwks: fetch %s: status %d", url, resp.StatusCode)
		}
		b, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries-1), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return nil, err
	}

	var s Set
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("jwks: decode %s: %w", url, err)
	}
	return &s, nil
}
