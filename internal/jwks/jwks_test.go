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

package jwks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tryghost/activitypub/internal/util"
)

// memStore mirrors internal/inbox's test double: a minimal in-memory
// kv.Store standing in for a real backend.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(c util.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memStore) Set(c util.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(c util.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestGetUsesCacheWithoutFetching(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"keys":[{"kid":"1"}]}`))
	}))
	defer srv.Close()

	store := newMemStore()
	c := &Cache{store: store, client: srv.Client(), retries: 5}
	host := srv.Listener.Addr().String()
	store.data[cacheKey(host)] = []byte(`{"keys":[{"kid":"cached"}]}`)

	set, err := c.Get(context.Background(), host)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if len(set.Keys) != 1 {
		t.Fatalf("expected 1 cached key, got %d", len(set.Keys))
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("expected cache hit to skip the network, got %d fetches", hits)
	}
}

func TestRefreshRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"keys":[{"kid":"a"},{"kid":"b"}]}`))
	}))
	defer srv.Close()

	store := newMemStore()
	c := &Cache{store: store, client: srv.Client(), retries: 5}

	set, err := c.refreshFrom(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("refreshFrom: %s", err)
	}
	if len(set.Keys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(set.Keys))
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRefreshGivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := newMemStore()
	c := New(store, 2, time.Second)
	c.client = srv.Client()

	if _, err := c.refreshFrom(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("expected 2 attempts (retryAttempts=2), got %d", got)
	}
}
