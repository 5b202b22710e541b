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

// Package dispatch wires the HTTP routes spec.md §6 names to
// internal/services and internal/inbox, grounded on handler.go's plain
// gorilla/mux.Router + HandlerFunc closures shape rather than the
// teacher's generic app.Router/app.Route/pub.Actor abstraction
// (framework/router.go, router.go): this system dispatches through its
// own lighter internal/inbox.Dispatcher instead of go-fed/activity/pub's
// federating actor, so the routes here call straight into services
// instead of a pluggable Application interface.
package dispatch

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tryghost/activitypub/internal/collaborators"
	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/delivery"
	"github.com/tryghost/activitypub/internal/inbox"
	"github.com/tryghost/activitypub/internal/kv"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

// jsonLDContentType mirrors internal/services/transport.go's outbound
// Accept/Content-Type header, the wire format spec.md §6 requires
// ("ActivityPub JSON-LD with the standard context").
const jsonLDContentType = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`

// Router holds every collaborator the federation HTTP surface needs
// and exposes the assembled *mux.Router as an http.Handler.
type Router struct {
	mux *mux.Router

	accounts *services.AccountService
	posts    *services.PostService
	sites    *services.SiteService
	resolver *services.Resolver
	store    kv.Store

	inbox    *inbox.Dispatcher
	bridge   *delivery.Bridge
	verifier *SignatureVerifier
	webfinger collaborators.WebFinger

	cfg    *config.Config
	scheme string
	host   string
}

// NewRouter assembles every route in spec.md §6's inbound HTTP table.
func NewRouter(accounts *services.AccountService, posts *services.PostService, sites *services.SiteService,
	resolver *services.Resolver, store kv.Store, inboxDispatcher *inbox.Dispatcher, bridge *delivery.Bridge,
	webfinger collaborators.WebFinger, cfg *config.Config, scheme, host string) *Router {

	rt := &Router{
		mux:       mux.NewRouter(),
		accounts:  accounts,
		posts:     posts,
		sites:     sites,
		resolver:  resolver,
		store:     store,
		inbox:     inboxDispatcher,
		bridge:    bridge,
		verifier:  NewSignatureVerifier(resolver, cfg.ServerConfig.SkipSignatureVerification),
		webfinger: webfinger,
		cfg:       cfg,
		scheme:    scheme,
		host:      host,
	}
	rt.build()
	return rt
}

func (rt *Router) build() {
	rt.mux.HandleFunc("/.ghost/activitypub/inbox/{id}", rt.handleInbox).Methods(http.MethodPost)
	rt.mux.HandleFunc("/.ghost/activitypub/inbox", rt.handleSharedInbox).Methods(http.MethodPost)

	rt.mux.HandleFunc("/.ghost/activitypub/users/{id}", rt.handleActor).Methods(http.MethodGet)
	rt.mux.HandleFunc("/.ghost/activitypub/followers/{id}", rt.handleFollowers).Methods(http.MethodGet)
	rt.mux.HandleFunc("/.ghost/activitypub/following/{id}", rt.handleFollowing).Methods(http.MethodGet)
	rt.mux.HandleFunc("/.ghost/activitypub/outbox/{id}", rt.handleOutbox).Methods(http.MethodGet)
	rt.mux.HandleFunc("/.ghost/activitypub/liked/{id}", rt.handleLiked).Methods(http.MethodGet)

	// nodeinfo, webhooks and pubsub routes are registered ahead of the
	// generic {kind}/{id} catch-all below: gorilla/mux tries routes in
	// registration order, and "nodeinfo/2.1" would otherwise match the
	// catch-all's two-segment pattern first.
	rt.mux.HandleFunc("/.ghost/activitypub/nodeinfo/2.1", rt.handleNodeInfo).Methods(http.MethodGet)
	rt.mux.HandleFunc("/.well-known/webfinger", rt.handleWebfinger).Methods(http.MethodGet)

	rt.mux.HandleFunc("/.ghost/activitypub/webhooks/post/published", rt.handlePostPublishedWebhook).Methods(http.MethodPost)

	rt.mux.HandleFunc("/.ghost/activitypub/pubsub/ghost/push", rt.handlePubSubPush).Methods(http.MethodPost)
	rt.mux.HandleFunc("/.ghost/activitypub/pubsub/fedify/push", rt.handlePubSubPush).Methods(http.MethodPost)

	rt.mux.HandleFunc("/.ghost/activitypub/{kind}/{id}", rt.handleObject).Methods(http.MethodGet)
}

// Handler returns the assembled http.Handler, mounted by cmd/ghostfed's
// serve subcommand.
func (rt *Router) Handler() http.Handler { return rt.mux }

func writeJSONLD(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", jsonLDContentType)
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "marshal failure")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	util.ErrorLogger.Errorf("dispatch: %d: %s", status, msg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
