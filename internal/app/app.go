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

// Package app wires every internal/* package into one running
// process, grounded on dep_inj.go's createModelsAndServices and
// server.go's newServer: load config, open the database, build every
// service in dependency order, and assemble the HTTP handler.
//
// The one order-of-construction wrinkle the teacher never had to
// solve: every outbound signed request in this system is signed with
// the federating Account's own key (spec.md §9), not a single
// per-process instance key, so the Resolver and its Transport cannot
// be built until a default internal Account already exists and its
// key pair can be read back out of the database. New resolves this by
// reading the default account through SiteService, then its key pair
// through a throwaway AccountService with a nil Resolver (GetKeyPair
// never touches the Resolver field), then building the real
// AccountService once the Transport/Resolver pair exists.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tryghost/activitypub/internal/collaborators"
	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/delivery"
	"github.com/tryghost/activitypub/internal/dispatch"
	"github.com/tryghost/activitypub/internal/events"
	"github.com/tryghost/activitypub/internal/inbox"
	"github.com/tryghost/activitypub/internal/kv"
	"github.com/tryghost/activitypub/internal/maintenance"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/queue"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

const userAgent = "ghostfed/1.0 (+https://github.com/tryghost/activitypub)"

// App is the fully wired process, the return value cmd/ghostfed's
// serve/deliver-worker/refresh-counts subcommands all start from.
type App struct {
	Cfg *config.Config
	DB  *models.DB

	Store kv.Store
	Bus   *events.Bus
	Queue *queue.Queue

	Resolver    *services.Resolver
	Accounts    *services.AccountService
	Moderation  *services.ModerationService
	Posts       *services.PostService
	Sites       *services.SiteService
	Feed        *services.FeedEngine
	Counts      *services.InteractionCountsRefresher
	Maintenance *maintenance.Job

	Bridge *delivery.Bridge
	Inbox  *inbox.Dispatcher
	Router *dispatch.Router

	Site    *models.Site
	Account *models.Account

	httpServer *http.Server
}

// scheme picks the URI scheme every IRI this process mints or
// verifies is built under. SkipSignatureVerification already marks a
// non-production run (dispatch.NewSignatureVerifier reads the same
// flag to waive HTTP Signature checks), so it doubles as the "this is
// a local dev server" switch for the scheme too.
func scheme(cfg *config.Config) string {
	if cfg.ServerConfig.SkipSignatureVerification {
		return "http"
	}
	return "https"
}

// New builds every service and the HTTP router against an already
// bootstrapped site (see Bootstrap): cfg.ServerConfig.Host must name a
// sites row with a default Account already bound, or New fails telling
// the caller to run the bootstrap subcommand first.
func New(ctx context.Context, cfg *config.Config, db *models.DB) (*App, error) {
	c := util.NewContext(ctx)
	sch, host := scheme(cfg), cfg.ServerConfig.Host

	store, err := kv.New(cfg, db.SQL, db.KeyValue)
	if err != nil {
		return nil, fmt.Errorf("app: open kv store: %w", err)
	}

	bus := events.New()
	sites := services.NewSiteService(db.SQL, db.Sites)

	site, err := sites.GetSiteByHost(c, host)
	if err != nil {
		return nil, fmt.Errorf("app: no site for host %q, run the bootstrap subcommand first: %w", host, err)
	}
	if site.DefaultAccountID == 0 {
		return nil, fmt.Errorf("app: site %q has no default account, run the bootstrap subcommand first", host)
	}

	bootstrapAccounts := services.NewAccountService(db.SQL, db.Accounts, db.Follows, nil, bus, sch, host)
	account, err := sites.GetDefaultAccount(c, db.Accounts, site.ID)
	if err != nil {
		return nil, fmt.Errorf("app: load default account: %w", err)
	}
	_, privPEM, err := bootstrapAccounts.GetKeyPair(c, account.ID)
	if err != nil {
		return nil, fmt.Errorf("app: load default account key pair: %w", err)
	}
	privKey, err := services.ParsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("app: parse default account private key: %w", err)
	}

	transport, err := services.NewTransport(cfg, privKey, services.PubKeyIDFor(account), userAgent)
	if err != nil {
		return nil, fmt.Errorf("app: build transport: %w", err)
	}
	resolver := services.NewResolver(store, transport)

	accounts := services.NewAccountService(db.SQL, db.Accounts, db.Follows, resolver, bus, sch, host)
	moderation := services.NewModerationService(db.SQL, db.Accounts, db.Blocks, db.DomainBlocks)
	posts := services.NewPostService(db.SQL, db.Posts, db.Likes, db.Reposts, db.Outboxes, db.Accounts,
		resolver, moderation, bus, cfg.ActivityPubConfig.MaxInboxReplyResolutionDepth, sch, host)
	feed := services.NewFeedEngine(db.SQL, db.Feeds, db.Accounts, bus, cfg.ActivityPubConfig.FeedFanoutChunkSize)
	feed.Subscribe(bus)
	counts := services.NewInteractionCountsRefresher(db.SQL, db.Posts, db.Accounts, resolver)
	maintenanceJob := maintenance.New(counts, cfg.MaintenanceConfig)

	q, err := queue.New(cfg.QueueConfig)
	if err != nil {
		return nil, fmt.Errorf("app: build queue: %w", err)
	}
	bridge := delivery.NewBridge(accounts, store, q, cfg, sch, host, userAgent)
	bridge.Subscribe(bus)

	dispatcher := inbox.NewDispatcher(accounts, posts, moderation, resolver, store, bridge, sch, host)

	webfinger := collaborators.SingleAccountWebFinger{Accounts: accountLookup{accounts}}
	router := dispatch.NewRouter(accounts, posts, sites, resolver, store, dispatcher, bridge, webfinger, cfg, sch, host)

	return &App{
		Cfg: cfg, DB: db,
		Store: store, Bus: bus, Queue: q,
		Resolver: resolver, Accounts: accounts, Moderation: moderation, Posts: posts,
		Sites: sites, Feed: feed, Counts: counts, Maintenance: maintenanceJob,
		Bridge: bridge, Inbox: dispatcher, Router: router,
		Site: site, Account: account,
	}, nil
}

// accountLookup adapts *services.AccountService to
// collaborators.AccountLookup, whose single-method contract only
// needs the resolved actor IRI, not the full Account row
// SingleAccountWebFinger's caller has no other use for.
type accountLookup struct {
	accounts *services.AccountService
}

func (a accountLookup) GetAccountByUsername(ctx context.Context, username string) (string, error) {
	acc, err := a.accounts.GetAccountByUsername(util.NewContext(ctx), username)
	if err != nil {
		return "", err
	}
	return acc.APID, nil
}

// Bootstrap creates cfg.ServerConfig.Host's site row and its one
// internal Account if they do not already exist, the bootstrap
// subcommand's entry point. It is idempotent: re-running it against an
// already-bootstrapped host returns the existing site/account instead
// of erroring.
func Bootstrap(ctx context.Context, cfg *config.Config, db *models.DB, webhookSecret, username, name string) (*models.Site, *models.Account, error) {
	c := util.NewContext(ctx)
	sch, host := scheme(cfg), cfg.ServerConfig.Host

	bus := events.New()
	sites := services.NewSiteService(db.SQL, db.Sites)
	accounts := services.NewAccountService(db.SQL, db.Accounts, db.Follows, nil, bus, sch, host)

	site, err := sites.EnsureSite(c, host, webhookSecret, false)
	if err != nil {
		return nil, nil, fmt.Errorf("app: ensure site: %w", err)
	}

	if site.DefaultAccountID != 0 {
		acc, err := sites.GetDefaultAccount(c, db.Accounts, site.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("app: load existing default account: %w", err)
		}
		return site, acc, nil
	}

	acc, err := accounts.CreateInternalAccount(c, username, name)
	if err != nil {
		return nil, nil, fmt.Errorf("app: create internal account: %w", err)
	}
	if err := sites.SetDefaultAccount(c, site.ID, acc.ID); err != nil {
		return nil, nil, fmt.Errorf("app: bind default account: %w", err)
	}
	site.DefaultAccountID = acc.ID
	return site, acc, nil
}

// ServeHTTP starts the HTTP listener and the in-process delivery
// queue consumer (the single-process stand-in for the push-
// subscription worker a multi-process deployment would run as
// deliver-worker instead), blocking until ctx is canceled.
func (a *App) ServeHTTP(ctx context.Context) error {
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Cfg.ServerConfig.Port),
		Handler:      a.Router.Handler(),
		ReadTimeout:  time.Duration(a.Cfg.ServerConfig.HttpClientTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.Cfg.ServerConfig.HttpClientTimeoutSeconds) * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		util.InfoLogger.Infof("app: delivery worker starting")
		errs <- a.Bridge.Run(ctx)
	}()
	go func() {
		util.InfoLogger.Infof("app: http server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
			return
		}
		errs <- nil
	}()

	select {
	case <-ctx.Done():
		return a.Stop()
	case err := <-errs:
		a.Stop()
		return err
	}
}

// RunDeliveryWorker runs only the in-process delivery queue consumer,
// deliver-worker's entry point for a deployment that splits the HTTP
// front door and the delivery worker into separate processes.
func (a *App) RunDeliveryWorker(ctx context.Context) error {
	return a.Bridge.Run(ctx)
}

// Stop shuts down the HTTP listener and releases the queue and
// database resources, mirroring server.go's stop/onStop split.
func (a *App) Stop() error {
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			util.ErrorLogger.Errorf("app: http server shutdown: %s", err)
		}
	}
	if err := a.Queue.Close(); err != nil {
		util.ErrorLogger.Errorf("app: queue close: %s", err)
	}
	a.DB.Close()
	return nil
}
