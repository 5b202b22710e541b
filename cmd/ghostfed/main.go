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

// Command ghostfed runs the federation core as a standalone binary,
// grounded on apcore's cmdline.go action registry (serve/initDb/
// initAdmin/configure) but dispatched through kingpin subcommands
// instead of positional flag.Args, the way a single process still
// needs to run either the full server, just the delivery worker half
// of it, or a one-shot maintenance pass.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v3-unstable"

	"github.com/tryghost/activitypub/internal/app"
	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/util"
)

var (
	cli        = kingpin.New("ghostfed", "ActivityPub federation core for a single-tenant publishing site")
	configFlag = cli.Flag("config", "path to the ini config file").Default("ghostfed.ini").String()

	serveCmd = cli.Command("serve", "run the HTTP front door and in-process delivery worker")

	deliverCmd = cli.Command("deliver-worker", "run only the delivery queue consumer")

	refreshCmd      = cli.Command("refresh-counts", "one-shot pass refreshing externally authored posts' like/repost counts")
	refreshPageSize = refreshCmd.Flag("page-size", "posts scanned per keyset page").Default("200").Int()

	initDbCmd = cli.Command("init-db", "create tables for the configured database")

	bootstrapCmd      = cli.Command("bootstrap", "create this host's site row and its one internal account")
	bootstrapUsername = bootstrapCmd.Flag("username", "username for the new internal account").String()
	bootstrapName     = bootstrapCmd.Flag("name", "display name for the new internal account").String()
	bootstrapSecret   = bootstrapCmd.Flag("webhook-secret", "HMAC secret the publish webhook verifies against; random if omitted").String()
)

func main() {
	cmd, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var runErr error
	switch cmd {
	case serveCmd.FullCommand():
		runErr = runServe(ctx)
	case deliverCmd.FullCommand():
		runErr = runDeliverWorker(ctx)
	case refreshCmd.FullCommand():
		runErr = runRefreshCounts(ctx, *refreshPageSize)
	case initDbCmd.FullCommand():
		runErr = runInitDB(ctx)
	case bootstrapCmd.FullCommand():
		runErr = runBootstrap(ctx)
	default:
		runErr = fmt.Errorf("unknown command %q", cmd)
	}
	if runErr != nil {
		util.ErrorLogger.Errorf("ghostfed: %s", runErr)
		os.Exit(1)
	}
}

// signalContext cancels on SIGINT/SIGTERM, the same shutdown trigger
// cmdline.go's serveFn wires onto s.stop().
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

func loadConfig() (*config.Config, error) {
	c, err := config.LoadFile(*configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", *configFlag, err)
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	return c, nil
}

func openDB(cfg *config.Config) (*models.DB, error) {
	sqldb, dialect, err := models.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := models.MustPing(sqldb); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db, err := models.NewDB(sqldb, dialect)
	if err != nil {
		return nil, fmt.Errorf("prepare models: %w", err)
	}
	return db, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, db)
	if err != nil {
		db.Close()
		return err
	}
	return a.ServeHTTP(ctx)
}

func runDeliverWorker(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	a, err := app.New(ctx, cfg, db)
	if err != nil {
		return err
	}
	return a.RunDeliveryWorker(ctx)
}

func runInitDB(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.CreateTables(ctx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	util.InfoLogger.Infof("ghostfed: tables created")
	return nil
}

// runRefreshCounts pages through every post once, the one-shot
// maintenance job shape spec.md §1 names (as opposed to serve's
// always-on delivery worker), its external fetches rate-limited per
// spec.md §5 by a.Maintenance.
func runRefreshCounts(ctx context.Context, pageSize int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	a, err := app.New(ctx, cfg, db)
	if err != nil {
		return err
	}

	c := util.NewContext(ctx)
	total, err := a.Maintenance.Run(c, pageSize)
	if err != nil {
		return fmt.Errorf("refresh-counts: %w", err)
	}
	util.InfoLogger.Infof("ghostfed: refresh-counts scanned %d posts", total)
	return nil
}
