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

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/tryghost/activitypub/internal/app"
	"github.com/tryghost/activitypub/internal/util"
)

// runBootstrap creates the configured host's site row and its one
// internal account, prompting for whatever --username/--name/
// --webhook-secret did not already supply, grounded on
// framework/prompt.go's PromptAdminUser flow.
func runBootstrap(ctx context.Context) error {
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

	username := *bootstrapUsername
	if username == "" {
		username, err = promptString("Username for this server's internal account")
		if err != nil {
			return err
		}
	}
	name := *bootstrapName
	if name == "" {
		name, err = promptStringDefault("Display name for this server's internal account", username)
		if err != nil {
			return err
		}
	}
	secret := *bootstrapSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
	}

	site, account, err := app.Bootstrap(ctx, cfg, db, secret, username, name)
	if err != nil {
		return err
	}

	util.InfoLogger.Infof("ghostfed: bootstrapped site %q (id %d)", site.Host, site.ID)
	util.InfoLogger.Infof("ghostfed: internal account @%s (id %d), actor %s", account.Username, account.ID, account.APID)
	fmt.Printf("webhook secret: %s\n", site.WebhookSecret)
	return nil
}

func promptString(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

func promptStringDefault(label, def string) (string, error) {
	p := promptui.Prompt{Label: label, Default: def}
	return p.Run()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
