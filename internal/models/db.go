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

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/util"
)

// Open connects to Postgres and applies the pool settings from
// DatabaseConfig, grounded on framework/db/db.go's NewDB: MaxOpenConns
// caps open connections, MinIdleConns caps the idle connections kept
// (database/sql keeps no minimum), and the connection lifetime and idle
// timeout apply when set. AcquireTimeoutSeconds is not applied;
// database/sql has no pool setting for it.
func Open(c *config.Config) (*sql.DB, *PgDialect, error) {
	dsn, err := connString(c.DatabaseConfig)
	if err != nil {
		return nil, nil, err
	}
	util.InfoLogger.Info("models: opening database connection")
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if c.DatabaseConfig.ConnMaxLifetimeSeconds > 0 {
		db.SetConnMaxLifetime(time.Duration(c.DatabaseConfig.ConnMaxLifetimeSeconds) * time.Second)
	}
	if c.DatabaseConfig.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.DatabaseConfig.MaxOpenConns)
	}
	db.SetMaxIdleConns(c.DatabaseConfig.MinIdleConns)
	if c.DatabaseConfig.IdleTimeoutSeconds > 0 {
		db.SetConnMaxIdleTime(time.Duration(c.DatabaseConfig.IdleTimeoutSeconds) * time.Second)
	}
	return db, NewPgDialect("public"), nil
}

func connString(d config.DatabaseConfig) (string, error) {
	if d.DatabaseName == "" {
		return "", fmt.Errorf("models: database name is required")
	}
	s := fmt.Sprintf("dbname=%s", d.DatabaseName)
	if d.User != "" {
		s += fmt.Sprintf(" user=%s", d.User)
	}
	if d.Password != "" {
		s += fmt.Sprintf(" password=%s", d.Password)
	}
	if d.SocketPath != "" {
		s += fmt.Sprintf(" host=%s", d.SocketPath)
	} else if d.Host != "" {
		s += fmt.Sprintf(" host=%s", d.Host)
		if d.Port > 0 {
			s += fmt.Sprintf(" port=%d", d.Port)
		}
	}
	if d.SSLMode != "" {
		s += fmt.Sprintf(" sslmode=%s", d.SSLMode)
	}
	return s, nil
}

// MustPing verifies connectivity, the way framework/db/db.go's
// MustPing does.
func MustPing(db *sql.DB) error {
	start := time.Now()
	if err := db.Ping(); err != nil {
		util.ErrorLogger.Errorf("models: ping failed: %s", err)
		return err
	}
	util.InfoLogger.Infof("models: ping succeeded in %s", time.Since(start))
	return nil
}
