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

// Package maintenance runs the one-shot jobs spec.md §1 and §4.9 name
// ("maintenance job" refreshing externally authored posts' interaction
// counts) under spec.md §5's rate-limit contract: "the maintenance
// job's external fetch uses a token-bucket limiter with configurable
// max concurrency and per-request delay; the runtime path does not
// rate-limit." Grounded on framework/conn/retrier.go's paced-retry loop
// in the teacher, adapted from a single retry backoff into a
// many-callers token bucket plus a bounded worker pool.
package maintenance

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tryghost/activitypub/internal/config"
	"github.com/tryghost/activitypub/internal/models"
	"github.com/tryghost/activitypub/internal/services"
	"github.com/tryghost/activitypub/internal/util"
)

// Job paces InteractionCountsRefresher's external fetches: at most
// MaxConcurrency in flight at once, each admitted no faster than one
// per PerRequestDelayMillis.
type Job struct {
	refresher *services.InteractionCountsRefresher
	limiter   *rate.Limiter
	sem       chan struct{}
}

// New builds a Job from cfg's maintenance section (config.Default's
// MaxConcurrency: 4, PerRequestDelayMillis: 250 if unset).
func New(refresher *services.InteractionCountsRefresher, cfg config.MaintenanceConfig) *Job {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	delay := time.Duration(cfg.PerRequestDelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &Job{
		refresher: refresher,
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
		sem:       make(chan struct{}, maxConcurrency),
	}
}

// Run pages through every post once via PostsDue at pageSize per page,
// refreshing each due post under the token bucket and concurrency cap,
// until a page comes back empty. Returns the number of posts scanned.
func (j *Job) Run(c util.Context, pageSize int) (int, error) {
	var cursor models.PostsCursor
	total := 0
	for {
		ids, next, err := j.refresher.PostsDue(c, cursor, pageSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}
		if err := j.refreshPage(c, ids); err != nil {
			return total, err
		}
		total += len(ids)
		cursor = next
	}
}

// refreshPage fans ids out across up to MaxConcurrency goroutines,
// each blocking on the shared token bucket before starting its fetch.
func (j *Job) refreshPage(c util.Context, ids []int64) error {
	var wg sync.WaitGroup
	for _, id := range ids {
		if err := j.limiter.Wait(c); err != nil {
			wg.Wait()
			return err
		}
		select {
		case j.sem <- struct{}{}:
		case <-c.Done():
			wg.Wait()
			return c.Err()
		}

		wg.Add(1)
		go func(postID int64) {
			defer wg.Done()
			defer func() { <-j.sem }()
			if err := j.refresher.RefreshOne(c, postID); err != nil {
				util.ErrorLogger.Errorf("maintenance: post %d: %s", postID, err)
			}
		}(id)
	}
	wg.Wait()
	return nil
}
