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

package app

import (
	"testing"

	"github.com/tryghost/activitypub/internal/config"
)

func TestSchemeIsHTTPSByDefault(t *testing.T) {
	cfg := config.Default()
	if got := scheme(cfg); got != "https" {
		t.Errorf("scheme() = %q, want %q", got, "https")
	}
}

func TestSchemeIsHTTPWhenSignatureVerificationSkipped(t *testing.T) {
	cfg := config.Default()
	cfg.ServerConfig.SkipSignatureVerification = true
	if got := scheme(cfg); got != "http" {
		t.Errorf("scheme() = %q, want %q", got, "http")
	}
}
