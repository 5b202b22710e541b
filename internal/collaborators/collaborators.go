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

// Package collaborators states the contracts for the pieces spec.md
// §1 names as explicit external collaborators ("the HTTP front-door
// router and authentication (JWT/JWKS) layer; multitenant host→site
// resolution; the blob storage adapter for uploaded images and its
// image processor; the admin REST surface...; the WebFinger
// responder; the text/HTML sanitizer and excerpt generator; the
// background one-shot maintenance jobs"), grounded on apcore's own
// `app.Application` collaborator interface (the teacher already
// factors host authentication, database setup, and software metadata
// behind an interface the framework calls into, rather than owning
// them itself).
package collaborators

import (
	"context"
	"net/url"
	"strings"
)

// Role is an admin-REST caller's authorization level (spec.md §6:
// "requires Owner or Administrator role JWT").
type Role string

const (
	RoleOwner         Role = "Owner"
	RoleAdministrator Role = "Administrator"
)

// Claims is the decoded identity an Authenticator hands back for a
// verified request.
type Claims struct {
	AccountID int64
	Role      Role
}

// Authenticator verifies the JWT/JWKS-backed admin REST bearer token
// named in spec.md §6. Its JWKS lookups are expected to go through
// internal/jwks.Cache, kept as a separate package since it is the one
// piece of the auth layer's contract spec.md gives an internal home to.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (Claims, error)
}

// HostResolver maps an inbound request's Host header to the site it
// belongs to, spec.md §1's "multitenant host→site resolution". This
// repo is single-tenant (spec.md §1/§9), so SingleSiteResolver below
// is the only implementation it ships.
type HostResolver interface {
	ResolveSite(ctx context.Context, host string) (siteID int64, err error)
}

// SingleSiteResolver implements HostResolver for the one-site
// deployment shape this repo actually runs (spec.md §9: "single
// tenant per process; no cross-site feed sharing").
type SingleSiteResolver struct {
	SiteID int64
}

func (r SingleSiteResolver) ResolveSite(ctx context.Context, host string) (int64, error) {
	return r.SiteID, nil
}

// UploadedImage is what BlobStorage hands back for a stored image.
type UploadedImage struct {
	URL    string
	Width  int
	Height int
}

// BlobStorage stores an uploaded avatar/banner/attachment image,
// spec.md §1's "blob storage adapter for uploaded images."
type BlobStorage interface {
	Store(ctx context.Context, filename string, content []byte) (url string, err error)
}

// ImageProcessor validates and transcodes an uploaded image before
// BlobStorage.Store, spec.md §7's image error taxonomy
// (`file-too-large`, `file-type-not-supported`, `invalid-url`,
// `error-saving-file`).
type ImageProcessor interface {
	Process(ctx context.Context, content []byte) (processed []byte, contentType string, err error)
}

// HTMLSanitizer cleans post content before it is federated or stored,
// and derives a plain-text excerpt from it, spec.md §1's "text/HTML
// sanitizer and excerpt generator."
type HTMLSanitizer interface {
	Sanitize(html string) string
	Excerpt(html string, maxLen int) string
}

// WebFinger answers `acct:` lookups for a local account, spec.md §1's
// "WebFinger responder" (the fixed `/.well-known/webfinger` route in
// spec.md §6's route table is served by this collaborator, not by the
// federation core's own dispatch table).
type WebFinger interface {
	Resolve(ctx context.Context, resource string) (subject *url.URL, err error)
}

// AccountLookup is the narrow slice of internal/services.AccountService
// SingleAccountWebFinger needs, declared here rather than imported
// directly so this package does not gain a dependency on
// internal/services for the sake of one lookup.
type AccountLookup interface {
	GetAccountByUsername(ctx context.Context, username string) (apID string, err error)
}

// SingleAccountWebFinger implements WebFinger for the single-tenant
// deployment shape this repo actually runs (spec.md §9): an
// `acct:user@host` resource resolves to the one internal account's own
// IRI if user names it, since there is exactly one internal account to
// resolve to.
type SingleAccountWebFinger struct {
	Accounts AccountLookup
}

func (w SingleAccountWebFinger) Resolve(ctx context.Context, resource string) (*url.URL, error) {
	user := strings.TrimPrefix(resource, "acct:")
	if at := strings.IndexByte(user, '@'); at != -1 {
		user = user[:at]
	}
	apID, err := w.Accounts.GetAccountByUsername(ctx, user)
	if err != nil {
		return nil, err
	}
	return url.Parse(apID)
}

// MaintenanceJobs runs the one-shot background repairs spec.md §1
// names (reply-count repair, external-account refresh) outside the
// request/event path.
type MaintenanceJobs interface {
	RepairReplyCounts(ctx context.Context) error
	RefreshExternalAccounts(ctx context.Context) error
}
