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

package util

import (
	"context"
	"net/url"
)

type ctxKey string

const (
	activityKey    ctxKey = "activity"
	actorIRIKey    ctxKey = "actorIRI"
	accountIDKey   ctxKey = "accountID"
	privateScopeKey ctxKey = "privateScope"
)

// Context carries request-scoped ActivityPub values through a single
// inbox/outbox/dispatch call the way util.Context does in the teacher,
// generalized to this system's single-tenant account scoping.
type Context struct {
	context.Context
}

// NewContext wraps a plain context.Context.
func NewContext(c context.Context) Context {
	return Context{c}
}

// WithActivity records the verified inbound activity's raw IRI, set by
// the HTTP Signature verification layer before the inbox handler runs.
func (c *Context) WithActivity(activityIRI *url.URL) {
	c.Context = context.WithValue(c.Context, activityKey, activityIRI)
}

func (c Context) ActivityIRI() (*url.URL, bool) {
	v, ok := c.Value(activityKey).(*url.URL)
	return v, ok
}

// WithActorIRI records the authenticated remote actor's IRI for the
// duration of an inbox handler call.
func (c *Context) WithActorIRI(iri *url.URL) {
	c.Context = context.WithValue(c.Context, actorIRIKey, iri)
}

func (c Context) ActorIRI() (*url.URL, bool) {
	v, ok := c.Value(actorIRIKey).(*url.URL)
	return v, ok
}

// WithAccountID scopes the context to the local account id that a
// dispatcher or admin REST call is acting on behalf of.
func (c *Context) WithAccountID(id int64) {
	c.Context = context.WithValue(c.Context, accountIDKey, id)
}

func (c Context) AccountID() (int64, bool) {
	v, ok := c.Value(accountIDKey).(int64)
	return v, ok
}

// WithPrivateScope marks whether the caller is authorized to see the
// private (non-public) view of a collection.
func (c *Context) WithPrivateScope(b bool) {
	c.Context = context.WithValue(c.Context, privateScopeKey, b)
}

func (c Context) HasPrivateScope() bool {
	v, _ := c.Value(privateScopeKey).(bool)
	return v
}
