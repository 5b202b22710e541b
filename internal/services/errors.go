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

package services

import "fmt"

// Kind distinguishes the service-layer error categories spec.md §4
// calls for by name, so inbox handlers and HTTP dispatchers can branch
// on what went wrong (NotFound -> 404, InvalidData -> reject the
// activity, NetworkFailure -> retry) without parsing error strings.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidType    Kind = "invalid_type"
	KindInvalidData    Kind = "invalid_data"
	KindNetworkFailure Kind = "network_failure"
	KindUpstreamError  Kind = "upstream_error"
	KindNotAPost       Kind = "not_a_post"
	KindMissingAuthor  Kind = "missing_author"
	KindCannotInteract Kind = "cannot_interact"
	KindAlreadyExists  Kind = "already_exists"
)

// Error is the typed error every service function in this package
// returns for an expected failure mode, grounded on the teacher's
// practice (services/user.go, services/data.go) of returning plain
// errors wrapped with enough context for the caller to classify them,
// generalized here into an explicit Kind field instead of string
// sniffing.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("services: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("services: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err is itself a *services.Error of the given
// kind. Wrapped errors are not unwrapped: only err's own Kind is
// compared.
func Is(err error, kind Kind) bool {
	se, ok := err.(*Error)
	if !ok {
		return false
	}
	return se.Kind == kind
}
