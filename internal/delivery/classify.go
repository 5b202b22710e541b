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

package delivery

import (
	"regexp"
	"strconv"
)

var (
	dnsErrorPattern  = regexp.MustCompile(`getaddrinfo (ENOTFOUND|EAI_AGAIN)`)
	certErrorPattern = regexp.MustCompile(`Hostname/IP does not match certificate's altnames`)
	statusPattern    = regexp.MustCompile(`^Failed to send activity .+ to .+ \((\d{3})[^)]*\):`)
)

// permanentStatus is the set of upstream HTTP status codes spec.md
// §4.8 rule 3 treats as a permanent failure (the remote has rejected
// this activity in a way that will not change on retry).
var permanentStatus = map[int]bool{
	400: true, 401: true, 403: true, 404: true, 405: true, 410: true, 422: true, 501: true,
}

// Classification is the retryable/reportable verdict the error
// classifier reaches for one delivery failure.
type Classification struct {
	Retryable  bool
	Reportable bool
}

// Classify implements spec.md §4.8's four-rule error classifier,
// grounded on framework/conn/retrier.go's retry-vs-abandon branch
// (there a bare attempt-count threshold; here a message-shape
// classifier, since the queue's retry policy needs to distinguish a
// permanent remote rejection from a transient one before ever looking
// at the attempt count).
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}
	msg := err.Error()

	if dnsErrorPattern.MatchString(msg) {
		return Classification{Retryable: false, Reportable: false}
	}
	if certErrorPattern.MatchString(msg) {
		return Classification{Retryable: false, Reportable: false}
	}
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		code, convErr := strconv.Atoi(m[1])
		if convErr == nil && permanentStatus[code] {
			return Classification{Retryable: false, Reportable: false}
		}
		return Classification{Retryable: true, Reportable: false}
	}
	return Classification{Retryable: true, Reportable: true}
}
