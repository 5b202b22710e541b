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
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantRetryable  bool
		wantReportable bool
	}{
		{
			name:           "dns not found",
			err:            errors.New("getaddrinfo ENOTFOUND remote.example.com"),
			wantRetryable:  false,
			wantReportable: false,
		},
		{
			name:           "dns try again",
			err:            errors.New("getaddrinfo EAI_AGAIN remote.example.com"),
			wantRetryable:  false,
			wantReportable: false,
		},
		{
			name:           "certificate hostname mismatch",
			err:            errors.New("Hostname/IP does not match certificate's altnames: x509: certificate is valid for a.example, not b.example"),
			wantRetryable:  false,
			wantReportable: false,
		},
		{
			name:           "permanent 404",
			err:            errors.New("Failed to send activity https://example.com/activities/1 to https://remote.example/inbox (404 Not Found): gone"),
			wantRetryable:  false,
			wantReportable: false,
		},
		{
			name:           "permanent 410",
			err:            errors.New("Failed to send activity https://example.com/activities/1 to https://remote.example/inbox (410 Gone):"),
			wantRetryable:  false,
			wantReportable: false,
		},
		{
			name:           "permanent 501",
			err:            errors.New("Failed to send activity https://example.com/activities/1 to https://remote.example/inbox (501 Not Implemented):"),
			wantRetryable:  false,
			wantReportable: false,
		},
		{
			name:           "transient 500",
			err:            errors.New("Failed to send activity https://example.com/activities/1 to https://remote.example/inbox (500 Internal Server Error): try later"),
			wantRetryable:  true,
			wantReportable: false,
		},
		{
			name:           "transient 429",
			err:            errors.New("Failed to send activity https://example.com/activities/1 to https://remote.example/inbox (429 Too Many Requests):"),
			wantRetryable:  true,
			wantReportable: false,
		},
		{
			name:           "unrecognized error is an application fault",
			err:            errors.New("unexpected EOF while reading response body"),
			wantRetryable:  true,
			wantReportable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			if got.Reportable != tt.wantReportable {
				t.Errorf("Reportable = %v, want %v", got.Reportable, tt.wantReportable)
			}
		})
	}
}

func TestClassifyNilError(t *testing.T) {
	got := Classify(nil)
	if got.Retryable || got.Reportable {
		t.Errorf("Classify(nil) = %+v, want zero value", got)
	}
}
