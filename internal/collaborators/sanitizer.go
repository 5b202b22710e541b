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

package collaborators

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// BluemondayUGCSanitizer is the default HTMLSanitizer, a thin wrapper
// over the teacher's own `github.com/microcosm-cc/bluemonday`
// dependency (present in go-fed-apcore's go.mod for its web UI
// templates; reused here for the same job the sanitizer collaborator
// needs: user-generated post content, both received from remote
// actors and rendered back out over federation).
type BluemondayUGCSanitizer struct {
	policy *bluemonday.Policy
}

func NewBluemondayUGCSanitizer() *BluemondayUGCSanitizer {
	return &BluemondayUGCSanitizer{policy: bluemonday.UGCPolicy()}
}

func (s *BluemondayUGCSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// Excerpt strips tags via the same policy and truncates on a word
// boundary at maxLen runes, appending an ellipsis if truncated.
func (s *BluemondayUGCSanitizer) Excerpt(html string, maxLen int) string {
	text := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(html))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
