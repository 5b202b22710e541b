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
	"testing"
)

func TestSanitizeStripsScripts(t *testing.T) {
	s := NewBluemondayUGCSanitizer()
	out := s.Sanitize(`<p>hello</p><script>alert(1)</script>`)
	if strings.Contains(out, "script") {
		t.Errorf("Sanitize left a script tag in: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("Sanitize dropped safe content: %q", out)
	}
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	s := NewBluemondayUGCSanitizer()
	out := s.Excerpt("<p>the quick brown fox jumps over the lazy dog</p>", 15)
	if !strings.HasSuffix(out, "…") {
		t.Errorf("expected truncated excerpt to end with an ellipsis, got %q", out)
	}
	if strings.Contains(out, "<p>") {
		t.Errorf("excerpt should be tag-free, got %q", out)
	}
}

func TestExcerptReturnsWholeStringWhenShort(t *testing.T) {
	s := NewBluemondayUGCSanitizer()
	out := s.Excerpt("<p>short</p>", 50)
	if out != "short" {
		t.Errorf("Excerpt = %q, want %q", out, "short")
	}
}
