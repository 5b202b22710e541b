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
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// unmarshal decodes a JSONB column's driver value into v, grounded on
// serialization.go's unmarshal helper.
func unmarshal(src interface{}, v interface{}) error {
	var b []byte
	switch t := src.(type) {
	case []byte:
		b = t
	case string:
		b = []byte(t)
	case nil:
		return nil
	default:
		return fmt.Errorf("models: unsupported scan source type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// Attachment is an ordered post attachment (spec.md §3).
type Attachment struct {
	Type      string `json:"type"`
	MediaType string `json:"mediaType"`
	Name      string `json:"name"`
	URL       string `json:"url"`
}

// Attachments is the JSONB-backed ordered attachment list.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(Attachments{})
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src interface{}) error {
	return unmarshal(src, a)
}

// MentionSet is the JSONB-backed set of account IRIs mentioned in a post.
type MentionSet []string

func (m MentionSet) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(MentionSet{})
	}
	return json.Marshal(m)
}

func (m *MentionSet) Scan(src interface{}) error {
	return unmarshal(src, m)
}

// Metadata is free-form app-specific JSONB payload attached to a post.
type Metadata json.RawMessage

func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return []byte(m), nil
}

func (m *Metadata) Scan(src interface{}) error {
	switch t := src.(type) {
	case []byte:
		*m = append([]byte(nil), t...)
	case string:
		*m = Metadata(t)
	case nil:
		*m = nil
	default:
		return fmt.Errorf("models: unsupported Metadata scan source %T", src)
	}
	return nil
}
