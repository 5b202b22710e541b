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

package events

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Registry maps a Kind to the Go type its Data payload decodes into,
// the "registry of event kinds" spec.md §9 names for cross-process
// fan-out: "the same event shape is serialized to the queue's ghost
// topic and deserialized by a registry of event kinds."
type Registry struct {
	types map[Kind]reflect.Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[Kind]reflect.Type)}
}

// Register associates kind with the concrete (non-pointer) type of
// zero, e.g. r.Register(KindPostCreated, PostCreatedData{}).
func (r *Registry) Register(kind Kind, zero interface{}) {
	r.types[kind] = reflect.TypeOf(zero)
}

// wireEvent is the JSON form an Event takes on the queue.
type wireEvent struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes e for the queue's internal fan-out topic.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Kind: e.Kind, Data: data})
}

// Decode reconstructs an Event using the type r.Register'd for the
// wire kind, so consumers (a scaled-out feed-engine worker) get a
// concretely typed Data field rather than a map[string]interface{}.
func (r *Registry) Decode(b []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return Event{}, err
	}
	t, ok := r.types[w.Kind]
	if !ok {
		return Event{}, fmt.Errorf("events: no type registered for kind %q", w.Kind)
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(w.Data, ptr.Interface()); err != nil {
		return Event{}, err
	}
	return Event{Kind: w.Kind, Data: ptr.Elem().Interface()}, nil
}
