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

package queue

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/tryghost/activitypub/internal/util"
)

// wmLogger bridges watermill.LoggerAdapter onto this repo's
// google/logger-backed InfoLogger/ErrorLogger, grounded on
// trustbloc-orb's wmlogger.New() (an equivalent bridge from their own
// logger to watermill's interface).
type wmLogger struct {
	fields watermill.LogFields
}

func (l wmLogger) Error(msg string, err error, fields watermill.LogFields) {
	util.ErrorLogger.Errorf("queue: %s: %v %v", msg, err, l.merge(fields))
}

func (l wmLogger) Info(msg string, fields watermill.LogFields) {
	util.InfoLogger.Infof("queue: %s %v", msg, l.merge(fields))
}

func (l wmLogger) Debug(msg string, fields watermill.LogFields) {
	util.InfoLogger.Infof("queue: %s %v", msg, l.merge(fields))
}

func (l wmLogger) Trace(msg string, fields watermill.LogFields) {}

func (l wmLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return wmLogger{fields: l.merge(fields)}
}

func (l wmLogger) merge(fields watermill.LogFields) watermill.LogFields {
	if len(l.fields) == 0 {
		return fields
	}
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}
