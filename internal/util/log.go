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
	"io"
	"os"

	"github.com/google/logger"
)

var (
	// InfoLogger and ErrorLogger are process-wide loggers. They log to
	// os.Stdout/os.Stderr until reconfigured by LogInfoTo/LogErrorTo.
	InfoLogger  *logger.Logger = logger.Init("ghostfed", false, false, os.Stdout)
	ErrorLogger *logger.Logger = logger.Init("ghostfed", false, false, os.Stderr)
)

func LogInfoTo(system bool, w io.Writer) {
	closeAndLogTo(&InfoLogger, system, w)
}

func LogErrorTo(system bool, w io.Writer) {
	closeAndLogTo(&ErrorLogger, system, w)
}

func closeAndLogTo(l **logger.Logger, system bool, w io.Writer) {
	(*l).Close()
	*l = logger.Init("ghostfed", false, system, w)
}
