// Copyright (c) 2026 The Rip Rip Hooray! Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of riprip.
//
// riprip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// riprip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with riprip.  If not, see <https://www.gnu.org/licenses/>.

package bundle

import "fmt"

// FormatError indicates an unsupported bundle archive extension.
type FormatError struct {
	Format string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("unsupported bundle format: %s", e.Format)
}

// EntryNotFoundError indicates no entry in the bundle matched the lookup.
type EntryNotFoundError struct {
	Needle string
}

func (e EntryNotFoundError) Error() string {
	return fmt.Sprintf("no bundle entry matching %q", e.Needle)
}
