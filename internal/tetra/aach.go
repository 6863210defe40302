// SPDX-License-Identifier: AGPL-3.0-or-later
// TETRAHub - Decode TETRA downlink and uplink traffic in a single binary
// Copyright (C) 2024-2026 Jacob McSwain
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
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/TETRAHub>

package tetra

import (
	"fmt"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
)

// DownlinkUsage is the slot allocation announced by the AACH.
type DownlinkUsage int

const (
	CommonControl DownlinkUsage = iota
	Unallocated
	AssignedControl
	CommonAndAssignedControl
	Traffic
)

func (u DownlinkUsage) String() string {
	switch u {
	case CommonControl:
		return "CommonControl"
	case Unallocated:
		return "Unallocated"
	case AssignedControl:
		return "AssignedControl"
	case CommonAndAssignedControl:
		return "CommonAndAssignedControl"
	case Traffic:
		return "Traffic"
	}
	return "unknown"
}

// AccessAssignmentChannel is the 14-bit Reed-Muller protected control word
// present in every downlink burst.
type AccessAssignmentChannel struct {
	DownlinkUsage              DownlinkUsage
	DownlinkTrafficUsageMarker int
}

// ParseAACH decodes the 14-bit AACH word. During frame 18 the downlink is
// always common control regardless of the header.
func ParseAACH(burstType BurstType, time TimebaseCounter, data *bits.BitVector) (AccessAssignmentChannel, error) {
	var aach AccessAssignmentChannel

	if !burstType.IsDownlink() {
		return aach, fmt.Errorf("AACH is only present on downlink bursts, got %s", burstType)
	}

	header := data.Take(2)
	field1 := data.Take(6)
	_ = data.Take(6)
	if err := data.Err(); err != nil {
		return aach, err
	}

	if time.FrameNumber == 18 {
		aach.DownlinkUsage = CommonControl
		return aach, nil
	}
	if header == 0b00 {
		aach.DownlinkUsage = CommonControl
		return aach, nil
	}
	switch field1 {
	case 0b000000:
		aach.DownlinkUsage = Unallocated
	case 0b000001:
		aach.DownlinkUsage = AssignedControl
	case 0b000010:
		aach.DownlinkUsage = CommonControl
	case 0b000011:
		aach.DownlinkUsage = CommonAndAssignedControl
	default:
		aach.DownlinkUsage = Traffic
		aach.DownlinkTrafficUsageMarker = int(field1)
	}
	return aach, nil
}
