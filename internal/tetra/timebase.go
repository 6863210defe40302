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

import "fmt"

// TimebaseCounter is the (time slot, frame, multiframe) triple carried by the
// BSCH and advanced once per received downlink burst. Components are 1-based;
// overflow of any component rolls it to 1 and advances the next.
type TimebaseCounter struct {
	TimeSlot         uint16
	FrameNumber      uint16
	MultiFrameNumber uint16
}

// NewTimebaseCounter returns a counter at the given position.
func NewTimebaseCounter(timeSlot, frameNumber, multiFrameNumber uint16) TimebaseCounter {
	return TimebaseCounter{TimeSlot: timeSlot, FrameNumber: frameNumber, MultiFrameNumber: multiFrameNumber}
}

// Count collapses the triple into a single scalar burst count.
func (t TimebaseCounter) Count() uint {
	return uint(t.TimeSlot-1) + 4*uint(t.FrameNumber-1) + 4*18*uint(t.MultiFrameNumber-1)
}

// Increment advances the counter by one time slot.
func (t *TimebaseCounter) Increment() {
	t.TimeSlot++
	if t.TimeSlot > 4 {
		t.FrameNumber++
		t.TimeSlot = 1
	}
	if t.FrameNumber > 18 {
		t.MultiFrameNumber++
		t.FrameNumber = 1
	}
	if t.MultiFrameNumber > 60 {
		t.MultiFrameNumber = 1
	}
}

func (t TimebaseCounter) String() string {
	return fmt.Sprintf("TN/FN/MN: %d/%d/%d", t.TimeSlot, t.FrameNumber, t.MultiFrameNumber)
}
