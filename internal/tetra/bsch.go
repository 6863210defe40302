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

// BSCHScramblingSeed is the fixed scrambling code of the broadcast
// synchronization channel itself, 8.2.5.2.
const BSCHScramblingSeed uint32 = 0x0003

// BroadcastSynchronizationChannel carries the cell identity decoded from the
// SB subfield of a synchronization burst. One instance lives per cell lock;
// it is replaced on resync.
type BroadcastSynchronizationChannel struct {
	SystemCode             uint8
	ColorCode              uint32
	Time                   TimebaseCounter
	SharingMode            uint8
	TimeSlotReservedFrames uint8
	UpLaneDTX              uint8
	Frame18Extension       uint8

	// ScramblingCode descrambles every subsequent burst from this cell.
	ScramblingCode uint32

	MobileCountryCode      uint32
	MobileNetworkCode      uint32
	NeighbourCellBroadcast uint8
	NeighbourCellEnquiry   uint8
	CellLoadCA             uint8
	LateEntrySupported     uint8
}

// UplinkOnly returns a synthetic channel state carrying an injected uplink
// scrambling code, for decoupled uplink-only decoding without a BSCH.
func UplinkOnly(scramblingCode uint32) *BroadcastSynchronizationChannel {
	return &BroadcastSynchronizationChannel{ScramblingCode: scramblingCode}
}

// ParseBSCH decodes the first 60 bits of a CRC-verified SB block.
func ParseBSCH(data *bits.BitVector) (*BroadcastSynchronizationChannel, error) {
	if data.BitsLeft() != 60 {
		return nil, fmt.Errorf("BSCH must be 60 bits, got %d", data.BitsLeft())
	}

	bsc := &BroadcastSynchronizationChannel{}
	bsc.SystemCode = uint8(data.Take(4))
	bsc.ColorCode = uint32(data.Take(6))
	timeSlot := uint16(data.Take(2)) + 1
	frameNumber := uint16(data.Take(5))
	multiFrameNumber := uint16(data.Take(6))
	bsc.Time = NewTimebaseCounter(timeSlot, frameNumber, multiFrameNumber)
	bsc.SharingMode = uint8(data.Take(2))
	bsc.TimeSlotReservedFrames = uint8(data.Take(3))
	bsc.UpLaneDTX = uint8(data.Take(1))
	bsc.Frame18Extension = uint8(data.Take(1))
	_ = data.Take(1) // reserved

	bsc.MobileCountryCode = uint32(data.Take(10))
	bsc.MobileNetworkCode = uint32(data.Take(14))
	bsc.NeighbourCellBroadcast = uint8(data.Take(1))
	bsc.NeighbourCellEnquiry = uint8(data.Take(1))
	bsc.CellLoadCA = uint8(data.Take(2))
	bsc.LateEntrySupported = uint8(data.Take(1))
	if err := data.Err(); err != nil {
		return nil, err
	}

	// 30 MSB from color code, MNC and MCC, then the two LSB initialized to
	// ones, 8.2.5.2 (54).
	code := (bsc.ColorCode & 0x003f) | (bsc.MobileNetworkCode&0x3fff)<<6 | (bsc.MobileCountryCode&0x03ff)<<20
	bsc.ScramblingCode = code<<2 | 0x0003

	return bsc, nil
}

func (b *BroadcastSynchronizationChannel) String() string {
	return fmt.Sprintf("BSCH system=%#b color=%d %s scrambling=0x%08X mcc=%d mnc=%d",
		b.SystemCode, b.ColorCode, b.Time, b.ScramblingCode, b.MobileCountryCode, b.MobileNetworkCode)
}
