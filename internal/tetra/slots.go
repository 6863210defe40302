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
	"errors"
	"fmt"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
)

// ErrNotConcrete indicates a slot still carries more than one candidate
// logical channel after construction.
var ErrNotConcrete = errors.New("slot is not concrete")

// LogicalChannelDataAndCrc is one decoded candidate for a slot: the logical
// channel, its bits and the CRC verdict. Traffic channels carry pre-CRC bits
// with CrcOK forced to true.
type LogicalChannelDataAndCrc struct {
	Channel LogicalChannel
	Data    *bits.BitVector
	CrcOK   bool
}

// Slot is a non-empty list of candidate logical channels for one (sub)slot.
// It is concrete iff exactly one candidate remains.
type Slot struct {
	candidates []LogicalChannelDataAndCrc
}

// NewSlot constructs a concrete slot.
func NewSlot(data LogicalChannelDataAndCrc) Slot {
	return Slot{candidates: []LogicalChannelDataAndCrc{data}}
}

// NewAmbiguousSlot constructs a slot with multiple candidate channels. The
// channels must be distinct.
func NewAmbiguousSlot(candidates []LogicalChannelDataAndCrc) (Slot, error) {
	seen := map[LogicalChannel]bool{}
	for _, c := range candidates {
		if seen[c.Channel] {
			return Slot{}, fmt.Errorf("duplicate candidate channel %s", c.Channel)
		}
		seen[c.Channel] = true
	}
	return Slot{candidates: candidates}, nil
}

// IsConcrete reports whether exactly one candidate channel remains.
func (s *Slot) IsConcrete() bool {
	return len(s.candidates) == 1
}

// Data returns the concrete candidate.
func (s *Slot) Data() (LogicalChannelDataAndCrc, error) {
	if !s.IsConcrete() {
		return LogicalChannelDataAndCrc{}, ErrNotConcrete
	}
	return s.candidates[0], nil
}

// SelectChannel drops every candidate except the given channel.
func (s *Slot) SelectChannel(channel LogicalChannel) error {
	kept := s.candidates[:0]
	for _, c := range s.candidates {
		if c.Channel == channel {
			kept = append(kept, c)
		}
	}
	s.candidates = kept
	if !s.IsConcrete() {
		return fmt.Errorf("select %s: %w", channel, ErrNotConcrete)
	}
	return nil
}

// SlotsType describes the subslot structure of a burst.
type SlotsType int

const (
	OneSubslot SlotsType = iota
	TwoSubslots
	FullSlot
)

func (t SlotsType) String() string {
	switch t {
	case OneSubslot:
		return "OneSubslot"
	case TwoSubslots:
		return "TwoSubslots"
	case FullSlot:
		return "FullSlot"
	}
	return "unknown"
}

// Slots groups the one or two slots decoded from a burst. All slots are
// concrete after construction; the constructors resolve the ambiguous cases
// from the burst type context.
type Slots struct {
	burstType BurstType
	slotsType SlotsType
	slots     []Slot
}

// NewSlots constructs a one-subslot or full-slot container. For a normal
// uplink burst the signalling/traffic ambiguity is resolved towards full
// signalling: without the access assignment of the corresponding downlink
// slot there is no ground truth, and signalling decodes are self-checking
// through their CRC.
func NewSlots(burstType BurstType, slotsType SlotsType, slot Slot) (*Slots, error) {
	if slotsType == TwoSubslots {
		return nil, errors.New("two subslots requires two slots")
	}
	s := &Slots{burstType: burstType, slotsType: slotsType, slots: []Slot{slot}}

	if burstType == NormalUplinkBurst {
		if err := s.slots[0].SelectChannel(SignallingChannelFull); err != nil {
			return nil, err
		}
	}
	if !s.slots[0].IsConcrete() {
		return nil, ErrNotConcrete
	}
	return s, nil
}

// NewSlotsTwoSubslots constructs a two-subslot container. When the first
// subslot is stolen, the second is stealing iff the first subslot's
// MAC-RESOURCE/MAC-DATA length indication is 0b111110 or 0b111111, or the
// MAC-U-SIGNAL "second slot stolen" flag is set; otherwise it is traffic.
func NewSlotsTwoSubslots(burstType BurstType, slotsType SlotsType, first, second Slot) (*Slots, error) {
	if slotsType != TwoSubslots {
		return nil, errors.New("only two subslots may carry two slots")
	}
	s := &Slots{burstType: burstType, slotsType: slotsType, slots: []Slot{first, second}}

	firstData, err := s.slots[0].Data()
	if err != nil {
		return nil, fmt.Errorf("first subslot: %w", err)
	}

	if firstData.Channel == StealingChannel {
		secondStolen := false
		pduType := firstData.Data.Look(2, 0)

		switch burstType {
		case NormalUplinkBurstSplit:
			// Stolen flag from MAC-DATA, 21.4.2.3.
			if pduType == 0b00 {
				addressType := firstData.Data.Look(2, 4)
				lengthOffset := 6 + 24
				if addressType == 0b01 {
					lengthOffset = 6 + 10
				}
				if firstData.Data.Look(1, lengthOffset) == 0b0 {
					lengthIndication := firstData.Data.Look(6, lengthOffset+1)
					if lengthIndication == 0b111110 || lengthIndication == 0b111111 {
						secondStolen = true
					}
				}
			}
		case NormalDownlinkBurstSplit:
			// Stolen flag from MAC-RESOURCE, 21.4.3.1.
			if pduType == 0b00 {
				lengthIndication := firstData.Data.Look(6, 7)
				if lengthIndication == 0b111110 || lengthIndication == 0b111111 {
					secondStolen = true
				}
			}
		}

		// Stolen flag from MAC-U-SIGNAL, 21.4.5.
		if pduType == 0b11 && firstData.Data.Look(1, 2) == 0b1 {
			secondStolen = true
		}
		if err := firstData.Data.Err(); err != nil {
			return nil, err
		}

		target := TrafficChannel
		if secondStolen {
			target = StealingChannel
		}
		if err := s.slots[1].SelectChannel(target); err != nil {
			return nil, err
		}
	}

	if !s.slots[1].IsConcrete() {
		return nil, fmt.Errorf("second subslot: %w", ErrNotConcrete)
	}
	return s, nil
}

// BurstType returns the burst the slots were decoded from.
func (s *Slots) BurstType() BurstType {
	return s.burstType
}

// SlotsType returns the subslot structure.
func (s *Slots) SlotsType() SlotsType {
	return s.slotsType
}

// Concrete returns the concrete data of every slot, first subslot first.
func (s *Slots) Concrete() []LogicalChannelDataAndCrc {
	out := make([]LogicalChannelDataAndCrc, 0, len(s.slots))
	for i := range s.slots {
		if data, err := s.slots[i].Data(); err == nil {
			out = append(out, data)
		}
	}
	return out
}

// HasCrcError reports whether any signalling or stealing slot failed its CRC.
func (s *Slots) HasCrcError() bool {
	for _, data := range s.Concrete() {
		if data.Channel != TrafficChannel && !data.CrcOK {
			return true
		}
	}
	return false
}
