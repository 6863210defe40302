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

package lowermac

import (
	"fmt"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

// FrameBits is the length of an aligned burst delivered by the synchronizer.
const FrameBits = 510

// Result is the outcome of lower MAC processing for one burst. Slots is nil
// when the burst was dropped (no cell sync yet, or a decode error). A decode
// error and a BSCH update may accompany emitted slots.
type Result struct {
	BurstType tetra.BurstType
	Slots     *tetra.Slots
	// Sync is the freshly decoded BSCH when the burst was a synchronization
	// burst that passed its CRC. The in-order consumer adopts it as the new
	// cell state; the lower MAC itself never stores it.
	Sync *tetra.BroadcastSynchronizationChannel
	Err  error
}

// LowerMac decodes aligned bursts into logical channel slots. It holds no
// cell state: Process is a pure function of (frame, burst type, cell sync),
// which is what makes the per-burst decode safe to fan out across pool
// workers. The in-order consumer owns the scrambling code and timebase and
// passes a snapshot into every call.
type LowerMac struct {
	codec *ViterbiCodec
}

// New creates a LowerMac.
func New() *LowerMac {
	return &LowerMac{codec: NewViterbiCodec()}
}

// Process runs the layout-specific decode pipeline for one aligned burst
// against the given cell sync. It never mutates bsc; the timebase advance
// for this burst is applied to a local copy, mirroring the authoritative
// advance the consumer performs when it receives the result. A nil bsc
// drops everything but the BSCH decode of a synchronization burst.
func (l *LowerMac) Process(frame []byte, burstType tetra.BurstType, bsc *tetra.BroadcastSynchronizationChannel) Result {
	if len(frame) < FrameBits && burstType.IsDownlink() {
		return Result{BurstType: burstType, Err: fmt.Errorf("downlink frame too short: %d bits", len(frame))}
	}

	result := Result{BurstType: burstType}

	// The timebase advances once per received downlink burst. Uplink
	// processing carries no time handling.
	var current *tetra.BroadcastSynchronizationChannel
	if bsc != nil {
		snapshot := *bsc
		if burstType.IsDownlink() {
			snapshot.Time.Increment()
		}
		current = &snapshot
	}

	if burstType == tetra.SynchronizationBurst {
		sync, err := l.decodeBSCH(frame)
		if err != nil {
			result.Err = err
		} else {
			// The burst's own broadcast block and block 2 are scrambled
			// with the cell identity it announces.
			result.Sync = sync
			current = sync
		}
	}

	// Without a sync there is no scrambling code; the burst is dropped.
	if current == nil {
		return result
	}

	slots, err := l.processChannels(frame, burstType, current)
	if err != nil {
		result.Err = err
		return result
	}
	result.Slots = slots
	return result
}

// decodeBSCH decodes the SB subfield (bits 94..214) of a synchronization
// burst: descramble with the fixed BSCH seed, deinterleave (120,11),
// depuncture, Viterbi decode and CRC check over 76 bits. The first 60
// decoded bits form the BSCH.
func (l *LowerMac) decodeBSCH(frame []byte) (*tetra.BroadcastSynchronizationChannel, error) {
	sbBits := l.codec.Decode(Depuncture23(Deinterleave(Descramble(frame[94:214], tetra.BSCHScramblingSeed), 11)))
	if !CheckCRC16CCITT(sbBits, 76) {
		return nil, fmt.Errorf("BSCH CRC mismatch")
	}
	return tetra.ParseBSCH(bits.New(sbBits[:60]))
}

// decodeAACH decodes a 30-bit broadcast block into the access assignment
// channel.
func (l *LowerMac) decodeAACH(bb []byte, burstType tetra.BurstType, bsc *tetra.BroadcastSynchronizationChannel) (tetra.AccessAssignmentChannel, error) {
	rm := ReedMuller3014Decode(Descramble(bb, bsc.ScramblingCode))
	return tetra.ParseAACH(burstType, bsc.Time, bits.New(rm))
}

// halfSlotSignalling decodes a 216-bit block into the 124 bits of a half
// signalling slot with its CRC verdict (CRC over 140 bits).
func (l *LowerMac) halfSlotSignalling(block []byte, bsc *tetra.BroadcastSynchronizationChannel, channel tetra.LogicalChannel) tetra.LogicalChannelDataAndCrc {
	decoded := l.codec.Decode(Depuncture23(Deinterleave(Descramble(block, bsc.ScramblingCode), 101)))
	return tetra.LogicalChannelDataAndCrc{
		Channel: channel,
		Data:    bits.New(decoded[:124]),
		CrcOK:   CheckCRC16CCITT(decoded, 140),
	}
}

// concat assembles a contiguous block from two slices of the frame.
func concat(frame []byte, aFrom, aTo, bFrom, bTo int) []byte {
	out := make([]byte, 0, (aTo-aFrom)+(bTo-bFrom))
	out = append(out, frame[aFrom:aTo]...)
	out = append(out, frame[bFrom:bTo]...)
	return out
}

func (l *LowerMac) processChannels(frame []byte, burstType tetra.BurstType, bsc *tetra.BroadcastSynchronizationChannel) (*tetra.Slots, error) {
	switch burstType {
	case tetra.SynchronizationBurst:
		// The broadcast block carries the AACH; decoded for its side effects
		// on the downlink usage even though the SB block 2 is always
		// signalling.
		if _, err := l.decodeAACH(frame[252:282], burstType, bsc); err != nil {
			return nil, err
		}

		return tetra.NewSlots(burstType, tetra.OneSubslot,
			tetra.NewSlot(l.halfSlotSignalling(frame[282:498], bsc, tetra.SignallingChannelHalfDownlink)))

	case tetra.NormalDownlinkBurst:
		aach, err := l.decodeAACH(concat(frame, 230, 244, 266, 282), burstType, bsc)
		if err != nil {
			return nil, err
		}

		block := concat(frame, 14, 230, 282, 498)
		descrambled := Descramble(block, bsc.ScramblingCode)

		if aach.DownlinkUsage == tetra.Traffic {
			// Full slot traffic carries type-4 bits: descrambled only.
			return tetra.NewSlots(burstType, tetra.FullSlot, tetra.NewSlot(tetra.LogicalChannelDataAndCrc{
				Channel: tetra.TrafficChannel,
				Data:    bits.New(descrambled),
				CrcOK:   true,
			}))
		}

		decoded := l.codec.Decode(Depuncture23(Deinterleave(descrambled, 103)))
		return tetra.NewSlots(burstType, tetra.FullSlot, tetra.NewSlot(tetra.LogicalChannelDataAndCrc{
			Channel: tetra.SignallingChannelFull,
			Data:    bits.New(decoded[:268]),
			CrcOK:   CheckCRC16CCITT(decoded, 284),
		}))

	case tetra.NormalDownlinkBurstSplit:
		aach, err := l.decodeAACH(concat(frame, 230, 244, 266, 282), burstType, bsc)
		if err != nil {
			return nil, err
		}

		if aach.DownlinkUsage == tetra.Traffic {
			// First subslot is stolen; the second is stealing or traffic
			// depending on the first subslot's PDU (resolved by NewSlots).
			first := tetra.NewSlot(l.halfSlotSignalling(frame[14:230], bsc, tetra.StealingChannel))

			bkn2Deinterleaved := Deinterleave(Descramble(frame[282:498], bsc.ScramblingCode), 101)
			bkn2Decoded := l.codec.Decode(Depuncture23(bkn2Deinterleaved))
			second, err := tetra.NewAmbiguousSlot([]tetra.LogicalChannelDataAndCrc{
				{
					Channel: tetra.StealingChannel,
					Data:    bits.New(bkn2Decoded[:124]),
					CrcOK:   CheckCRC16CCITT(bkn2Decoded, 140),
				},
				{
					// Half slot traffic carries type-3 bits: deinterleaved.
					Channel: tetra.TrafficChannel,
					Data:    bits.New(bkn2Deinterleaved),
					CrcOK:   true,
				},
			})
			if err != nil {
				return nil, err
			}
			return tetra.NewSlotsTwoSubslots(burstType, tetra.TwoSubslots, first, second)
		}

		return tetra.NewSlotsTwoSubslots(burstType, tetra.TwoSubslots,
			tetra.NewSlot(l.halfSlotSignalling(frame[14:230], bsc, tetra.SignallingChannelHalfDownlink)),
			tetra.NewSlot(l.halfSlotSignalling(frame[282:498], bsc, tetra.SignallingChannelHalfDownlink)))

	case tetra.ControlUplinkBurst:
		block := concat(frame, 4, 88, 118, 202)
		decoded := l.codec.Decode(Depuncture23(Deinterleave(Descramble(block, bsc.ScramblingCode), 13)))
		return tetra.NewSlots(burstType, tetra.OneSubslot, tetra.NewSlot(tetra.LogicalChannelDataAndCrc{
			Channel: tetra.SignallingChannelHalfUplink,
			Data:    bits.New(decoded[:92]),
			CrcOK:   CheckCRC16CCITT(decoded, 108),
		}))

	case tetra.NormalUplinkBurst:
		block := concat(frame, 4, 220, 242, 458)
		descrambled := Descramble(block, bsc.ScramblingCode)
		decoded := l.codec.Decode(Depuncture23(Deinterleave(descrambled, 103)))

		// Without the downlink access assignment the slot could be either
		// full signalling or traffic; NewSlots resolves to signalling.
		slot, err := tetra.NewAmbiguousSlot([]tetra.LogicalChannelDataAndCrc{
			{
				Channel: tetra.SignallingChannelFull,
				Data:    bits.New(decoded[:268]),
				CrcOK:   CheckCRC16CCITT(decoded, 284),
			},
			{
				Channel: tetra.TrafficChannel,
				Data:    bits.New(descrambled),
				CrcOK:   true,
			},
		})
		if err != nil {
			return nil, err
		}
		return tetra.NewSlots(burstType, tetra.FullSlot, slot)

	case tetra.NormalUplinkBurstSplit:
		first := tetra.NewSlot(l.halfSlotSignalling(frame[4:220], bsc, tetra.StealingChannel))

		bkn2Deinterleaved := Deinterleave(Descramble(frame[242:458], bsc.ScramblingCode), 101)
		bkn2Decoded := l.codec.Decode(Depuncture23(bkn2Deinterleaved))
		second, err := tetra.NewAmbiguousSlot([]tetra.LogicalChannelDataAndCrc{
			{
				Channel: tetra.StealingChannel,
				Data:    bits.New(bkn2Decoded[:124]),
				CrcOK:   CheckCRC16CCITT(bkn2Decoded, 140),
			},
			{
				Channel: tetra.TrafficChannel,
				Data:    bits.New(bkn2Deinterleaved),
				CrcOK:   true,
			},
		})
		if err != nil {
			return nil, err
		}
		return tetra.NewSlotsTwoSubslots(burstType, tetra.TwoSubslots, first, second)
	}

	return nil, fmt.Errorf("unsupported burst type %s", burstType)
}
