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

package uppermac

import (
	"errors"
	"fmt"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

var (
	// ErrLengthIndicationOverflow indicates a declared TM-SDU length that
	// exceeds the available bits by 8 or more: corruption rather than octet
	// alignment.
	ErrLengthIndicationOverflow = errors.New("length indication exceeds available bits by 8 or more")
	// ErrBroadcastOnUplink indicates a broadcast PDU on an uplink burst.
	ErrBroadcastOnUplink = errors.New("broadcast may only be sent on downlink")
)

// Packets is the bundle of MAC PDUs decoded from one burst's slots.
type Packets struct {
	CPlaneSignalling []CPlaneSignallingPacket
	UPlaneSignalling []UPlaneSignallingPacket
	UPlaneTraffic    *UPlaneTrafficPacket
	Broadcast        *BroadcastPacket
}

// Merge concatenates the signalling vectors and adopts the traffic and
// broadcast packets, which must be unique across a merge.
func (p *Packets) Merge(other Packets) error {
	p.CPlaneSignalling = append(p.CPlaneSignalling, other.CPlaneSignalling...)
	p.UPlaneSignalling = append(p.UPlaneSignalling, other.UPlaneSignalling...)
	if other.UPlaneTraffic != nil {
		if p.UPlaneTraffic != nil {
			return errors.New("merging two packet bundles that both carry traffic")
		}
		p.UPlaneTraffic = other.UPlaneTraffic
	}
	if other.Broadcast != nil {
		if p.Broadcast != nil {
			return errors.New("merging two packet bundles that both carry a broadcast")
		}
		p.Broadcast = other.Broadcast
	}
	return nil
}

// ParseSlots decodes every concrete slot of a burst into MAC PDUs.
func ParseSlots(slots *tetra.Slots) (Packets, error) {
	var packets Packets
	for _, slot := range slots.Concrete() {
		parsed, err := ParseLogicalChannel(slots.BurstType(), slot)
		if err != nil {
			return packets, err
		}
		if err := packets.Merge(parsed); err != nil {
			return packets, err
		}
	}
	return packets, nil
}

// ParseLogicalChannel decodes one logical channel block. Traffic passes
// through untouched; signalling with a failed CRC yields an empty bundle.
func ParseLogicalChannel(burstType tetra.BurstType, slot tetra.LogicalChannelDataAndCrc) (Packets, error) {
	data := slot.Data.Copy()

	if slot.Channel == tetra.TrafficChannel {
		return Packets{UPlaneTraffic: &UPlaneTrafficPacket{LogicalChannel: slot.Channel, Data: data}}, nil
	}

	// Corrupt signalling is not parsed.
	if !slot.CrcOK {
		return Packets{}, nil
	}

	pduType := data.Look(2, 0)
	if err := data.Err(); err != nil {
		return Packets{}, err
	}

	// See "Table 21.38: MAC PDU types for SCH/F, SCH/HD, STCH, ..." for how
	// u-plane signalling is distinguished on the stealing channel.
	if slot.Channel == tetra.StealingChannel && pduType == 0b11 {
		packet, err := parseUPlaneSignalling(slot.Channel, data)
		if err != nil {
			return Packets{}, err
		}
		return Packets{UPlaneSignalling: []UPlaneSignallingPacket{packet}}, nil
	}

	if slot.Channel != tetra.StealingChannel && pduType == 0b10 {
		// TMB-SAP broadcast
		if !burstType.IsDownlink() {
			return Packets{}, ErrBroadcastOnUplink
		}
		packet, err := parseBroadcast(slot.Channel, data)
		if err != nil {
			return Packets{}, err
		}
		return Packets{Broadcast: packet}, nil
	}

	cPlane, err := parseCPlaneSignalling(burstType, slot.Channel, data)
	if err != nil {
		return Packets{}, err
	}
	return Packets{CPlaneSignalling: cPlane}, nil
}

// parseCPlaneSignalling decodes PDUs from the block one at a time until the
// remaining bits cannot hold another PDU (23.4.3.3: 16 bits on the downlink,
// 36 for an uplink subslot, 37 for an uplink full slot or STCH), stopping
// early on MAC padding or a null PDU.
func parseCPlaneSignalling(burstType tetra.BurstType, channel tetra.LogicalChannel, data *bits.BitVector) ([]CPlaneSignallingPacket, error) {
	var minBitCount int
	if burstType.IsDownlink() {
		minBitCount = 16
	} else {
		switch channel {
		case tetra.SignallingChannelHalfUplink:
			minBitCount = 36
		case tetra.SignallingChannelFull, tetra.StealingChannel:
			minBitCount = 37
		}
	}

	var packets []CPlaneSignallingPacket
	for data.BitsLeft() >= minBitCount {
		if data.IsMacPadding() {
			break
		}
		packet, err := parseCPlaneSignallingPacket(burstType, channel, data)
		if err != nil {
			return packets, err
		}
		packets = append(packets, packet)

		// The null PDU is always the last PDU in a block.
		if packet.IsNullPDU() {
			break
		}
	}
	return packets, nil
}

// tmSDUBits computes the TM-SDU length from a declared PDU length and the
// consumed MAC header. With fill bits present the declared length may
// overshoot the block by up to 7 bits of octet alignment; more is treated as
// corruption.
func tmSDUBits(data *bits.BitVector, declaredBits, macHeaderBits int, fillBits bool) (int, error) {
	bitsLeft := declaredBits - macHeaderBits
	if fillBits && bitsLeft > data.BitsLeft() {
		if bitsLeft-data.BitsLeft() >= 8 {
			return 0, ErrLengthIndicationOverflow
		}
		bitsLeft = data.BitsLeft()
	}
	if bitsLeft < 0 || bitsLeft > data.BitsLeft() {
		return 0, bits.ErrShortRead
	}
	return bitsLeft, nil
}

//nolint:gocyclo // one arm per MAC PDU layout, mirroring clause 21
func parseCPlaneSignallingPacket(burstType tetra.BurstType, channel tetra.LogicalChannel, data *bits.BitVector) (CPlaneSignallingPacket, error) {
	preprocessingBitCount := data.BitsLeft()

	if channel == tetra.SignallingChannelHalfUplink {
		if burstType.IsDownlink() {
			return CPlaneSignallingPacket{}, errors.New("SCH/HU may only appear on uplink")
		}

		pduType := data.Take(1)
		fillBitIndication := data.Take(1)

		if pduType == 0b0 {
			return parseMacAccess(channel, data, preprocessingBitCount, fillBitIndication)
		}
		return parseMacEndHu(channel, data, preprocessingBitCount, fillBitIndication)
	}

	pduType := data.Take(2)

	if burstType.IsUplink() {
		// SCH/F and STCH of the uplink
		switch pduType {
		case 0b00:
			return parseMacData(channel, data, preprocessingBitCount)
		case 0b01:
			if data.Take(1) == 0b0 {
				return parseMacFragment(channel, data, MacFragmentUplink)
			}
			return parseMacEndUplink(channel, data, preprocessingBitCount)
		case 0b10:
			return CPlaneSignallingPacket{}, errors.New("broadcast PDU in c-plane parser")
		default:
			// Supplementary MAC PDU
			if data.Take(1) == 0b1 {
				return CPlaneSignallingPacket{}, errors.New("supplementary MAC PDU subtype 0b1 is reserved")
			}
			if channel != tetra.SignallingChannelFull {
				return CPlaneSignallingPacket{}, errors.New("MAC-U-BLCK may only be sent on SCH/F")
			}
			return parseMacUBlck(channel, data)
		}
	}

	// SCH/F, SCH/HD and STCH of the downlink
	switch pduType {
	case 0b00:
		return parseMacResource(channel, data, preprocessingBitCount)
	case 0b01:
		if data.Take(1) == 0b0 {
			return parseMacFragment(channel, data, MacFragmentDownlink)
		}
		return parseMacEndDownlink(channel, data, preprocessingBitCount)
	case 0b10:
		return CPlaneSignallingPacket{}, errors.New("broadcast PDU in c-plane parser")
	default:
		// Supplementary MAC PDU
		if data.Take(1) == 0b1 {
			return CPlaneSignallingPacket{}, errors.New("supplementary MAC PDU subtype 0b1 is reserved")
		}
		if channel != tetra.SignallingChannelFull {
			return CPlaneSignallingPacket{}, errors.New("MAC-D-BLCK may only be sent on SCH/F")
		}
		return parseMacDBlck(channel, data)
	}
}

// parseMacAccess decodes MAC-ACCESS, 21.4.2.1.
func parseMacAccess(channel tetra.LogicalChannel, data *bits.BitVector, preprocessingBitCount int, fillBitIndication uint64) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacAccess}

	packet.Encrypted = data.Take(1) == 1
	packet.Address = tetra.AddressFromMacAccess(data)

	var lengthIndication *uint64
	if data.Take(1) == 0b1 {
		if data.Take(1) == 0b0 {
			li := data.Take(5)
			lengthIndication = &li
		} else {
			packet.Fragmentation = data.Take(1) == 1
			rr := uint8(data.Take(4))
			packet.ReservationRequirement = &rr
		}
	}

	macHeaderLength := preprocessingBitCount - data.BitsLeft()
	if fillBitIndication == 0b1 {
		data.RemoveFillBits()
	}

	bitsLeft := data.BitsLeft()
	if lengthIndication != nil {
		if *lengthIndication == 0b00000 {
			bitsLeft = 0
		} else {
			var err error
			bitsLeft, err = tmSDUBits(data, lengthFromMacAccess(*lengthIndication), macHeaderLength, fillBitIndication == 0b1)
			if err != nil {
				return packet, err
			}
		}
	}

	if bitsLeft != 0 {
		packet.TMSDU = data.TakeVector(bitsLeft)
	}
	return packet, data.Err()
}

// parseMacEndHu decodes MAC-END-HU, 21.4.2.2.
func parseMacEndHu(channel tetra.LogicalChannel, data *bits.BitVector, preprocessingBitCount int, fillBitIndication uint64) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacEndHu}

	var lengthIndication *uint64
	if data.Take(1) == 0b0 {
		li := data.Take(4)
		lengthIndication = &li
	} else {
		rr := uint8(data.Take(4))
		packet.ReservationRequirement = &rr
	}

	macHeaderLength := preprocessingBitCount - data.BitsLeft()

	bitsLeft := data.BitsLeft()
	if lengthIndication != nil {
		var err error
		bitsLeft, err = tmSDUBits(data, lengthFromMacEndHu(*lengthIndication), macHeaderLength, fillBitIndication == 0b1)
		if err != nil {
			return packet, err
		}
	}

	packet.TMSDU = data.TakeVector(bitsLeft)
	return packet, data.Err()
}

// parseMacData decodes MAC-DATA, 21.4.2.3.
func parseMacData(channel tetra.LogicalChannel, data *bits.BitVector, preprocessingBitCount int) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacData}

	fillBitIndication := data.Take(1)
	packet.Encrypted = data.Take(1) == 1
	packet.Address = tetra.AddressFromMacData(data)

	var lengthIndication *uint64
	if data.Take(1) == 0b0 {
		li := data.Take(6)
		lengthIndication = &li
		if li == 0b111111 {
			packet.FragmentationOnStealingChannel = true
		}
	} else {
		packet.Fragmentation = data.Take(1) == 1
		rr := uint8(data.Take(4))
		packet.ReservationRequirement = &rr
		_ = data.Take(1) // reserved
	}

	macHeaderLength := preprocessingBitCount - data.BitsLeft()
	if fillBitIndication == 0b1 {
		data.RemoveFillBits()
	}

	bitsLeft := data.BitsLeft()
	if lengthIndication != nil {
		switch {
		case *lengthIndication == 0b000000:
			bitsLeft = 0
		case *lengthIndication == 0b111110 || *lengthIndication == 0b111111:
			// consume the rest of the block
		default:
			var err error
			bitsLeft, err = tmSDUBits(data, lengthFromMacData(*lengthIndication), macHeaderLength, fillBitIndication == 0b1)
			if err != nil {
				return packet, err
			}
		}
	}

	if bitsLeft != 0 {
		packet.TMSDU = data.TakeVector(bitsLeft)
	}
	return packet, data.Err()
}

// parseMacFragment decodes MAC-FRAG in either direction, 21.4.2.4/21.4.3.2.
func parseMacFragment(channel tetra.LogicalChannel, data *bits.BitVector, fragmentType MacPacketType) (CPlaneSignallingPacket, error) {
	if channel == tetra.StealingChannel {
		return CPlaneSignallingPacket{}, errors.New("MAC-FRAG may not be sent on stealing channel")
	}
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: fragmentType}

	if data.Take(1) == 0b1 {
		data.RemoveFillBits()
	}
	packet.TMSDU = data.TakeVector(data.BitsLeft())
	return packet, data.Err()
}

// parseMacEndUplink decodes MAC-END on the uplink, 21.4.2.5.
func parseMacEndUplink(channel tetra.LogicalChannel, data *bits.BitVector, preprocessingBitCount int) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacEndUplink}

	fillBitIndication := data.Take(1)
	lengthOrReservation := data.Take(6)

	macHeaderLength := preprocessingBitCount - data.BitsLeft()
	if fillBitIndication == 0b1 {
		data.RemoveFillBits()
	}

	var bitsLeft int
	if lengthOrReservation >= 0b110000 {
		rr := uint8(lengthOrReservation & 0x0f)
		packet.ReservationRequirement = &rr
		bitsLeft = data.BitsLeft()
	} else {
		var err error
		bitsLeft, err = tmSDUBits(data, lengthFromMacEndUplink(lengthOrReservation), macHeaderLength, fillBitIndication == 0b1)
		if err != nil {
			return packet, err
		}
	}

	packet.TMSDU = data.TakeVector(bitsLeft)
	return packet, data.Err()
}

// parseMacUBlck decodes MAC-U-BLCK, 21.4.2.6.
func parseMacUBlck(channel tetra.LogicalChannel, data *bits.BitVector) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacUBlck}

	if data.Take(1) == 0b1 {
		data.RemoveFillBits()
	}
	packet.Encrypted = data.Take(1) == 1
	packet.Address.SetEventLabel(uint16(data.Take(10)))
	rr := uint8(data.Take(4))
	packet.ReservationRequirement = &rr
	return packet, data.Err()
}

// parseMacResource decodes MAC-RESOURCE, 21.4.3.1.
func parseMacResource(channel tetra.LogicalChannel, data *bits.BitVector, preprocessingBitCount int) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacResource}

	fillBitIndication := data.Take(1)

	pog := uint8(data.Take(1))
	packet.PositionOfGrant = &pog

	encryptionMode := data.Take(2)
	if encryptionMode > 0b00 {
		packet.Encrypted = true
		mode := uint8(encryptionMode)
		packet.EncryptionMode = &mode
	}

	raf := uint8(data.Take(1))
	packet.RandomAccessFlag = &raf

	lengthIndication := data.Take(6)
	if lengthIndication == 0b111111 {
		packet.Fragmentation = true
	}

	packet.Address = tetra.AddressFromMacResource(data)

	if packet.Address.IsEmpty() {
		// The null PDU is always the last PDU in its block; any spare
		// capacity is fill bits.
		data.RemoveFillBits()
		return packet, data.Err()
	}

	if data.Take(1) == 0b1 { // power control flag
		pce := uint8(data.Take(4))
		packet.PowerControlElement = &pce
	}
	if data.Take(1) == 0b1 { // slot granting flag
		bsge := uint8(data.Take(8))
		packet.BasicSlotGrantingElement = &bsge
	}
	if data.Take(1) == 0b1 { // channel allocation flag
		element, err := parseChannelAllocation(data)
		if err != nil {
			return packet, err
		}
		packet.ChannelAllocationElement = element
	}

	macHeaderLength := preprocessingBitCount - data.BitsLeft()
	if fillBitIndication == 0b1 {
		data.RemoveFillBits()
	}

	bitsLeft := data.BitsLeft()
	if lengthIndication < 0b111110 {
		var err error
		bitsLeft, err = tmSDUBits(data, lengthFromMacData(lengthIndication), macHeaderLength, fillBitIndication == 0b1)
		if err != nil {
			return packet, err
		}
	}

	packet.TMSDU = data.TakeVector(bitsLeft)
	return packet, data.Err()
}

// parseMacEndDownlink decodes MAC-END on the downlink, 21.4.3.3.
func parseMacEndDownlink(channel tetra.LogicalChannel, data *bits.BitVector, preprocessingBitCount int) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacEndDownlink}

	fillBitIndication := data.Take(1)

	pog := uint8(data.Take(1))
	packet.PositionOfGrant = &pog
	lengthIndication := data.Take(6)

	if data.Take(1) == 0b1 { // slot granting flag
		bsge := uint8(data.Take(8))
		packet.BasicSlotGrantingElement = &bsge
	}
	if data.Take(1) == 0b1 { // channel allocation flag
		element, err := parseChannelAllocation(data)
		if err != nil {
			return packet, err
		}
		packet.ChannelAllocationElement = element
	}

	macHeaderLength := preprocessingBitCount - data.BitsLeft()
	if fillBitIndication == 0b1 {
		data.RemoveFillBits()
	}
	bitsLeft, err := tmSDUBits(data, lengthFromMacData(lengthIndication), macHeaderLength, fillBitIndication == 0b1)
	if err != nil {
		return packet, err
	}

	packet.TMSDU = data.TakeVector(bitsLeft)
	return packet, data.Err()
}

// parseMacDBlck decodes MAC-D-BLCK, 21.4.3.4.
func parseMacDBlck(channel tetra.LogicalChannel, data *bits.BitVector) (CPlaneSignallingPacket, error) {
	packet := CPlaneSignallingPacket{LogicalChannel: channel, Type: MacDBlck}

	if data.Take(1) == 0b1 {
		data.RemoveFillBits()
	}
	encryptionMode := data.Take(2)
	if encryptionMode > 0b00 {
		packet.Encrypted = true
		mode := uint8(encryptionMode)
		packet.EncryptionMode = &mode
	}
	packet.Address.SetEventLabel(uint16(data.Take(10)))

	inpf := data.Take(1) == 1
	packet.ImmediateNappingPermissionFlag = &inpf
	if data.Take(1) == 0b1 { // slot granting flag
		bsge := uint8(data.Take(8))
		packet.BasicSlotGrantingElement = &bsge
	}

	packet.TMSDU = data.TakeVector(data.BitsLeft())
	return packet, data.Err()
}

// parseChannelAllocation decodes the channel allocation element, 21.4.3.1.
func parseChannelAllocation(data *bits.BitVector) (*ChannelAllocationElement, error) {
	element := &ChannelAllocationElement{
		AllocationType:     uint8(data.Take(2)),
		TimeslotAssigned:   uint8(data.Take(4)),
		UpDownlinkAssigned: uint8(data.Take(2)),
		CLCHPermission:     uint8(data.Take(1)),
		CellChangeFlag:     uint8(data.Take(1)),
		CarrierNumber:      uint16(data.Take(12)),
	}

	if data.Take(1) == 0b1 {
		element.ExtendedCarrierNumbering = &ExtendedCarrierNumbering{
			FrequencyBand:    uint8(data.Take(4)),
			Offset:           uint8(data.Take(2)),
			DuplexSpacing:    uint8(data.Take(3)),
			ReverseOperation: uint8(data.Take(1)),
		}
	}

	element.MonitoringPattern = uint8(data.Take(2))
	if element.MonitoringPattern == 0b00 {
		pattern := uint8(data.Take(2))
		element.Frame18MonitoringPattern = &pattern
	}

	if element.UpDownlinkAssigned == 0b00 {
		augmented := &AugmentedChannelAllocation{
			UpDownlinkAssigned: uint8(data.Take(2)),
			Bandwidth:          uint8(data.Take(3)),
			ModulationMode:     uint8(data.Take(3)),
		}
		if augmented.ModulationMode == 0b010 {
			level := uint8(data.Take(3))
			augmented.MaximumUplinkQAMModulationLevel = &level
			_ = data.Take(3) // reserved
		}
		augmented.ConformingChannelStatus = uint8(data.Take(3))
		augmented.BSLinkImbalance = uint8(data.Take(4))
		augmented.BSTransmitPower = uint8(data.Take(5))

		augmented.NappingStatus = uint8(data.Take(2))
		if augmented.NappingStatus == 0b01 {
			info := uint16(data.Take(11))
			augmented.NappingInformation = &info
		}
		_ = data.Take(4) // reserved
		if data.Take(1) == 0b1 {
			a := uint16(data.Take(16))
			augmented.ConditionalElementA = &a
		}
		if data.Take(1) == 0b1 {
			b := uint16(data.Take(16))
			augmented.ConditionalElementB = &b
		}
		augmented.FurtherAugmentationFlag = uint8(data.Take(1))

		element.AugmentedChannelAllocation = augmented
	}

	return element, data.Err()
}

// parseUPlaneSignalling decodes the MAC-U-SIGNAL PDU, 21.4.5.
func parseUPlaneSignalling(channel tetra.LogicalChannel, data *bits.BitVector) (UPlaneSignallingPacket, error) {
	pduType := data.Take(2)
	_ = data.Take(1) // second half slot stolen flag
	if err := data.Err(); err != nil {
		return UPlaneSignallingPacket{}, err
	}
	if pduType != 0b11 {
		return UPlaneSignallingPacket{}, fmt.Errorf("u-plane signalling must be MAC-U-SIGNAL, got pdu type %#b", pduType)
	}
	return UPlaneSignallingPacket{
		LogicalChannel: channel,
		Type:           MacUSignal,
		TMSDU:          data.TakeVector(data.BitsLeft()),
	}, nil
}

// parseBroadcast decodes the TMB-SAP broadcast PDUs, 21.4.4.
func parseBroadcast(channel tetra.LogicalChannel, data *bits.BitVector) (*BroadcastPacket, error) {
	packet := &BroadcastPacket{LogicalChannel: channel, Type: MacBroadcast}

	_ = data.Take(2) // pdu type
	broadcastType := data.Take(2)

	switch broadcastType {
	case 0b00:
		sysinfo, err := parseSystemInfo(data)
		if err != nil {
			return nil, err
		}
		packet.SystemInfo = sysinfo
	case 0b01:
		accessDefine, err := parseAccessDefine(data)
		if err != nil {
			return nil, err
		}
		packet.AccessDefine = accessDefine
	case 0b10:
		return nil, errors.New("SYSINFO-DA is not implemented")
	default:
		return nil, errors.New("reserved broadcast type")
	}

	if data.BitsLeft() != 0 {
		return nil, fmt.Errorf("%d bits left over after broadcast PDU", data.BitsLeft())
	}
	return packet, nil
}

// tetraDuplexSpacing maps (duplex spacing field, frequency band) to the
// duplex spacing in kHz; negative entries are reserved.
var tetraDuplexSpacing = [8][16]int32{
	{-1, 1600, 10000, 10000, 10000, 10000, 10000, -1, -1, -1, -1, -1, -1, -1, -1, -1},
	{-1, 4500, -1, 36000, 7000, -1, -1, -1, 45000, 45000, -1, -1, -1, -1, -1, -1},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{-1, -1, -1, 8000, 8000, -1, -1, -1, 18000, 18000, -1, -1, -1, -1, -1, -1},
	{-1, -1, -1, 18000, 5000, -1, 30000, 30000, -1, 39000, -1, -1, -1, -1, -1, -1},
	{-1, -1, -1, -1, 9500, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},
	{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},
	{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},
}

func parseSystemInfo(data *bits.BitVector) (*SystemInfo, error) {
	sysinfo := &SystemInfo{}

	mainCarrier := data.Take(12)
	frequencyBand := data.Take(4)
	offset := data.Take(2)
	duplexSpacingField := data.Take(3)
	reverseOperation := data.Take(1)
	sysinfo.NumberSecondaryControlChannels = uint8(data.Take(2))
	sysinfo.MSTxPwrMaxCell = uint8(data.Take(3))
	sysinfo.RxLevAccessMin = uint8(data.Take(4))
	sysinfo.AccessParameter = uint8(data.Take(4))
	sysinfo.RadioDownlinkTimeout = uint8(data.Take(4))

	if data.Take(1) == 0 {
		hfn := uint16(data.Take(16))
		sysinfo.HyperFrameNumber = &hfn
	} else {
		cck := uint16(data.Take(16))
		sysinfo.CommonCipherKeyID = &cck
	}

	switch data.Take(2) {
	case 0b00:
		v := uint32(data.Take(20))
		sysinfo.EvenMultiFrameDefinition = &v
	case 0b01:
		v := uint32(data.Take(20))
		sysinfo.OddMultiFrameDefinition = &v
	case 0b10:
		acd := parseAccessCodeDefinition(data)
		sysinfo.DefaultsForAccessCodeA = &acd
	default:
		esb := &ExtendedServiceBroadcast{
			SecurityInformation:   uint8(data.Take(8)),
			SDSTLAddressingMethod: uint8(data.Take(2)),
			GCKSupported:          uint8(data.Take(1)),
		}
		switch data.Take(2) {
		case 0b00:
			esb.Section1 = &ExtendedServiceBroadcastSection1{
				DataPrioritySupported:            uint8(data.Take(1)),
				ExtendedAdvancedLinksAndMaxUblck: uint8(data.Take(1)),
				QoSNegotiationSupported:          uint8(data.Take(1)),
				D8PSKService:                     uint8(data.Take(1)),
				Section2Sent:                     uint8(data.Take(1)),
				Section3Sent:                     uint8(data.Take(1)),
				Section4Sent:                     uint8(data.Take(1)),
			}
		case 0b01:
			esb.Section2 = &ExtendedServiceBroadcastSection2{
				Service25QAM:  uint8(data.Take(1)),
				Service50QAM:  uint8(data.Take(1)),
				Service100QAM: uint8(data.Take(1)),
				Service150QAM: uint8(data.Take(1)),
				Reserved:      uint8(data.Take(3)),
			}
		case 0b10:
			v := uint8(data.Take(7))
			esb.Section3 = &v
		default:
			v := uint8(data.Take(7))
			esb.Section4 = &v
		}
		sysinfo.ExtendedServiceBroadcast = esb
	}

	// downlink main carrier frequency = base frequency + (main carrier x
	// 25 kHz) + offset kHz
	duplex := [4]int32{0, 6250, -6250, 12500}
	sysinfo.DownlinkFrequency = int32(frequencyBand)*100000000 + int32(mainCarrier)*25000 + duplex[offset]

	duplexSpacing := tetraDuplexSpacing[duplexSpacingField][frequencyBand]
	switch {
	case duplexSpacing < 0:
		// reserved for future standardization
		sysinfo.UplinkFrequency = 0
	case reverseOperation != 0:
		sysinfo.UplinkFrequency = sysinfo.DownlinkFrequency + duplexSpacing*1000
	default:
		sysinfo.UplinkFrequency = sysinfo.DownlinkFrequency - duplexSpacing*1000
	}

	sysinfo.LocationArea = uint16(data.Take(14))
	sysinfo.SubscriberClass = uint16(data.Take(16))
	sysinfo.Registration = uint8(data.Take(1))
	sysinfo.Deregistration = uint8(data.Take(1))
	sysinfo.PriorityCell = uint8(data.Take(1))
	sysinfo.MinimumModeService = uint8(data.Take(1))
	sysinfo.Migration = uint8(data.Take(1))
	sysinfo.SystemWideService = uint8(data.Take(1))
	sysinfo.TetraVoiceService = uint8(data.Take(1))
	sysinfo.CircuitModeDataService = uint8(data.Take(1))
	_ = data.Take(1) // reserved
	sysinfo.SNDCPService = uint8(data.Take(1))
	sysinfo.AirInterfaceEncryptionService = uint8(data.Take(1))
	sysinfo.AdvancedLinkSupported = uint8(data.Take(1))

	return sysinfo, data.Err()
}

func parseAccessDefine(data *bits.BitVector) (*AccessDefine, error) {
	accessDefine := &AccessDefine{
		CommonOrAssignedControlChannelFlag: uint8(data.Take(1)),
		AccessCode:                         uint8(data.Take(2)),
		AccessCodeDefinition:               parseAccessCodeDefinition(data),
	}
	switch data.Take(2) {
	case 0b01:
		bitmap := uint16(data.Take(16))
		accessDefine.SubscriberClassBitmap = &bitmap
	case 0b10:
		gssi := uint32(data.Take(24))
		accessDefine.GSSI = &gssi
	}
	_ = data.Take(3) // filler bits
	return accessDefine, data.Err()
}
