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

package l3

import (
	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

// MmPacketType is the 4-bit MM PDU type together with its direction.
type MmPacketType struct {
	Downlink bool
	Value    uint8
}

// MM downlink PDU types, 16.9.
const (
	MmDLocationUpdateAccept         uint8 = 5
	MmDAttachDetachGroupIdentityAck uint8 = 11
)

var mmDownlinkNames = [16]string{
	"D-OTAR", "D-AUTHENTICATION", "D-CK CHANGE DEMAND", "D-DISABLE",
	"D-ENABLE", "D-LOCATION UPDATE ACCEPT", "D-LOCATION UPDATE COMMAND", "D-LOCATION UPDATE REJECT",
	"D-Reserved8", "D-LOCATION UPDATE PROCEEDING", "D-ATTACH/DETACH GROUP IDENTITY", "D-ATTACH/DETACH GROUP IDENTITY ACK",
	"D-MM STATUS", "D-Reserved13", "D-Reserved14", "D-MM PDU/FUNCTION NOT SUPPORTED",
}

var mmUplinkNames = [16]string{
	"U-AUTHENTICATION", "U-ITSI DETACH", "U-LOCATION UPDATE DEMAND", "U-MM STATUS",
	"U-CK CHANGE RESULT", "U-OTAR", "U-INFORMATION PROVIDE", "U-ATTACH/DETACH GROUP IDENTITY",
	"U-ATTACH/DETACH GROUP IDENTITY ACK", "U-TEI PROVIDE", "U-Reserved10", "U-DISABLE STATUS",
	"U-Reserved12", "U-Reserved13", "U-Reserved14", "U-MM PDU/FUNCTION NOT SUPPORTED",
}

func (t MmPacketType) String() string {
	if t.Downlink {
		return mmDownlinkNames[t.Value&0x0f]
	}
	return mmUplinkNames[t.Value&0x0f]
}

// MM Type 3/4 element identifiers, 16.10.51.
const (
	MmElementDefaultGroupAttachLifetime              ElementIdentifier = 0b0001
	MmElementNewRegisteredArea                       ElementIdentifier = 0b0010
	MmElementGroupIdentityLocationAccept             ElementIdentifier = 0b0101
	MmElementGroupIdentityDownlink                   ElementIdentifier = 0b0111
	MmElementAuthenticationDownlink                  ElementIdentifier = 0b1010
	MmElementGroupIdentitySecurityRelatedInformation ElementIdentifier = 0b1100
	MmElementCellTypeControl                         ElementIdentifier = 0b1101
	MmElementSecurityDownlink                        ElementIdentifier = 0b1110
	MmElementProprietary                             ElementIdentifier = 0b1111
)

// LocationUpdateAccept is the D-LOCATION UPDATE ACCEPT PDU, 16.9.2.9.
type LocationUpdateAccept struct {
	LocationUpdateAcceptType uint8
	Address                  tetra.Address

	SubscriberClass         *uint16
	EnergySavingInformation *uint16
	SCCHInformation         *uint8
	DistributionOn18thFrame *uint8

	OptionalElements map[ElementIdentifier]Type34Element
}

func parseLocationUpdateAccept(data *bits.BitVector) (*LocationUpdateAccept, error) {
	accept := &LocationUpdateAccept{LocationUpdateAcceptType: uint8(data.Take(4))}
	if err := data.Err(); err != nil {
		return nil, err
	}

	parser := NewType234Parser(data,
		[]ElementIdentifier{
			MmElementSecurityDownlink,
			MmElementGroupIdentityLocationAccept,
			MmElementDefaultGroupAttachLifetime,
			MmElementAuthenticationDownlink,
			MmElementCellTypeControl,
			MmElementProprietary,
		},
		[]ElementIdentifier{
			MmElementNewRegisteredArea,
			MmElementGroupIdentitySecurityRelatedInformation,
		})

	if ssi := ParseType2(parser, data, func(d *bits.BitVector) uint32 { return uint32(d.Take(24)) }); ssi != nil {
		accept.Address.SetSSI(*ssi)
	}
	if mni := ParseType2(parser, data, func(d *bits.BitVector) tetra.Address {
		var a tetra.Address
		a.SetCountryCode(uint16(d.Take(10)))
		a.SetNetworkCode(uint16(d.Take(14)))
		return a
	}); mni != nil {
		accept.Address.Merge(*mni)
	}
	accept.SubscriberClass = ParseType2(parser, data, func(d *bits.BitVector) uint16 { return uint16(d.Take(16)) })
	accept.EnergySavingInformation = ParseType2(parser, data, func(d *bits.BitVector) uint16 { return uint16(d.Take(14)) })
	if scch := ParseType2(parser, data, func(d *bits.BitVector) [2]uint8 {
		return [2]uint8{uint8(d.Take(4)), uint8(d.Take(2))}
	}); scch != nil {
		accept.SCCHInformation = &scch[0]
		accept.DistributionOn18thFrame = &scch[1]
	}
	if err := data.Err(); err != nil {
		return nil, err
	}

	elements, err := parser.ParseType34(data)
	if err != nil {
		return nil, err
	}
	accept.OptionalElements = elements
	return accept, nil
}

// AttachDetachGroupIdentityAck is the D-ATTACH/DETACH GROUP IDENTITY ACK
// PDU, 16.9.2.2.
type AttachDetachGroupIdentityAck struct {
	GroupIdentityAcceptReject uint8

	OptionalElements map[ElementIdentifier]Type34Element
}

func parseAttachDetachGroupIdentityAck(data *bits.BitVector) (*AttachDetachGroupIdentityAck, error) {
	ack := &AttachDetachGroupIdentityAck{GroupIdentityAcceptReject: uint8(data.Take(1))}
	_ = data.Take(1) // reserved
	if err := data.Err(); err != nil {
		return nil, err
	}

	parser := NewType234Parser(data,
		[]ElementIdentifier{MmElementProprietary},
		[]ElementIdentifier{MmElementGroupIdentityDownlink})
	elements, err := parser.ParseType34(data)
	if err != nil {
		return nil, err
	}
	ack.OptionalElements = elements
	return ack, nil
}

// MobileManagementPacket is the MM layer. Only D-LOCATION UPDATE ACCEPT and
// D-ATTACH/DETACH GROUP IDENTITY ACK carry a deeper parse; the other types
// stay opaque.
type MobileManagementPacket struct {
	PacketType MmPacketType

	LocationUpdateAccept         *LocationUpdateAccept
	AttachDetachGroupIdentityAck *AttachDetachGroupIdentityAck
}

func (p *Parser) parseMm(data *bits.BitVector) (*MobileManagementPacket, error) {
	mm := &MobileManagementPacket{}
	mm.PacketType = MmPacketType{Downlink: p.downlink, Value: uint8(data.Take(4))}
	if err := data.Err(); err != nil {
		return nil, err
	}

	if !p.downlink {
		return mm, nil
	}

	switch mm.PacketType.Value {
	case MmDLocationUpdateAccept:
		accept, err := parseLocationUpdateAccept(data)
		if err != nil {
			return mm, err
		}
		mm.LocationUpdateAccept = accept
	case MmDAttachDetachGroupIdentityAck:
		ack, err := parseAttachDetachGroupIdentityAck(data)
		if err != nil {
			return mm, err
		}
		mm.AttachDetachGroupIdentityAck = ack
	}
	return mm, nil
}
