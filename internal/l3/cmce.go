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

// CmcePacketType is the 5-bit CMCE PDU type together with its direction.
type CmcePacketType struct {
	Downlink bool
	Value    uint8
}

// CMCE PDU type values, 14.8.28. The same value space is used on both
// directions with different meanings.
const (
	CmceDSdsData uint8 = 15
	CmceUSdsData uint8 = 15
)

var cmceDownlinkNames = [32]string{
	"D-ALERT", "D-CALL-PROCEEDING", "D-CONNECT", "D-CONNECT ACKNOWLEDGE",
	"D-DISCONNECT", "D-INFO", "D-RELEASE", "D-SETUP",
	"D-STATUS", "D-TX CEASED", "D-TX CONTINUE", "D-TX GRANTED",
	"D-TX WAIT", "D-TX INTERRUPT", "D-CALL-RESTORE", "D-SDS-DATA",
	"D-FACILITY", "D-Reserved17", "D-Reserved18", "D-Reserved19",
	"D-Reserved20", "D-Reserved21", "D-Reserved22", "D-Reserved23",
	"D-Reserved24", "D-Reserved25", "D-Reserved26", "D-Reserved27",
	"D-Reserved28", "D-Reserved29", "D-Reserved30", "CMCE FUNCTION NOT SUPPORTED",
}

var cmceUplinkNames = [32]string{
	"U-ALERT", "U-Reserved1", "U-CONNECT", "U-Reserved3",
	"U-DISCONNECT", "U-INFO", "U-RELEASE", "U-SETUP",
	"U-STATUS", "U-TX CEASED", "U-TX DEMAND", "U-Reserved11",
	"U-Reserved12", "U-Reserved13", "U-CALL-RESTORE", "U-SDS-DATA",
	"U-FACILITY", "U-Reserved17", "U-Reserved18", "U-Reserved19",
	"U-Reserved20", "U-Reserved21", "U-Reserved22", "U-Reserved23",
	"U-Reserved24", "U-Reserved25", "U-Reserved26", "U-Reserved27",
	"U-Reserved28", "U-Reserved29", "U-Reserved30", "CMCE FUNCTION NOT SUPPORTED",
}

func (t CmcePacketType) String() string {
	if t.Downlink {
		return cmceDownlinkNames[t.Value&0x1f]
	}
	return cmceUplinkNames[t.Value&0x1f]
}

// CMCE Type 3 element identifiers allowed after SDS user data, 14.8.
const (
	CmceElementExternalSubscriberNumber ElementIdentifier = 0b0010
	CmceElementDmMsAddress              ElementIdentifier = 0b0011
)

// SdsData is the short data service container of a D-SDS-DATA or U-SDS-DATA
// PDU.
type SdsData struct {
	// AreaSelection is present on the uplink only.
	AreaSelection *uint8
	// Address is the calling (downlink) or called (uplink) party.
	Address tetra.Address
	// Data is the short data user payload.
	Data *bits.BitVector
	// OptionalElements holds the unparsed external subscriber number and
	// DM-MS address elements.
	OptionalElements map[ElementIdentifier]Type34Element
}

func parseSdsAddress(data *bits.BitVector, uplink bool) tetra.Address {
	var address tetra.Address
	callingPartyType := data.Take(2)
	if uplink && callingPartyType == 0 {
		address.SetSNA(uint8(data.Take(8)))
	}
	if callingPartyType == 1 || callingPartyType == 2 {
		address.SetSSI(uint32(data.Take(24)))
	}
	if callingPartyType == 2 {
		address.SetCountryCode(uint16(data.Take(10)))
		address.SetNetworkCode(uint16(data.Take(14)))
	}
	return address
}

func parseSdsData(data *bits.BitVector, uplink bool) (*SdsData, error) {
	sds := &SdsData{}
	if uplink {
		area := uint8(data.Take(4))
		sds.AreaSelection = &area
	}
	sds.Address = parseSdsAddress(data, uplink)

	var lengthIdentifier int
	switch data.Take(2) {
	case 0b00:
		lengthIdentifier = 16
	case 0b01:
		lengthIdentifier = 32
	case 0b10:
		lengthIdentifier = 64
	default:
		lengthIdentifier = int(data.Take(11))
	}
	sds.Data = data.TakeVector(lengthIdentifier)
	if err := data.Err(); err != nil {
		return nil, err
	}

	parser := NewType234Parser(data,
		[]ElementIdentifier{CmceElementExternalSubscriberNumber, CmceElementDmMsAddress}, nil)
	elements, err := parser.ParseType34(data)
	if err != nil {
		return nil, err
	}
	sds.OptionalElements = elements
	return sds, nil
}

// CircuitModeControlEntityPacket is the CMCE layer, with the SDS container
// and the short data service sub-parse when present.
type CircuitModeControlEntityPacket struct {
	PacketType CmcePacketType
	SdsData    *SdsData

	SDS *ShortDataServicePacket
}

func (p *CircuitModeControlEntityPacket) key() string {
	if p.SDS != nil {
		return "ShortDataServicePacket"
	}
	return "CircuitModeControlEntityPacket"
}

func (p *Parser) parseCmce(data *bits.BitVector) (*CircuitModeControlEntityPacket, error) {
	cmce := &CircuitModeControlEntityPacket{}
	cmce.PacketType = CmcePacketType{Downlink: p.downlink, Value: uint8(data.Take(5))}
	if err := data.Err(); err != nil {
		return nil, err
	}

	isSds := (p.downlink && cmce.PacketType.Value == CmceDSdsData) ||
		(!p.downlink && cmce.PacketType.Value == CmceUSdsData)
	if !isSds {
		return cmce, nil
	}

	sdsData, err := parseSdsData(data, !p.downlink)
	if err != nil {
		return cmce, err
	}
	cmce.SdsData = sdsData

	sds, err := parseShortDataService(sdsData)
	if err != nil {
		return cmce, err
	}
	cmce.SDS = sds
	return cmce, nil
}
