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
	"github.com/USA-RedDragon/TETRAHub/internal/uppermac"
)

// MleProtocol is the 3-bit MLE protocol discriminator.
type MleProtocol uint8

const (
	MleReserved0 MleProtocol = iota
	MleMmProtocol
	MleCmceProtocol
	MleReserved3
	MleSndcpProtocol
	MleMleProtocol
	MleTetraManagementEntityProtocol
	MleReservedForTesting
)

func (p MleProtocol) String() string {
	switch p {
	case MleReserved0:
		return "Reserved0"
	case MleMmProtocol:
		return "MM protocol"
	case MleCmceProtocol:
		return "CMCE protocol"
	case MleReserved3:
		return "Reserved3"
	case MleSndcpProtocol:
		return "SNDCP protocol"
	case MleMleProtocol:
		return "MLE protocol"
	case MleTetraManagementEntityProtocol:
		return "TETRA management entity protocol"
	case MleReservedForTesting:
		return "Reserved for testing"
	}
	return "unknown"
}

// MobileLinkEntityPacket is the MLE layer: the protocol discriminator and
// the SDU handed to the selected protocol entity.
type MobileLinkEntityPacket struct {
	Protocol MleProtocol
	SDU      *bits.BitVector

	CMCE *CircuitModeControlEntityPacket
	MM   *MobileManagementPacket
}

func (p *MobileLinkEntityPacket) key() string {
	switch {
	case p.CMCE != nil:
		return p.CMCE.key()
	case p.MM != nil:
		return "MobileManagementPacket"
	default:
		return "MobileLinkEntityPacket"
	}
}

// Parser parses the L2/L3 chain for one link direction. It carries no state
// beyond the direction; every Parse call is a pure function of its input.
type Parser struct {
	downlink bool
}

// NewParser creates a parser for the given link direction.
func NewParser(downlink bool) *Parser {
	return &Parser{downlink: downlink}
}

// ParseCPlane parses the LLC layer of a reassembled C-plane MAC PDU and
// whatever deeper layers it recognizes. PDU types beyond the basic link are
// passed through opaque.
func (p *Parser) ParseCPlane(packet uppermac.CPlaneSignallingPacket) (*LogicalLinkControlPacket, error) {
	llc := &LogicalLinkControlPacket{CPlaneSignallingPacket: packet}
	if packet.TMSDU == nil {
		return llc, nil
	}

	data := packet.TMSDU.Copy()
	pduType := data.Look(4, 0)
	if err := data.Err(); err != nil {
		return llc, err
	}

	// Only the basic link is parsed; advanced link and layer management pass
	// through unchanged.
	if pduType >= 0b1000 {
		return llc, nil
	}

	info, err := parseBasicLinkInformation(data)
	if err != nil {
		return llc, err
	}
	llc.BasicLinkInformation = &info
	llc.TLSDU = data

	if llc.TLSDU.BitsLeft() == 0 {
		return llc, nil
	}

	mle, err := p.parseMle(llc.TLSDU.Copy())
	if err != nil {
		return llc, err
	}
	llc.MLE = mle
	return llc, nil
}

// parseMle dispatches on the MLE protocol discriminator. Only MM and CMCE
// are parsed further.
func (p *Parser) parseMle(data *bits.BitVector) (*MobileLinkEntityPacket, error) {
	mle := &MobileLinkEntityPacket{}
	mle.Protocol = MleProtocol(data.Take(3))
	if err := data.Err(); err != nil {
		return nil, err
	}
	mle.SDU = data

	switch mle.Protocol {
	case MleMmProtocol:
		mm, err := p.parseMm(mle.SDU.Copy())
		if err != nil {
			return mle, err
		}
		mle.MM = mm
	case MleCmceProtocol:
		cmce, err := p.parseCmce(mle.SDU.Copy())
		if err != nil {
			return mle, err
		}
		mle.CMCE = cmce
	}
	return mle, nil
}
