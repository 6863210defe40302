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

// BasicLinkType is the 4-bit basic link PDU type of the LLC.
type BasicLinkType uint8

const (
	BlAdataWithoutFcs BasicLinkType = iota
	BlDataWithoutFcs
	BlUdataWithoutFcs
	BlAckWithoutFcs
	BlAdataWithFcs
	BlDataWithFcs
	BlUdataWithFcs
	BlAckWithFcs
)

func (t BasicLinkType) String() string {
	switch t {
	case BlAdataWithoutFcs:
		return "BL-ADATA without FCS"
	case BlDataWithoutFcs:
		return "BL-DATA without FCS"
	case BlUdataWithoutFcs:
		return "BL-UDATA without FCS"
	case BlAckWithoutFcs:
		return "BL-ACK without FCS"
	case BlAdataWithFcs:
		return "BL-ADATA with FCS"
	case BlDataWithFcs:
		return "BL-DATA with FCS"
	case BlUdataWithFcs:
		return "BL-UDATA with FCS"
	case BlAckWithFcs:
		return "BL-ACK with FCS"
	}
	return "unknown"
}

// IsAck reports whether the PDU is a basic link acknowledgement.
func (t BasicLinkType) IsAck() bool {
	return t == BlAckWithoutFcs || t == BlAckWithFcs
}

// BasicLinkInformation is the parsed basic link header, with the FCS verdict
// when the PDU carries one.
type BasicLinkInformation struct {
	Type    BasicLinkType
	NR      *uint8
	NS      *uint8
	FcsGood *bool
}

// parseBasicLinkInformation consumes the basic link header from the TM-SDU
// cursor. The caller has verified pduType < 0b1000.
func parseBasicLinkInformation(data *bits.BitVector) (BasicLinkInformation, error) {
	info := BasicLinkInformation{}
	pduType := data.Take(4)
	info.Type = BasicLinkType(pduType)

	switch info.Type {
	case BlAdataWithoutFcs, BlAdataWithFcs:
		nr := uint8(data.Take(1))
		ns := uint8(data.Take(1))
		info.NR, info.NS = &nr, &ns
	case BlDataWithoutFcs, BlDataWithFcs:
		ns := uint8(data.Take(1))
		info.NS = &ns
	case BlAckWithoutFcs, BlAckWithFcs:
		nr := uint8(data.Take(1))
		info.NR = &nr
	case BlUdataWithoutFcs, BlUdataWithFcs:
	}

	if pduType >= 0b0100 {
		fcs := uint32(data.TakeLast(32))
		good := fcs == data.ComputeFCS()
		info.FcsGood = &good
	}
	return info, data.Err()
}

// LogicalLinkControlPacket wraps a C-plane MAC PDU with its parsed LLC layer
// and, when recognized, the MLE layer nested inside.
type LogicalLinkControlPacket struct {
	uppermac.CPlaneSignallingPacket

	BasicLinkInformation *BasicLinkInformation
	TLSDU                *bits.BitVector

	MLE *MobileLinkEntityPacket
}

// Key returns the name of the deepest parsed layer, which keys the egress
// envelope.
func (p *LogicalLinkControlPacket) Key() string {
	if p.MLE == nil {
		return "LogicalLinkControlPacket"
	}
	return p.MLE.key()
}
