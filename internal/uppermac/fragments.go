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
)

// ErrNoFragmentation indicates a PDU type that never participates in
// fragmentation was pushed into the reassembler.
var ErrNoFragmentation = errors.New("pdu type does not carry fragments")

// fragments accumulates one direction's fragment chain.
type fragments struct {
	start         *CPlaneSignallingPacket
	continuations []CPlaneSignallingPacket
	end           *CPlaneSignallingPacket
}

// Fragmentation reassembles fragmented TM-SDUs, independently per direction.
// A new start marker restarts its direction; continuations without a start
// are ignored. All state lives on the in-order consumer, never on the pool
// workers.
type Fragmentation struct {
	downlink fragments
	uplink   fragments
}

// Push feeds one fragment PDU. When an end marker completes a chain the
// reassembled packet is returned: the start PDU's address and control fields
// with the concatenated TM-SDU.
func (f *Fragmentation) Push(fragment CPlaneSignallingPacket) (*CPlaneSignallingPacket, error) {
	switch fragment.Type {
	case MacResource:
		if !fragment.Fragmentation {
			return nil, fmt.Errorf("%s without fragmentation: %w", fragment.Type, ErrNoFragmentation)
		}
		f.downlink = fragments{start: &fragment}
	case MacFragmentDownlink:
		if f.downlink.start != nil {
			f.downlink.continuations = append(f.downlink.continuations, fragment)
		}
	case MacEndDownlink:
		if f.downlink.start != nil {
			f.downlink.end = &fragment
		}
	case MacAccess, MacData:
		if !fragment.Fragmentation {
			return nil, fmt.Errorf("%s without fragmentation: %w", fragment.Type, ErrNoFragmentation)
		}
		f.uplink = fragments{start: &fragment}
	case MacFragmentUplink:
		if f.uplink.start != nil {
			f.uplink.continuations = append(f.uplink.continuations, fragment)
		}
	case MacEndHu, MacEndUplink:
		if f.uplink.start != nil {
			f.uplink.end = &fragment
		}
	default:
		// MacDBlck, MacBroadcast, MacUBlck, MacUSignal
		return nil, fmt.Errorf("%s: %w", fragment.Type, ErrNoFragmentation)
	}

	if f.downlink.end != nil {
		packet := f.downlink.reassemble()
		f.downlink = fragments{}
		return packet, nil
	}
	if f.uplink.end != nil {
		packet := f.uplink.reassemble()
		f.uplink = fragments{}
		return packet, nil
	}
	return nil, nil
}

func (f *fragments) reassemble() *CPlaneSignallingPacket {
	packet := *f.start
	if packet.TMSDU != nil {
		packet.TMSDU = packet.TMSDU.Copy()
	}
	appendSDU := func(p *CPlaneSignallingPacket) {
		if p.TMSDU == nil {
			return
		}
		if packet.TMSDU == nil {
			packet.TMSDU = p.TMSDU.Copy()
			return
		}
		packet.TMSDU.Append(p.TMSDU)
	}
	for i := range f.continuations {
		appendSDU(&f.continuations[i])
	}
	appendSDU(f.end)
	return &packet
}
