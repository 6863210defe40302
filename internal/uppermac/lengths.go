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

// Length indication constants, "Table 21.98: Value of Y1, Z1, Y2 and Z2 in
// TMA-SAP MAC PDUs". Y1/Z1 apply to PDUs sent in a subslot (MAC-ACCESS,
// MAC-END-HU), Y2/Z2 to PDUs sent in a slot. The values are only valid for
// π/4-DQPSK; they are in bits, not octets, to keep the call sites free of
// the octet conversion.
const (
	lengthY1 = 8
	lengthY2 = 8
	lengthZ1 = 8
	lengthZ2 = 8
)

// lengthFromMacAccess reconstructs the PDU bit length from the 5-bit length
// indication of MAC-ACCESS.
func lengthFromMacAccess(lengthIndication uint64) int {
	if lengthIndication < 0b01111 {
		return int(lengthIndication) * lengthY1
	}
	return 14*lengthY1 + (int(lengthIndication)-14)*lengthZ1
}

// lengthFromMacEndHu reconstructs the PDU bit length from the 4-bit length
// indication of MAC-END-HU.
func lengthFromMacEndHu(lengthIndication uint64) int {
	return int(lengthIndication) * lengthZ1
}

// lengthFromMacData reconstructs the PDU bit length from the 6-bit length
// indication of MAC-DATA, MAC-RESOURCE and MAC-END (downlink).
func lengthFromMacData(lengthIndication uint64) int {
	if lengthIndication < 0b010011 {
		return int(lengthIndication) * lengthY2
	}
	return 18*lengthY2 + (int(lengthIndication)-18)*lengthZ2
}

// lengthFromMacEndUplink reconstructs the PDU bit length from the 6-bit
// length indication of MAC-END (uplink).
func lengthFromMacEndUplink(lengthIndication uint64) int {
	if lengthIndication < 0b000111 {
		return int(lengthIndication) * lengthY2
	}
	return 6*lengthY2 + (int(lengthIndication)-6)*lengthZ2
}
