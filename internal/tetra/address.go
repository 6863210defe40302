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
	"github.com/USA-RedDragon/TETRAHub/internal/bits"
)

// Address is a sparse record of subscriber identities. Each component is
// optional; nil means absent. Field widths on the air interface: country
// code 10, network code 14, SNA 8, SSI/USSI/SMI 24, event label 10, usage
// marker 6 bits.
type Address struct {
	CountryCode *uint16 `json:"country_code,omitempty"`
	NetworkCode *uint16 `json:"network_code,omitempty"`
	SNA         *uint8  `json:"sna,omitempty"`
	SSI         *uint32 `json:"ssi,omitempty"`
	EventLabel  *uint16 `json:"event_label,omitempty"`
	USSI        *uint32 `json:"ussi,omitempty"`
	SMI         *uint32 `json:"smi,omitempty"`
	UsageMarker *uint8  `json:"usage_marker,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func (a *Address) SetCountryCode(v uint16) { a.CountryCode = ptr(v) }
func (a *Address) SetNetworkCode(v uint16) { a.NetworkCode = ptr(v) }
func (a *Address) SetSNA(v uint8)          { a.SNA = ptr(v) }
func (a *Address) SetSSI(v uint32)         { a.SSI = ptr(v) }
func (a *Address) SetEventLabel(v uint16)  { a.EventLabel = ptr(v) }
func (a *Address) SetUSSI(v uint32)        { a.USSI = ptr(v) }
func (a *Address) SetSMI(v uint32)         { a.SMI = ptr(v) }
func (a *Address) SetUsageMarker(v uint8)  { a.UsageMarker = ptr(v) }

// Merge overwrites every component of a that is present in other.
func (a *Address) Merge(other Address) {
	if other.CountryCode != nil {
		a.CountryCode = other.CountryCode
	}
	if other.NetworkCode != nil {
		a.NetworkCode = other.NetworkCode
	}
	if other.SNA != nil {
		a.SNA = other.SNA
	}
	if other.SSI != nil {
		a.SSI = other.SSI
	}
	if other.EventLabel != nil {
		a.EventLabel = other.EventLabel
	}
	if other.USSI != nil {
		a.USSI = other.USSI
	}
	if other.SMI != nil {
		a.SMI = other.SMI
	}
	if other.UsageMarker != nil {
		a.UsageMarker = other.UsageMarker
	}
}

// Equal compares component-wise, treating absent components as equal only to
// absent components.
func (a Address) Equal(other Address) bool {
	return eq(a.CountryCode, other.CountryCode) &&
		eq(a.NetworkCode, other.NetworkCode) &&
		eq(a.SNA, other.SNA) &&
		eq(a.SSI, other.SSI) &&
		eq(a.EventLabel, other.EventLabel) &&
		eq(a.USSI, other.USSI) &&
		eq(a.SMI, other.SMI) &&
		eq(a.UsageMarker, other.UsageMarker)
}

func eq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AddressFromMacAccess parses the 2-bit selector address encoding of the
// MAC-ACCESS PDU.
func AddressFromMacAccess(data *bits.BitVector) Address {
	var address Address
	switch data.Take(2) {
	case 0b00:
		address.SetSSI(uint32(data.Take(24)))
	case 0b01:
		address.SetEventLabel(uint16(data.Take(10)))
	case 0b11:
		address.SetUSSI(uint32(data.Take(24)))
	}
	return address
}

// AddressFromMacData parses the 2-bit selector address encoding of the
// MAC-DATA PDU.
func AddressFromMacData(data *bits.BitVector) Address {
	// Same wire encoding as MAC-ACCESS, 21.4.2.3.
	return AddressFromMacAccess(data)
}

// AddressFromMacResource parses the 3-bit selector address encoding of the
// MAC-RESOURCE PDU. Selector 0b000 yields the empty address (null PDU).
func AddressFromMacResource(data *bits.BitVector) Address {
	var address Address
	switch data.Take(3) {
	case 0b001:
		address.SetSSI(uint32(data.Take(24)))
	case 0b010:
		address.SetEventLabel(uint16(data.Take(10)))
	case 0b011:
		address.SetUSSI(uint32(data.Take(24)))
	case 0b100:
		address.SetSMI(uint32(data.Take(24)))
	case 0b101:
		address.SetSSI(uint32(data.Take(24)))
		address.SetEventLabel(uint16(data.Take(10)))
	case 0b110:
		address.SetSSI(uint32(data.Take(24)))
		address.SetUsageMarker(uint8(data.Take(6)))
	case 0b111:
		address.SetSMI(uint32(data.Take(24)))
		address.SetEventLabel(uint16(data.Take(10)))
	}
	return address
}

// IsEmpty reports whether no component is present.
func (a Address) IsEmpty() bool {
	return a.CountryCode == nil && a.NetworkCode == nil && a.SNA == nil && a.SSI == nil &&
		a.EventLabel == nil && a.USSI == nil && a.SMI == nil && a.UsageMarker == nil
}
