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

package tetra_test

import (
	"testing"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTimebaseCounterIncrement(t *testing.T) {
	t.Parallel()

	tc := tetra.NewTimebaseCounter(4, 18, 60)
	tc.Increment()
	assert.Equal(t, tetra.NewTimebaseCounter(1, 1, 1), tc)

	tc = tetra.NewTimebaseCounter(4, 1, 1)
	tc.Increment()
	assert.Equal(t, tetra.NewTimebaseCounter(1, 2, 1), tc)
}

func TestTimebaseCounterMonotonic(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		tc := tetra.NewTimebaseCounter(
			uint16(rapid.IntRange(1, 4).Draw(rt, "ts")),
			uint16(rapid.IntRange(1, 18).Draw(rt, "fn")),
			uint16(rapid.IntRange(1, 60).Draw(rt, "mn")),
		)
		n := rapid.IntRange(0, 1000).Draw(rt, "n")

		start := tc.Count()
		for i := 0; i < n; i++ {
			tc.Increment()
		}
		// Counting is modular over a full hyperframe of 4*18*60 bursts.
		assert.Equal(t, (start+uint(n))%(4*18*60), tc.Count()%(4*18*60))
	})
}

func TestAddressMergeAssociative(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		gen := func(label string) tetra.Address {
			var a tetra.Address
			if rapid.Bool().Draw(rt, label+"_ssi?") {
				a.SetSSI(uint32(rapid.IntRange(0, 1<<24-1).Draw(rt, label+"_ssi")))
			}
			if rapid.Bool().Draw(rt, label+"_el?") {
				a.SetEventLabel(uint16(rapid.IntRange(0, 1<<10-1).Draw(rt, label+"_el")))
			}
			if rapid.Bool().Draw(rt, label+"_um?") {
				a.SetUsageMarker(uint8(rapid.IntRange(0, 63).Draw(rt, label+"_um")))
			}
			return a
		}
		a, b, c := gen("a"), gen("b"), gen("c")

		left := a
		left.Merge(b)
		left.Merge(c)

		bc := b
		bc.Merge(c)
		right := a
		right.Merge(bc)

		assert.True(t, left.Equal(right))
	})
}

func TestAddressFromMacResourceSSIWithUsageMarker(t *testing.T) {
	t.Parallel()

	// selector 0b110 followed by a 24-bit SSI and a 6-bit usage marker
	payload := []byte{1, 1, 0}
	for i := 23; i >= 0; i-- {
		payload = append(payload, byte(uint32(0x123456)>>i&1))
	}
	for i := 5; i >= 0; i-- {
		payload = append(payload, byte(0x2A>>i&1))
	}

	address := tetra.AddressFromMacResource(bits.New(payload))
	require.NotNil(t, address.SSI)
	require.NotNil(t, address.UsageMarker)
	assert.Equal(t, uint32(0x123456), *address.SSI)
	assert.Equal(t, uint8(0x2A), *address.UsageMarker)
	assert.Nil(t, address.EventLabel)
	assert.Nil(t, address.SMI)
	assert.Nil(t, address.USSI)
	assert.Nil(t, address.CountryCode)
}

func TestParseBSCHScramblingCode(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 0, 60)
	push := func(v uint64, n int) {
		for i := n - 1; i >= 0; i-- {
			payload = append(payload, byte(v>>i&1))
		}
	}
	push(0b1001, 4) // system code
	push(7, 6)      // color code
	push(0, 2)      // time slot 1
	push(1, 5)      // frame
	push(1, 6)      // multiframe
	push(0, 2)      // sharing mode
	push(0, 3)      // reserved frames
	push(0, 1)      // up lane dtx
	push(0, 1)      // frame 18 extension
	push(0, 1)      // reserved
	push(262, 10)   // mcc
	push(16383, 14) // mnc
	push(0, 1)
	push(0, 1)
	push(0, 2)
	push(0, 1)

	bsc, err := tetra.ParseBSCH(bits.New(payload))
	require.NoError(t, err)

	assert.Equal(t, uint8(0b1001), bsc.SystemCode)
	assert.Equal(t, uint32(7), bsc.ColorCode)
	assert.Equal(t, tetra.NewTimebaseCounter(1, 1, 1), bsc.Time)
	assert.Equal(t, uint32(262), bsc.MobileCountryCode)
	assert.Equal(t, uint32(16383), bsc.MobileNetworkCode)

	// scrambling = ((color | mnc<<6 | mcc<<20) << 2) | 0b11
	want := uint32(7|16383<<6|262<<20)<<2 | 0b11
	assert.Equal(t, want, bsc.ScramblingCode)
}

func TestParseAACH(t *testing.T) {
	t.Parallel()

	parse := func(header, field1 uint64, frame uint16) tetra.AccessAssignmentChannel {
		payload := make([]byte, 0, 14)
		for i := 1; i >= 0; i-- {
			payload = append(payload, byte(header>>i&1))
		}
		for i := 5; i >= 0; i-- {
			payload = append(payload, byte(field1>>i&1))
		}
		payload = append(payload, 0, 0, 0, 0, 0, 0)

		aach, err := tetra.ParseAACH(tetra.NormalDownlinkBurst, tetra.NewTimebaseCounter(1, frame, 1), bits.New(payload))
		require.NoError(t, err)
		return aach
	}

	assert.Equal(t, tetra.CommonControl, parse(0b00, 0b010101, 3).DownlinkUsage)
	assert.Equal(t, tetra.Unallocated, parse(0b01, 0b000000, 3).DownlinkUsage)
	assert.Equal(t, tetra.AssignedControl, parse(0b01, 0b000001, 3).DownlinkUsage)
	assert.Equal(t, tetra.CommonAndAssignedControl, parse(0b01, 0b000011, 3).DownlinkUsage)

	traffic := parse(0b01, 0b000101, 3)
	assert.Equal(t, tetra.Traffic, traffic.DownlinkUsage)
	assert.Equal(t, 0b000101, traffic.DownlinkTrafficUsageMarker)

	// Frame 18 is always common control regardless of the header.
	assert.Equal(t, tetra.CommonControl, parse(0b01, 0b000101, 18).DownlinkUsage)

	_, err := tetra.ParseAACH(tetra.NormalUplinkBurst, tetra.NewTimebaseCounter(1, 1, 1), bits.New(make([]byte, 14)))
	require.Error(t, err)
}
