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

package uppermac_test

import (
	"testing"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
	"github.com/USA-RedDragon/TETRAHub/internal/uppermac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitWriter accumulates MSB-first fields for building PDU test vectors.
type bitWriter struct {
	bits []byte
}

func (w *bitWriter) push(v uint64, n int) *bitWriter {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, byte(v>>i&1))
	}
	return w
}

func signalling(channel tetra.LogicalChannel, payload []byte) tetra.LogicalChannelDataAndCrc {
	return tetra.LogicalChannelDataAndCrc{Channel: channel, Data: bits.New(payload), CrcOK: true}
}

func TestTrafficPassesThrough(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 432)
	packets, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurst, tetra.LogicalChannelDataAndCrc{
		Channel: tetra.TrafficChannel,
		Data:    bits.New(payload),
		CrcOK:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, packets.UPlaneTraffic)
	assert.Equal(t, 432, packets.UPlaneTraffic.Data.BitsLeft())
	assert.Empty(t, packets.CPlaneSignalling)
}

func TestCorruptSignallingIsNotParsed(t *testing.T) {
	t.Parallel()

	packets, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurst, tetra.LogicalChannelDataAndCrc{
		Channel: tetra.SignallingChannelFull,
		Data:    bits.New(make([]byte, 268)),
		CrcOK:   false,
	})
	require.NoError(t, err)
	assert.Empty(t, packets.CPlaneSignalling)
	assert.Nil(t, packets.Broadcast)
	assert.Nil(t, packets.UPlaneTraffic)
}

func TestMacResourceNullPDUStopsBlock(t *testing.T) {
	t.Parallel()

	w := &bitWriter{}
	w.push(0b00, 2). // MAC-RESOURCE
				push(0, 1).     // fill bit indication
				push(0, 1).     // position of grant
				push(0b00, 2).  // encryption mode
				push(0, 1).     // random access flag
				push(0, 6).     // length indication
				push(0b000, 3). // address type: none -> null PDU
				push(1, 1)      // fill bit
	w.push(0, 10) // spare capacity

	packets, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurst,
		signalling(tetra.SignallingChannelHalfDownlink, w.bits))
	require.NoError(t, err)
	require.Len(t, packets.CPlaneSignalling, 1)
	assert.True(t, packets.CPlaneSignalling[0].IsNullPDU())
}

func TestMacResourceAddressAndTMSDU(t *testing.T) {
	t.Parallel()

	w := &bitWriter{}
	w.push(0b00, 2). // MAC-RESOURCE
				push(0, 1).         // fill bit indication
				push(0, 1).         // position of grant
				push(0b00, 2).      // encryption mode
				push(0, 1).         // random access flag
				push(7, 6).         // length indication: 7 octets = 56 bits
				push(0b110, 3).     // address: SSI + usage marker
				push(0x123456, 24). // SSI
				push(0x2A, 6).      // usage marker
				push(0, 1).         // power control flag
				push(0, 1).         // slot granting flag
				push(0, 1).         // channel allocation flag
				push(0b1011010, 7)  // TM-SDU: 56 - 49 header bits

	packets, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurst,
		signalling(tetra.SignallingChannelFull, w.bits))
	require.NoError(t, err)
	require.Len(t, packets.CPlaneSignalling, 1)

	packet := packets.CPlaneSignalling[0]
	assert.Equal(t, uppermac.MacResource, packet.Type)
	assert.False(t, packet.Encrypted)
	require.NotNil(t, packet.Address.SSI)
	require.NotNil(t, packet.Address.UsageMarker)
	assert.Equal(t, uint32(0x123456), *packet.Address.SSI)
	assert.Equal(t, uint8(0x2A), *packet.Address.UsageMarker)
	require.NotNil(t, packet.TMSDU)
	assert.Equal(t, uint64(0b1011010), packet.TMSDU.Take(7))
}

func TestMacResourceLengthIndicationOverflow(t *testing.T) {
	t.Parallel()

	w := &bitWriter{}
	w.push(0b00, 2).
		push(1, 1). // fill bits indicated
		push(0, 1).
		push(0b00, 2).
		push(0, 1).
		push(16, 6).    // declares 128 bits, far beyond the block
		push(0b001, 3). // SSI address
		push(0x000001, 24).
		push(0, 1).
		push(0, 1).
		push(0, 1).
		push(1, 1). // the single fill bit
		push(0, 4)

	_, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurst,
		signalling(tetra.SignallingChannelFull, w.bits))
	require.ErrorIs(t, err, uppermac.ErrLengthIndicationOverflow)
}

func TestMacAccessOnHalfUplink(t *testing.T) {
	t.Parallel()

	w := &bitWriter{}
	w.push(0b0, 1). // MAC-ACCESS
			push(0, 1).         // fill bit indication
			push(0, 1).         // encrypted
			push(0b00, 2).      // address: SSI
			push(0x00BEEF, 24). // SSI
			push(0, 1)          // no optional field
	w.push(0b10111011, 8) // TM-SDU fills the rest

	packets, err := uppermac.ParseLogicalChannel(tetra.ControlUplinkBurst,
		signalling(tetra.SignallingChannelHalfUplink, w.bits))
	require.NoError(t, err)
	require.Len(t, packets.CPlaneSignalling, 1)

	packet := packets.CPlaneSignalling[0]
	assert.Equal(t, uppermac.MacAccess, packet.Type)
	require.NotNil(t, packet.Address.SSI)
	assert.Equal(t, uint32(0xBEEF), *packet.Address.SSI)
	require.NotNil(t, packet.TMSDU)
	assert.Equal(t, uint64(0b10111011), packet.TMSDU.Take(8))
}

func TestMacUSignalOnStealingChannel(t *testing.T) {
	t.Parallel()

	w := &bitWriter{}
	w.push(0b11, 2). // MAC-U-SIGNAL
				push(1, 1). // second half slot stolen
				push(0xAB, 8)

	packets, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurstSplit,
		signalling(tetra.StealingChannel, w.bits))
	require.NoError(t, err)
	require.Len(t, packets.UPlaneSignalling, 1)
	assert.Equal(t, uppermac.MacUSignal, packets.UPlaneSignalling[0].Type)
	assert.Equal(t, 8, packets.UPlaneSignalling[0].TMSDU.BitsLeft())
}

func TestBroadcastSysinfoFillsHalfSlot(t *testing.T) {
	t.Parallel()

	w := &bitWriter{}
	w.push(0b10, 2). // broadcast
				push(0b00, 2).  // SYSINFO
				push(1000, 12). // main carrier
				push(4, 4).     // frequency band: 400 MHz
				push(0, 2).     // offset
				push(0, 3).     // duplex spacing field
				push(0, 1).     // reverse operation
				push(0b01, 2).
				push(0b010, 3).
				push(0b0101, 4).
				push(0b0011, 4).
				push(0b0100, 4).
				push(0, 1).     // hyperframe number follows
				push(1234, 16). // hyperframe number
				push(0b00, 2).  // even multiframe definition follows
				push(0, 20).
				push(0x1ABC, 14). // location area
				push(0xFFFF, 16). // subscriber class
				push(0b101010101010, 12)

	require.Len(t, w.bits, 124)

	packets, err := uppermac.ParseLogicalChannel(tetra.NormalDownlinkBurst,
		signalling(tetra.SignallingChannelHalfDownlink, w.bits))
	require.NoError(t, err)
	require.NotNil(t, packets.Broadcast)

	sysinfo := packets.Broadcast.SystemInfo
	require.NotNil(t, sysinfo)
	// 400 MHz band + 1000 carriers of 25 kHz
	assert.Equal(t, int32(425000000), sysinfo.DownlinkFrequency)
	// duplex spacing 10 MHz for band 4, row 0
	assert.Equal(t, int32(415000000), sysinfo.UplinkFrequency)
	require.NotNil(t, sysinfo.HyperFrameNumber)
	assert.Equal(t, uint16(1234), *sysinfo.HyperFrameNumber)
	assert.Equal(t, uint16(0x1ABC), sysinfo.LocationArea)

	// Broadcasts never appear on the uplink.
	_, err = uppermac.ParseLogicalChannel(tetra.NormalUplinkBurst,
		signalling(tetra.SignallingChannelFull, w.bits))
	require.ErrorIs(t, err, uppermac.ErrBroadcastOnUplink)
}
