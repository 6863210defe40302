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

package lowermac

import (
	"sync"
	"testing"

	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBSCH encodes a 60-bit BSCH with the given identity fields.
func buildBSCH(systemCode, colorCode, timeSlot, frame, multiframe, mcc, mnc uint64) []byte {
	payload := make([]byte, 0, 60)
	push := func(v uint64, n int) {
		for i := n - 1; i >= 0; i-- {
			payload = append(payload, byte(v>>i&1))
		}
	}
	push(systemCode, 4)
	push(colorCode, 6)
	push(timeSlot-1, 2)
	push(frame, 5)
	push(multiframe, 6)
	push(0, 2) // sharing mode
	push(0, 3) // reserved frames
	push(0, 1) // up lane dtx
	push(0, 1) // frame 18 extension
	push(0, 1) // reserved
	push(mcc, 10)
	push(mnc, 14)
	push(0, 1)
	push(0, 1)
	push(0, 2)
	push(0, 1)
	return payload
}

// buildSynchronizationBurst runs the transmit chain for the SB subfield:
// CRC-16 append, convolutional encode, rate-2/3 puncture, (120,11)
// interleave and scrambling with the fixed BSCH seed, placed at bits 94..214
// of an otherwise zero frame.
func buildSynchronizationBurst(t *testing.T, bsch []byte) []byte {
	t.Helper()
	codec := NewViterbiCodec()

	block := appendCRC16(bsch)
	require.Len(t, block, 76)

	transmitted := puncture23(codec.Encode(block))
	require.Len(t, transmitted, 120)

	scrambled := Descramble(interleave(transmitted, 11), tetra.BSCHScramblingSeed)

	frame := make([]byte, FrameBits)
	copy(frame[94:214], scrambled)
	return frame
}

func TestSynchronizationBurstRoundTrip(t *testing.T) {
	t.Parallel()

	bsch := buildBSCH(0b1001, 7, 1, 1, 1, 262, 16383)
	frame := buildSynchronizationBurst(t, bsch)

	l := New()
	result := l.Process(frame, tetra.SynchronizationBurst, nil)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Sync)

	assert.Equal(t, uint32(7), result.Sync.ColorCode)
	assert.Equal(t, uint32(262), result.Sync.MobileCountryCode)
	assert.Equal(t, uint32(16383), result.Sync.MobileNetworkCode)
	assert.Equal(t, uint32(7|16383<<6|262<<20)<<2|0b11, result.Sync.ScramblingCode)
	assert.Equal(t, tetra.NewTimebaseCounter(1, 1, 1), result.Sync.Time)

	// Block 2 of the burst was zero filled, so the SCH/HD slot comes out
	// with a failed CRC but is still emitted.
	require.NotNil(t, result.Slots)
	concrete := result.Slots.Concrete()
	require.Len(t, concrete, 1)
	assert.Equal(t, tetra.SignallingChannelHalfDownlink, concrete[0].Channel)
}

func TestBurstsWithoutSynchronizationAreDropped(t *testing.T) {
	t.Parallel()

	l := New()
	result := l.Process(make([]byte, FrameBits), tetra.NormalDownlinkBurst, nil)
	require.NoError(t, result.Err)
	assert.Nil(t, result.Slots)
}

func TestUplinkScramblingCodeInjection(t *testing.T) {
	t.Parallel()

	l := New()
	bsc := tetra.UplinkOnly(0x41BFFF1F)

	// A control uplink burst decodes without any BSCH; the garbage input
	// fails the CRC but the SCH/HU slot is still emitted.
	result := l.Process(make([]byte, 206), tetra.ControlUplinkBurst, bsc)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Slots)

	concrete := result.Slots.Concrete()
	require.Len(t, concrete, 1)
	assert.Equal(t, tetra.SignallingChannelHalfUplink, concrete[0].Channel)
	assert.False(t, concrete[0].CrcOK)
}

func TestNormalUplinkBurstSelectsSignalling(t *testing.T) {
	t.Parallel()

	l := New()
	result := l.Process(make([]byte, 462), tetra.NormalUplinkBurst, tetra.UplinkOnly(0x0003))
	require.NoError(t, result.Err)
	require.NotNil(t, result.Slots)

	concrete := result.Slots.Concrete()
	require.Len(t, concrete, 1)
	assert.Equal(t, tetra.SignallingChannelFull, concrete[0].Channel)
}

func TestCorruptBSCHDecodesWithProvidedSync(t *testing.T) {
	t.Parallel()

	l := New()
	bsch := buildBSCH(0b1001, 7, 1, 1, 1, 262, 16383)
	first := l.Process(buildSynchronizationBurst(t, bsch), tetra.SynchronizationBurst, nil)
	require.NoError(t, first.Err)
	require.NotNil(t, first.Sync)

	// A corrupted synchronization burst reports a decode error and no new
	// sync; its channels still decode against the sync the caller passed.
	frame := buildSynchronizationBurst(t, bsch)
	for i := 94; i < 214; i++ {
		frame[i] ^= 1
	}
	result := l.Process(frame, tetra.SynchronizationBurst, first.Sync)
	assert.Error(t, result.Err)
	assert.Nil(t, result.Sync)
	assert.NotNil(t, result.Slots)
}

func TestProcessIsPure(t *testing.T) {
	t.Parallel()

	l := New()
	bsc := tetra.UplinkOnly(0x41BFFF1F)
	bsc.Time = tetra.NewTimebaseCounter(2, 3, 4)

	frame := make([]byte, FrameBits)
	first := l.Process(frame, tetra.NormalDownlinkBurst, bsc)
	require.NoError(t, first.Err)

	// The caller's cell state is untouched: the per-burst timebase advance
	// happens on a local copy only.
	assert.Equal(t, tetra.NewTimebaseCounter(2, 3, 4), bsc.Time)
	assert.Equal(t, uint32(0x41BFFF1F), bsc.ScramblingCode)

	// Identical inputs give identical outputs, also when the calls run
	// concurrently the way the pool workers do.
	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Process(frame, tetra.NormalDownlinkBurst, bsc)
		}(i)
	}
	wg.Wait()

	want := first.Slots.Concrete()
	for _, result := range results {
		require.NoError(t, result.Err)
		require.NotNil(t, result.Slots)
		got := result.Slots.Concrete()
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Channel, got[i].Channel)
			assert.Equal(t, want[i].CrcOK, got[i].CrcOK)
			assert.Equal(t, want[i].Data.String(), got[i].Data.String())
		}
	}
	assert.Equal(t, tetra.NewTimebaseCounter(2, 3, 4), bsc.Time)
}
