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

package bits_test

import (
	"testing"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeMSBFirst(t *testing.T) {
	t.Parallel()
	v := bits.New([]byte{1, 0, 1, 1, 0, 0, 1, 0})

	assert.Equal(t, uint64(0b101), v.Take(3))
	assert.Equal(t, uint64(0b10010), v.Take(5))
	assert.Equal(t, 0, v.BitsLeft())
	require.NoError(t, v.Err())
}

func TestTakeShortReadIsSticky(t *testing.T) {
	t.Parallel()
	v := bits.New([]byte{1, 1})

	_ = v.Take(3)
	require.ErrorIs(t, v.Err(), bits.ErrShortRead)

	// Every later extraction keeps failing and returns zero values.
	assert.Equal(t, uint64(0), v.Take(1))
	assert.Equal(t, 0, v.TakeVector(1).BitsLeft())
	require.ErrorIs(t, v.Err(), bits.ErrShortRead)
}

func TestLookDoesNotConsume(t *testing.T) {
	t.Parallel()
	v := bits.New([]byte{0, 1, 1, 0, 1})

	assert.Equal(t, uint64(0b110), v.Look(3, 1))
	assert.Equal(t, 5, v.BitsLeft())
	assert.Equal(t, uint64(0b01101), v.Take(5))
	require.NoError(t, v.Err())
}

func TestTakeVectorIsIndependent(t *testing.T) {
	t.Parallel()
	v := bits.New([]byte{1, 0, 1, 0})

	sub := v.TakeVector(2)
	assert.Equal(t, uint64(0b10), sub.Take(2))
	assert.Equal(t, uint64(0b10), v.Take(2))
	require.NoError(t, v.Err())
	require.NoError(t, sub.Err())
}

func TestTakeLast(t *testing.T) {
	t.Parallel()
	v := bits.New([]byte{1, 1, 0, 0, 1, 0, 1, 1})

	assert.Equal(t, uint64(0b011), v.TakeLast(3))
	assert.Equal(t, 5, v.BitsLeft())
	assert.Equal(t, uint64(0b11001), v.Take(5))
}

func TestTakeAllTooLarge(t *testing.T) {
	t.Parallel()
	v := bits.New(make([]byte, 65))

	_ = v.TakeAll()
	require.ErrorIs(t, v.Err(), bits.ErrTakeAllTooLarge)
}

func TestAppendCompactsConsumedPrefix(t *testing.T) {
	t.Parallel()
	v := bits.New([]byte{1, 1, 0, 1})
	_ = v.Take(2)

	v.Append(bits.New([]byte{1, 0}))
	assert.Equal(t, 4, v.BitsLeft())
	assert.Equal(t, uint64(0b0110), v.Take(4))
	require.NoError(t, v.Err())
}

func TestIsMacPadding(t *testing.T) {
	t.Parallel()

	assert.True(t, bits.New([]byte{1, 0, 0, 0}).IsMacPadding())
	assert.True(t, bits.New([]byte{1}).IsMacPadding())
	assert.False(t, bits.New([]byte{0, 0}).IsMacPadding())
	assert.False(t, bits.New([]byte{1, 0, 1}).IsMacPadding())
	assert.False(t, bits.New(nil).IsMacPadding())
}

func TestRemoveFillBits(t *testing.T) {
	t.Parallel()

	v := bits.New([]byte{0, 1, 1, 0, 1, 0, 0})
	v.RemoveFillBits()
	assert.Equal(t, "0110", v.String())

	// Removing from an all-zero tail empties the vector.
	v = bits.New([]byte{0, 0, 0})
	v.RemoveFillBits()
	assert.Equal(t, 0, v.BitsLeft())
}

func TestComputeFCSShortFramePreShift(t *testing.T) {
	t.Parallel()

	// For frames shorter than 32 bits the register is pre-shifted so the
	// FCS stays defined. The exact value is pinned to guard the pre-shift.
	v := bits.New([]byte{1})
	first := v.ComputeFCS()
	assert.Equal(t, uint32(0xFFFFFFFF), first)

	// Computing twice over the same remaining bits is stable.
	assert.Equal(t, first, v.ComputeFCS())

	// A 33-bit frame takes the normal path and differs from the short one.
	long := bits.New(make([]byte, 33))
	assert.NotEqual(t, first, long.ComputeFCS())
}

func TestComputeFCSDetectsBitFlip(t *testing.T) {
	t.Parallel()

	data := []byte{1, 0, 1, 1, 0, 0, 1, 0, 1, 0, 1, 1, 0, 1, 1, 1, 0, 0, 1, 0, 1, 0, 1, 0, 1, 1, 0, 0, 1, 1, 0, 1, 0, 1}
	fcs := bits.New(data).ComputeFCS()

	for i := range data {
		flipped := make([]byte, len(data))
		copy(flipped, data)
		flipped[i] ^= 1
		assert.NotEqual(t, fcs, bits.New(flipped).ComputeFCS(), "flip at %d", i)
	}
}
