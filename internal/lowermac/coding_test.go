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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// interleave is the transmit-side inverse of Deinterleave, used to build
// test vectors.
func interleave(data []byte, a int) []byte {
	k := len(data)
	out := make([]byte, k)
	for i := 0; i < k; i++ {
		out[(a*(i+1))%k] = data[i]
	}
	return out
}

// puncture23 selects the transmitted bits from the mother code output,
// 8.2.3.1.3. It is the transmit-side inverse of Depuncture23.
func puncture23(soft []int8) []byte {
	p := [4]int{0, 1, 2, 5}
	const t = 3
	const period = 8

	out := make([]byte, len(soft)*3/8)
	for j := 1; j <= len(out); j++ {
		k := period*((j-1)/t) + p[j-t*((j-1)/t)]
		if soft[k-1] > 0 {
			out[j-1] = 1
		}
	}
	return out
}

// appendCRC16 appends the ones' complement of the CRC-16-CCITT remainder, so
// the receiver's register lands on the 0x1D0F residue.
func appendCRC16(data []byte) []byte {
	crc := uint16(0xFFFF)
	for _, bit := range data {
		crc ^= uint16(bit) << 15
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ 0x1021
		} else {
			crc <<= 1
		}
	}
	crc = ^crc

	out := make([]byte, 0, len(data)+16)
	out = append(out, data...)
	for i := 15; i >= 0; i-- {
		out = append(out, byte(crc>>i&1))
	}
	return out
}

func randomBits(rt *rapid.T, label string, n int) []byte {
	bits := make([]byte, n)
	for i := range bits {
		if rapid.Bool().Draw(rt, label) {
			bits[i] = 1
		}
	}
	return bits
}

func TestDescrambleInvolutive(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		seed := uint32(rapid.Uint32().Draw(rt, "seed"))
		data := randomBits(rt, "bit", rapid.IntRange(1, 432).Draw(rt, "len"))

		assert.Equal(t, data, Descramble(Descramble(data, seed), seed))
	})
}

func TestDescrambleKeystreamIsDeterministic(t *testing.T) {
	t.Parallel()

	zeros := make([]byte, 432)
	first := Descramble(zeros, 0x0003)
	assert.Equal(t, first, Descramble(zeros, 0x0003))

	// Different seeds produce different keystreams.
	assert.NotEqual(t, first, Descramble(zeros, 0x41BFFF1F))
}

func TestDeinterleaveInverse(t *testing.T) {
	t.Parallel()

	pairs := []struct{ k, a int }{
		{30, 13}, {120, 11}, {168, 13}, {216, 101}, {432, 103},
	}
	for _, pair := range pairs {
		data := make([]byte, pair.k)
		for i := range data {
			data[i] = byte(i % 2)
			if i%5 == 0 {
				data[i] = 1
			}
		}
		assert.Equal(t, data, Deinterleave(interleave(data, pair.a), pair.a), "K=%d a=%d", pair.k, pair.a)
	}
}

func TestDepunctureRestoresPuncturedBits(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		// A depunctured block has 8 soft values per 3 transmitted bits.
		n := rapid.IntRange(1, 54).Draw(rt, "n") * 3
		data := randomBits(rt, "bit", n)

		soft := Depuncture23(data)
		assert.Len(t, soft, 4*n*2/3)

		// The transmitted positions carry the signs, all others are
		// erasures.
		recovered := puncture23(soft)
		assert.Equal(t, data, recovered)

		erasures := 0
		for _, v := range soft {
			if v == 0 {
				erasures++
			}
		}
		assert.Equal(t, len(soft)-n, erasures)
	})
}

func TestViterbiRoundTrip(t *testing.T) {
	t.Parallel()
	codec := NewViterbiCodec()
	rapid.Check(t, func(rt *rapid.T) {
		data := randomBits(rt, "bit", rapid.IntRange(1, 200).Draw(rt, "len"))

		decoded := codec.Decode(codec.Encode(data))
		require.GreaterOrEqual(t, len(decoded), len(data))
		assert.Equal(t, data, decoded[:len(data)])
	})
}

func TestViterbiThroughPunctureChain(t *testing.T) {
	t.Parallel()
	codec := NewViterbiCodec()
	rapid.Check(t, func(rt *rapid.T) {
		// The punctured length is integral only when the trellis step count
		// is even.
		n := rapid.IntRange(1, 80).Draw(rt, "n")*2 - 4
		if n <= 0 {
			n = 2
		}
		data := randomBits(rt, "bit", n)

		transmitted := puncture23(codec.Encode(data))
		decoded := codec.Decode(Depuncture23(transmitted))
		require.GreaterOrEqual(t, len(decoded), len(data))
		assert.Equal(t, data, decoded[:len(data)])
	})
}

func TestCheckCRC16CCITT(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		data := randomBits(rt, "bit", rapid.IntRange(8, 268).Draw(rt, "len"))

		codeword := appendCRC16(data)
		require.True(t, CheckCRC16CCITT(codeword, len(codeword)))

		flip := rapid.IntRange(0, len(codeword)-1).Draw(rt, "flip")
		codeword[flip] ^= 1
		assert.False(t, CheckCRC16CCITT(codeword, len(codeword)))
	})
}

func TestReedMullerDecodeValidCodeword(t *testing.T) {
	t.Parallel()

	// The all-zero word is a valid codeword of any linear code.
	assert.Equal(t, make([]byte, 14), ReedMuller3014Decode(make([]byte, 30)))
}

func TestReedMullerCorrectsSystematicBitFlips(t *testing.T) {
	t.Parallel()

	// A flipped systematic bit is outvoted by its four parity estimates.
	for i := 0; i < 14; i++ {
		word := make([]byte, 30)
		word[i] = 1
		assert.Equal(t, make([]byte, 14), ReedMuller3014Decode(word), "flip at %d", i)
	}
}
