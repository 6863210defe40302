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

// Package lowermac implements the TETRA lower MAC: the channel coding
// primitives of ETSI EN 300 392-2 clause 8 and the per-burst-type decode
// pipelines that turn aligned 510-bit bursts into logical channel slots.
package lowermac

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// maxScrambledBits is the longest scrambled block in any phase modulation
// burst, 8.2.5.
const maxScrambledBits = 432

// scramblerTables caches the generated LFSR keystream per scrambling code.
// The cache is shared by all pool workers; a cell produces exactly one code
// per lock so the cache stays tiny.
var scramblerTables = xsync.NewMap[uint32, []byte]()

// scramblerTable returns the 432-bit keystream for the given scrambling code.
func scramblerTable(scramblingCode uint32) []byte {
	if table, ok := scramblerTables.Load(scramblingCode); ok {
		return table
	}

	// Feedback polynomial taps, 8.2.5.2 (8.39).
	taps := [14]uint8{32, 26, 23, 22, 16, 12, 11, 10, 8, 7, 5, 4, 2, 1}

	table := make([]byte, maxScrambledBits)
	lfsr := scramblingCode
	for i := range table {
		var bit uint32
		for _, tap := range taps {
			bit ^= lfsr >> (32 - tap)
		}
		bit &= 1
		lfsr = lfsr>>1 | bit<<31
		table[i] = byte(bit)
	}

	scramblerTables.Store(scramblingCode, table)
	return table
}

// Descramble applies the Fibonacci LFSR descrambling of 8.2.5 and returns a
// new slice. The input must not exceed 432 bits. Descrambling is its own
// inverse.
func Descramble(data []byte, scramblingCode uint32) []byte {
	table := scramblerTable(scramblingCode)
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ table[i]
	}
	return out
}

// Deinterleave applies the (K,a) block deinterleaver of 8.2.4 with K equal to
// the input length.
func Deinterleave(data []byte, a int) []byte {
	k := len(data)
	out := make([]byte, k)
	for i := 0; i < k; i++ {
		// DataOut[i] = DataIn[k'-1] with k' = 1 + (a*(i+1)) mod K.
		out[i] = data[(a*(i+1))%k]
	}
	return out
}

// Depuncture23 reverses the rate-2/3 puncturing of 8.2.3.1.3. Present bits
// become +1 or -1 soft values; punctured positions stay 0, which the Viterbi
// decoder treats as erasures.
func Depuncture23(data []byte) []int8 {
	// P[1..t], 8.2.3.1.3.
	p := [4]int{0, 1, 2, 5}
	const t = 3
	const period = 8

	out := make([]int8, 4*len(data)*2/3)
	for j := 1; j <= len(data); j++ {
		k := period*((j-1)/t) + p[j-t*((j-1)/t)]
		if data[j-1] != 0 {
			out[k-1] = 1
		} else {
			out[k-1] = -1
		}
	}
	return out
}

// CheckCRC16CCITT processes the first checkSize bits MSB-first through the
// CRC-16-CCITT register (initial 0xFFFF, polynomial 0x1021) and reports
// whether the residue matches. checkSize covers both the information word and
// the appended CRC, so the expected residue is the constant 0x1D0F.
func CheckCRC16CCITT(data []byte, checkSize int) bool {
	crc := uint16(0xFFFF)
	for i := 0; i < checkSize; i++ {
		crc ^= uint16(data[i]) << 15
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ 0x1021
		} else {
			crc <<= 1
		}
	}
	return crc == 0x1D0F
}

// reedMullerParity lists, for each of the 14 output bits, the four parity
// check equations over the 17 tail bits (1-based indices relative to
// input[13]), 8.2.3.1.5. Together with the systematic bit each output has
// five estimates; the decoded bit is their majority.
var reedMullerParity = [14][4][]int{
	{{3, 5, 6, 7, 11}, {1, 2, 5, 6, 8, 9}, {2, 3, 4, 5, 9, 10}, {1, 4, 5, 7, 8, 10, 11}},
	{{1, 4, 5, 9, 11}, {1, 2, 5, 6, 7, 10}, {2, 3, 4, 5, 7, 8}, {3, 5, 6, 8, 9, 10, 11}},
	{{2, 5, 8, 10, 11}, {1, 3, 5, 7, 9, 10}, {4, 5, 6, 7, 8, 9}, {1, 2, 3, 4, 5, 6, 11}},
	{{7, 8, 9, 12, 13, 14}, {1, 2, 3, 11, 12, 13, 14}, {2, 4, 6, 8, 10, 11, 12, 13, 14}, {1, 3, 4, 6, 7, 9, 10, 12, 13, 14}},
	{{1, 4, 5, 11, 12, 13, 15}, {3, 5, 6, 8, 10, 11, 12, 13, 15}, {1, 2, 5, 6, 7, 9, 10, 12, 13, 15}, {2, 3, 4, 5, 7, 8, 9, 12, 13, 15}},
	{{7, 9, 10, 12, 14, 15}, {2, 4, 6, 11, 12, 14, 15}, {1, 2, 3, 8, 10, 11, 12, 14, 15}, {1, 3, 4, 6, 7, 8, 9, 12, 14, 15}},
	{{3, 5, 6, 11, 13, 14, 15}, {1, 4, 5, 8, 10, 11, 13, 14, 15}, {1, 2, 5, 6, 7, 8, 9, 13, 14, 15}, {2, 3, 4, 5, 7, 9, 10, 13, 14, 15}},
	{{2, 5, 7, 9, 12, 13, 14, 15, 16}, {1, 3, 5, 8, 11, 12, 13, 14, 15, 16}, {4, 5, 6, 10, 11, 12, 13, 14, 15, 16}, {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 13, 14, 15, 16}},
	{{2, 3, 9, 12, 13, 16}, {1, 7, 8, 11, 12, 13, 16}, {3, 4, 6, 7, 10, 11, 12, 13, 16}, {1, 2, 4, 6, 8, 9, 10, 12, 13, 16}},
	{{1, 3, 8, 12, 14, 16}, {4, 6, 10, 12, 14, 16}, {2, 7, 9, 11, 12, 14, 16}, {1, 2, 3, 4, 6, 7, 8, 9, 10, 11, 12, 14, 16}},
	{{1, 2, 7, 13, 14, 16}, {3, 8, 9, 11, 13, 14, 16}, {1, 4, 6, 9, 10, 11, 13, 14, 16}, {2, 3, 4, 6, 7, 8, 10, 13, 14, 16}},
	{{2, 6, 9, 12, 15, 16}, {4, 7, 10, 11, 12, 15, 16}, {1, 3, 6, 7, 8, 11, 12, 15, 16}, {1, 2, 3, 4, 8, 9, 10, 12, 15, 16}},
	{{5, 8, 10, 11, 13, 15, 16}, {1, 3, 4, 5, 6, 11, 13, 15, 16}, {1, 2, 3, 5, 7, 9, 10, 13, 15, 16}, {2, 4, 5, 6, 7, 8, 9, 13, 15, 16}},
	{{2, 4, 7, 14, 15, 16}, {6, 9, 10, 11, 14, 15, 16}, {1, 3, 4, 8, 9, 11, 14, 15, 16}, {1, 2, 3, 6, 7, 8, 10, 14, 15, 16}},
}

// ReedMuller3014Decode decodes a 30-bit Reed-Muller (30,14) codeword by
// soft majority over the systematic bit and its four parity estimates.
func ReedMuller3014Decode(data []byte) []byte {
	out := make([]byte, 14)
	for i := range out {
		votes := int(data[i])
		for _, equation := range reedMullerParity[i] {
			var parity byte
			for _, idx := range equation {
				parity ^= data[13+idx]
			}
			votes += int(parity)
		}
		if votes >= 3 {
			out[i] = 1
		}
	}
	return out
}
