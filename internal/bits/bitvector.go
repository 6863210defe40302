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

// Package bits implements the bit cursor used by all of the air interface
// parsers. A BitVector holds one bit per byte and a read offset; all field
// extraction is MSB-first. Underflow is sticky: the first short read latches
// ErrShortRead and every later extraction returns zero values, so parsers
// check Err once at their boundary instead of after every field.
package bits

import "errors"

var (
	// ErrShortRead indicates a field extraction ran past the end of the vector.
	ErrShortRead = errors.New("bit vector: short read")
	// ErrTakeAllTooLarge indicates TakeAll was called with more than 64 bits remaining.
	ErrTakeAllTooLarge = errors.New("bit vector: more than 64 bits remaining")
)

// BitVector is a cursor over a logical bit sequence, one bit per byte.
type BitVector struct {
	data       []byte
	length     int
	readOffset int
	err        error
}

// New creates a BitVector over the given bits. The slice is not copied; the
// caller must not modify it afterwards.
func New(bits []byte) *BitVector {
	return &BitVector{data: bits, length: len(bits)}
}

// Copy returns an independent cursor over the remaining bits.
func (v *BitVector) Copy() *BitVector {
	bits := make([]byte, v.length)
	copy(bits, v.data[v.readOffset:v.readOffset+v.length])
	return New(bits)
}

// BitsLeft returns the number of unread bits.
func (v *BitVector) BitsLeft() int {
	return v.length
}

// Err returns the first extraction error, or nil.
func (v *BitVector) Err() error {
	return v.err
}

func (v *BitVector) fail(err error) {
	if v.err == nil {
		v.err = err
	}
}

// Take consumes n bits MSB-first and returns them as an integer.
func (v *BitVector) Take(n int) uint64 {
	if v.err != nil {
		return 0
	}
	if n > v.length {
		v.fail(ErrShortRead)
		return 0
	}
	var ret uint64
	for i := 0; i < n; i++ {
		ret = ret<<1 | uint64(v.data[v.readOffset+i])
	}
	v.readOffset += n
	v.length -= n
	return ret
}

// Look returns n bits at offset bits past the cursor without consuming them.
func (v *BitVector) Look(n, offset int) uint64 {
	if v.err != nil {
		return 0
	}
	if offset+n > v.length {
		v.fail(ErrShortRead)
		return 0
	}
	var ret uint64
	for i := 0; i < n; i++ {
		ret = ret<<1 | uint64(v.data[v.readOffset+offset+i])
	}
	return ret
}

// TakeVector consumes n bits and returns them as a new independent vector.
func (v *BitVector) TakeVector(n int) *BitVector {
	if v.err != nil {
		return New(nil)
	}
	if n > v.length {
		v.fail(ErrShortRead)
		return New(nil)
	}
	bits := make([]byte, n)
	copy(bits, v.data[v.readOffset:v.readOffset+n])
	v.readOffset += n
	v.length -= n
	return New(bits)
}

// TakeLast consumes n bits from the tail of the vector. Used to pull a
// trailing FCS off a TL-SDU before computing the remainder over the rest.
func (v *BitVector) TakeLast(n int) uint64 {
	if v.err != nil {
		return 0
	}
	if n > v.length {
		v.fail(ErrShortRead)
		return 0
	}
	var ret uint64
	for i := v.length - n; i < v.length; i++ {
		ret = ret<<1 | uint64(v.data[v.readOffset+i])
	}
	v.length -= n
	return ret
}

// TakeAll consumes all remaining bits, which must number at most 64.
func (v *BitVector) TakeAll() uint64 {
	if v.err != nil {
		return 0
	}
	if v.length > 64 {
		v.fail(ErrTakeAllTooLarge)
		return 0
	}
	return v.Take(v.length)
}

// Append appends the remaining bits of other. If a prefix of v has already
// been consumed the storage is compacted first so the cursor stays valid.
func (v *BitVector) Append(other *BitVector) {
	if v.readOffset > 0 {
		compacted := make([]byte, v.length)
		copy(compacted, v.data[v.readOffset:v.readOffset+v.length])
		v.data = compacted
		v.readOffset = 0
	} else {
		v.data = v.data[:v.length]
	}
	v.data = append(v.data, other.data[other.readOffset:other.readOffset+other.length]...)
	v.length += other.length
}

// ComputeFCS computes the 32-bit frame check sequence (CRC-32 ITU-T V.41,
// polynomial 0x04C11DB7, initial register all ones, final bitwise NOT) over
// the remaining bits without consuming them. When fewer than 32 bits remain
// the register is pre-shifted left by (32 - len) to keep the FCS defined for
// short frames.
func (v *BitVector) ComputeFCS() uint32 {
	crc := uint32(0xFFFFFFFF)
	if v.length < 32 {
		crc <<= 32 - v.length
	}
	for i := 0; i < v.length; i++ {
		bit := (uint32(v.data[v.readOffset+i]) ^ (crc >> 31)) & 1
		crc <<= 1
		if bit != 0 {
			crc ^= 0x04C11DB7
		}
	}
	return ^crc
}

// IsMacPadding reports whether the remaining bits are exactly one 1 bit
// followed by zero or more 0 bits.
func (v *BitVector) IsMacPadding() bool {
	if v.length == 0 {
		return false
	}
	if v.data[v.readOffset] != 1 {
		return false
	}
	for i := 1; i < v.length; i++ {
		if v.data[v.readOffset+i] != 0 {
			return false
		}
	}
	return true
}

// RemoveFillBits pops trailing bits up to and including the last 1 bit.
func (v *BitVector) RemoveFillBits() {
	for v.length > 0 {
		last := v.data[v.readOffset+v.length-1]
		v.length--
		if last == 1 {
			return
		}
	}
}

// String renders the remaining bits as a 0/1 string.
func (v *BitVector) String() string {
	buf := make([]byte, v.length)
	for i := 0; i < v.length; i++ {
		buf[i] = '0' + v.data[v.readOffset+i]
	}
	return string(buf)
}
