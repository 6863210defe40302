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

package phy

import (
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

// symbolWindow is the fixed symbol history the uplink correlators look at.
const symbolWindow = 300

// sequenceDetectionThreshold is the correlation magnitude above which a
// training sequence hit is declared. Candidate bursts are emitted eagerly;
// the lower MAC CRC is the real filter.
const sequenceDetectionThreshold = 1.5

// IQ training sequences as π/4-DQPSK constellation points, 9.4.4.3.
var (
	trainingSeqN = []complex64{
		-1 - 1i, -1 + 1i, 1 + 1i, 1 + 1i, -1 - 1i, 1 - 1i,
		1 - 1i, -1 + 1i, -1 - 1i, -1 + 1i, 1 + 1i,
	}
	trainingSeqP = []complex64{
		-1 + 1i, -1 - 1i, 1 - 1i, 1 - 1i, -1 + 1i, 1 + 1i,
		1 + 1i, -1 - 1i, -1 + 1i, -1 - 1i, 1 - 1i,
	}
	trainingSeqX = []complex64{
		1 - 1i, -1 + 1i, -1 - 1i, -1 + 1i, 1 + 1i, 1 + 1i, -1 - 1i, 1 - 1i,
		1 - 1i, -1 + 1i, -1 - 1i, -1 + 1i, 1 + 1i, 1 + 1i, -1 - 1i,
	}
)

// IQStreamDecoder consumes complex baseband symbols. On the downlink each
// symbol is hard-decided into two bits and fed to the bit synchronizer; on
// the uplink a window of hard-decided symbols is correlated against the
// training sequences and candidate bursts are emitted as bit streams.
type IQStreamDecoder struct {
	emit       BurstFunc
	bitDecoder *BitStreamDecoder
	isUplink   bool

	symbols     *fixedQueue
	hardSymbols *fixedQueue
}

// NewIQStreamDecoder creates an IQ-path synchronizer. On the downlink the
// symbols are delegated to bitDecoder after hard decision.
func NewIQStreamDecoder(emit BurstFunc, bitDecoder *BitStreamDecoder, isUplink bool) *IQStreamDecoder {
	return &IQStreamDecoder{
		emit:        emit,
		bitDecoder:  bitDecoder,
		isUplink:    isUplink,
		symbols:     newFixedQueue(symbolWindow),
		hardSymbols: newFixedQueue(symbolWindow),
	}
}

// hardDecision quantizes a symbol to its constellation quadrant.
func hardDecision(symbol complex64) complex64 {
	re, im := real(symbol), imag(symbol)
	switch {
	case re > 0 && im > 0:
		return complex(1, 1)
	case re > 0:
		return complex(1, -1)
	case im > 0:
		return complex(-1, 1)
	default:
		return complex(-1, -1)
	}
}

// symbolBits maps one symbol to its two bits by quadrant.
func symbolBits(symbol complex64) (byte, byte) {
	re, im := real(symbol), imag(symbol)
	if re > 0 {
		if im > 0 {
			return 0, 0
		}
		return 1, 0
	}
	if im > 0 {
		return 0, 1
	}
	return 1, 1
}

func symbolsToBits(symbols []complex64) []byte {
	bits := make([]byte, 0, 2*len(symbols))
	for _, s := range symbols {
		b0, b1 := symbolBits(s)
		bits = append(bits, b0, b1)
	}
	return bits
}

// correlate sums window[i] * conj(seq[i]); this equals the first valid
// sample of convolving the window with the time-reversed conjugate of the
// training sequence.
func correlate(window []complex64, seq []complex64) complex64 {
	var v complex64
	for i, s := range seq {
		re, im := real(s), -imag(s)
		v += window[i] * complex(re, im)
	}
	return v
}

func magSquared(v complex64) float64 {
	re, im := float64(real(v)), float64(imag(v))
	return re*re + im*im
}

// ProcessComplex pushes one received symbol.
func (d *IQStreamDecoder) ProcessComplex(symbol complex64) {
	if !d.isUplink {
		b0, b1 := symbolBits(symbol)
		d.bitDecoder.ProcessBit(b0)
		d.bitDecoder.ProcessBit(b1)
		return
	}

	d.symbols.push(symbol)
	d.hardSymbols.push(hardDecision(symbol))

	// Correlation peaks are probed at the centre of each candidate layout:
	// CUB: 2 tail + 42 coded symbols + start of the 15-symbol x sequence = 44.
	// NUB: 2 tail + 108 coded symbols + start of the 11-symbol n/p sequence = 109.
	findX := correlate(d.hardSymbols.window(44, len(trainingSeqX)), trainingSeqX)
	findN := correlate(d.hardSymbols.window(109, len(trainingSeqN)), trainingSeqN)
	findP := correlate(d.hardSymbols.window(109, len(trainingSeqP)), trainingSeqP)

	const threshold = sequenceDetectionThreshold * sequenceDetectionThreshold

	if magSquared(findX) >= threshold {
		d.emit(symbolsToBits(d.symbols.window(0, 103)), tetra.ControlUplinkBurst)
	}
	if magSquared(findP) >= threshold {
		d.emit(symbolsToBits(d.symbols.window(0, 231)), tetra.NormalUplinkBurstSplit)
	}
	if magSquared(findN) >= threshold {
		d.emit(symbolsToBits(d.symbols.window(0, 231)), tetra.NormalUplinkBurst)
	}
}

// fixedQueue is a fixed-length symbol history, pre-filled with zero symbols,
// where each push drops the oldest entry.
type fixedQueue struct {
	buf   []complex64
	start int
}

func newFixedQueue(size int) *fixedQueue {
	return &fixedQueue{buf: make([]complex64, size)}
}

func (q *fixedQueue) push(v complex64) {
	q.buf[q.start] = v
	q.start = (q.start + 1) % len(q.buf)
}

// window returns n symbols starting at offset from the oldest entry.
func (q *fixedQueue) window(offset, n int) []complex64 {
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		out[i] = q.buf[(q.start+offset+i)%len(q.buf)]
	}
	return out
}
