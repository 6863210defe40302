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

// Package phy aligns the incoming bit or IQ symbol stream to burst
// boundaries by correlating against the training sequences of ETSI EN 300
// 392-2 clause 9 and emits typed 510-bit bursts for lower MAC decoding.
package phy

import (
	"log/slog"

	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

// FrameLen is the burst length in bits.
const FrameLen = 510

// allowedMissedBursts keeps the synchronizer locked through this many bursts
// without a training sequence match before the lock is dropped.
const allowedMissedBursts = 50

// Training sequences, 9.4.4.3. All are bit sequences MSB-first.
var (
	// 9.4.4.3.2 normal training sequence 1, n1..n22
	normalTrainingSeq1 = []byte{1, 1, 0, 1, 0, 0, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1, 1, 0, 1, 0, 0}
	// 9.4.4.3.2 normal training sequence 2, p1..p22
	normalTrainingSeq2 = []byte{0, 1, 1, 1, 1, 0, 1, 0, 0, 1, 0, 0, 0, 0, 1, 1, 0, 1, 1, 1, 1, 0}
	// 9.4.4.3.2 normal training sequence 3, q11..q22 and q1..q10
	normalTrainingSeq3Begin = []byte{0, 0, 0, 1, 1, 0, 1, 0, 1, 1, 0, 1}
	normalTrainingSeq3End   = []byte{1, 0, 1, 1, 0, 1, 1, 1, 0, 0}
	// 9.4.4.3.3 extended training sequence, x1..x30
	extendedTrainingSeq = []byte{1, 0, 0, 1, 1, 1, 0, 1, 0, 0, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1, 1, 0, 1, 0, 0, 0, 0, 1, 1}
	// 9.4.4.3.4 synchronization training sequence, y1..y38
	syncTrainingSeq = []byte{1, 1, 0, 0, 0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1, 1, 0, 0, 0, 0, 0, 1, 1, 0, 0, 1, 1, 1}
)

// BurstFunc receives each aligned burst. The frame slice is owned by the
// callee.
type BurstFunc func(frame []byte, burstType tetra.BurstType)

// BitStreamDecoder consumes a hard bit stream and emits aligned bursts. It
// is a pure push-style state machine with no suspension points; bursts come
// out in strict input order.
type BitStreamDecoder struct {
	emit     BurstFunc
	isUplink bool

	frame          []byte
	synchronized   bool
	syncBitCounter int
}

// NewBitStreamDecoder creates a synchronizer for the given direction that
// hands aligned bursts to emit.
func NewBitStreamDecoder(emit BurstFunc, isUplink bool) *BitStreamDecoder {
	return &BitStreamDecoder{
		emit:     emit,
		isUplink: isUplink,
		frame:    make([]byte, 0, FrameLen),
	}
}

// patternScore returns the Hamming distance between the pattern and the data
// at the given position.
func patternScore(data, pattern []byte, position int) int {
	score := 0
	for i, p := range pattern {
		score += int(p ^ data[position+i])
	}
	return score
}

// ProcessBit pushes one received bit (0 or 1) into the synchronizer.
func (d *BitStreamDecoder) ProcessBit(bit byte) {
	d.frame = append(d.frame, bit)
	if len(d.frame) < FrameLen {
		return
	}

	if d.isUplink {
		d.processUplink()
		return
	}
	d.processDownlink()
}

func (d *BitStreamDecoder) processDownlink() {
	// Fast relock on the partial normal training sequence 3 split across the
	// burst boundary.
	scoreBegin := patternScore(d.frame, normalTrainingSeq3Begin, 0)
	scoreEnd := patternScore(d.frame, normalTrainingSeq3End, 500)

	frameFound := scoreBegin == 0 && scoreEnd < 2
	if frameFound {
		d.resetSynchronizer()
	}

	cleared := false
	// A burst is processed either on a training sequence match or, while
	// synchronized, at every 510-bit boundary until too many bursts miss.
	if frameFound || (d.synchronized && d.syncBitCounter%FrameLen == 0) {
		d.processDownlinkFrame(!frameFound)
		d.frame = d.frame[:0]
		cleared = true
	}

	d.syncBitCounter--
	if d.syncBitCounter <= 0 {
		if d.synchronized {
			slog.Debug("Burst synchronization lost")
		}
		d.synchronized = false
		d.syncBitCounter = 0
	}

	if !cleared {
		d.frame = d.frame[1:]
	}
}

func (d *BitStreamDecoder) resetSynchronizer() {
	d.synchronized = true
	d.syncBitCounter = FrameLen * allowedMissedBursts
}

// processDownlinkFrame scores the candidate downlink burst layouts and emits
// the best one when its training sequence distance is at most 5. On a soft
// relock (a 510-bit boundary reached while synchronized, without the edge
// pattern) the best-scoring layout is emitted whatever its distance.
func (d *BitStreamDecoder) processDownlinkFrame(softRelock bool) {
	minimumScore := patternScore(d.frame, syncTrainingSeq, 214)
	burstType := tetra.SynchronizationBurst

	if score := patternScore(d.frame, normalTrainingSeq1, 244); score < minimumScore {
		minimumScore = score
		burstType = tetra.NormalDownlinkBurst
	}
	if score := patternScore(d.frame, normalTrainingSeq2, 244); score < minimumScore {
		minimumScore = score
		burstType = tetra.NormalDownlinkBurstSplit
	}

	if softRelock || minimumScore <= 5 {
		d.emitCopy(d.frame, burstType)
	}
}

// processUplink scores the uplink burst layouts: the extended training
// sequence of the control uplink burst at offset 88 and the normal training
// sequences of the (split) normal uplink burst at offset 220. Ties between
// the normal candidates resolve to NormalUplinkBurst.
func (d *BitStreamDecoder) processUplink() {
	scoreSSN := patternScore(d.frame, extendedTrainingSeq, 88)

	minimumScore := patternScore(d.frame, normalTrainingSeq1, 220)
	burstType := tetra.NormalUplinkBurst
	if score := patternScore(d.frame, normalTrainingSeq2, 220); score < minimumScore {
		minimumScore = score
		burstType = tetra.NormalUplinkBurstSplit
	}

	switch {
	case scoreSSN <= 4:
		d.emitCopy(d.frame, tetra.ControlUplinkBurst)
		d.frame = d.frame[200:]
	case minimumScore <= 2:
		d.emitCopy(d.frame, burstType)
		d.frame = d.frame[1:]
	default:
		d.frame = d.frame[1:]
	}
}

func (d *BitStreamDecoder) emitCopy(frame []byte, burstType tetra.BurstType) {
	out := make([]byte, len(frame))
	copy(out, frame)
	d.emit(out, burstType)
}
