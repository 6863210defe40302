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
	"testing"

	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	frame     []byte
	burstType tetra.BurstType
}

func collector(out *[]captured) BurstFunc {
	return func(frame []byte, burstType tetra.BurstType) {
		*out = append(*out, captured{frame: frame, burstType: burstType})
	}
}

// alignedFrame builds a 510-bit window carrying the partial normal training
// sequence 3 at both edges, which is what the downlink acquisition looks for
// between two continuous bursts.
func alignedFrame() []byte {
	frame := make([]byte, FrameLen)
	copy(frame, normalTrainingSeq3Begin)
	copy(frame[500:], normalTrainingSeq3End)
	return frame
}

func feed(d *BitStreamDecoder, frame []byte) {
	for _, bit := range frame {
		d.ProcessBit(bit)
	}
}

func TestDetectsSynchronizationBurst(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), false)

	frame := alignedFrame()
	copy(frame[214:], syncTrainingSeq)
	feed(d, frame)

	require.Len(t, bursts, 1)
	assert.Equal(t, tetra.SynchronizationBurst, bursts[0].burstType)
	assert.Len(t, bursts[0].frame, FrameLen)
}

func TestDetectsNormalDownlinkBursts(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), false)

	frame := alignedFrame()
	copy(frame[244:], normalTrainingSeq1)
	feed(d, frame)

	split := alignedFrame()
	copy(split[244:], normalTrainingSeq2)
	feed(d, split)

	require.Len(t, bursts, 2)
	assert.Equal(t, tetra.NormalDownlinkBurst, bursts[0].burstType)
	assert.Equal(t, tetra.NormalDownlinkBurstSplit, bursts[1].burstType)
}

func TestToleratesTrainingSequenceErrors(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), false)

	// Up to five bit errors in the training sequence still decode.
	frame := alignedFrame()
	copy(frame[214:], syncTrainingSeq)
	for i := 0; i < 5; i++ {
		frame[214+i] ^= 1
	}
	feed(d, frame)
	require.Len(t, bursts, 1)
	assert.Equal(t, tetra.SynchronizationBurst, bursts[0].burstType)
}

func TestSoftRelockEmitsBestScoringBurst(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), false)

	frame := alignedFrame()
	copy(frame[214:], syncTrainingSeq)
	feed(d, frame)
	require.Len(t, bursts, 1)

	// While locked, a missed training sequence still produces a burst at
	// the next counter boundary, typed by the best score.
	feed(d, make([]byte, 1100))
	require.GreaterOrEqual(t, len(bursts), 2)
	assert.Equal(t, tetra.NormalDownlinkBurst, bursts[1].burstType)
}

func TestNoEmissionWithoutLockOrEdgePattern(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), false)

	// A training sequence alone does not acquire: the edge pattern is the
	// only initial lock path.
	frame := make([]byte, FrameLen)
	copy(frame[214:], syncTrainingSeq)
	feed(d, frame)
	assert.Empty(t, bursts)
}

func TestUplinkControlBurstDetection(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), true)

	frame := make([]byte, FrameLen)
	copy(frame[88:], extendedTrainingSeq)
	// Keep the normal training sequence offsets noisy so only the extended
	// sequence matches.
	for i := 220; i < 242; i++ {
		frame[i] = byte(i % 2)
	}
	feed(d, frame)

	require.NotEmpty(t, bursts)
	assert.Equal(t, tetra.ControlUplinkBurst, bursts[0].burstType)
}

func TestUplinkNormalBurstDetection(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), true)

	frame := make([]byte, FrameLen)
	copy(frame[220:], normalTrainingSeq1)
	// Spoil the extended sequence offset so the CUB check does not win.
	for i := 88; i < 118; i++ {
		frame[i] = byte((i + 1) % 2)
	}
	feed(d, frame)

	require.NotEmpty(t, bursts)
	assert.Equal(t, tetra.NormalUplinkBurst, bursts[0].burstType)
}

func TestEmittedFrameIsACopy(t *testing.T) {
	t.Parallel()

	var bursts []captured
	d := NewBitStreamDecoder(collector(&bursts), false)

	frame := alignedFrame()
	copy(frame[214:], syncTrainingSeq)
	feed(d, frame)
	require.Len(t, bursts, 1)
	snapshot := append([]byte(nil), bursts[0].frame...)

	// Pushing more bits must not mutate the already emitted frame.
	feed(d, frame)
	assert.Equal(t, snapshot, bursts[0].frame)
}
