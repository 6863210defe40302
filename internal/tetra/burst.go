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

// Package tetra holds the shared data model of the TETRA air interface:
// burst and logical channel tags, the timebase counter, the broadcast
// synchronization channel, the access assignment channel, addresses and the
// slot containers exchanged between the lower and upper MAC.
package tetra

// BurstType identifies one of the supported phase modulation burst layouts,
// see ETSI EN 300 392-2 Table 9.2.
type BurstType int

const (
	ControlUplinkBurst BurstType = iota
	NormalUplinkBurst
	NormalUplinkBurstSplit
	NormalDownlinkBurst
	NormalDownlinkBurstSplit
	SynchronizationBurst
)

// IsUplink reports whether the burst was sent mobile-to-base.
func (b BurstType) IsUplink() bool {
	return b == ControlUplinkBurst || b == NormalUplinkBurst || b == NormalUplinkBurstSplit
}

// IsDownlink reports whether the burst was sent base-to-mobile.
func (b BurstType) IsDownlink() bool {
	return !b.IsUplink()
}

func (b BurstType) String() string {
	switch b {
	case ControlUplinkBurst:
		return "ControlUplinkBurst"
	case NormalUplinkBurst:
		return "NormalUplinkBurst"
	case NormalUplinkBurstSplit:
		return "NormalUplinkBurstSplit"
	case NormalDownlinkBurst:
		return "NormalDownlinkBurst"
	case NormalDownlinkBurstSplit:
		return "NormalDownlinkBurstSplit"
	case SynchronizationBurst:
		return "SynchronizationBurst"
	}
	return "unknown"
}

// LogicalChannel identifies the logical channel a decoded block belongs to.
type LogicalChannel int

const (
	SignallingChannelHalfDownlink LogicalChannel = iota
	SignallingChannelHalfUplink
	TrafficChannel
	SignallingChannelFull
	StealingChannel
)

func (c LogicalChannel) String() string {
	switch c {
	case SignallingChannelHalfDownlink:
		return "SignallingChannelHalfDownlink"
	case SignallingChannelHalfUplink:
		return "SignallingChannelHalfUplink"
	case TrafficChannel:
		return "TrafficChannel"
	case SignallingChannelFull:
		return "SignallingChannelFull"
	case StealingChannel:
		return "StealingChannel"
	}
	return "unknown"
}
