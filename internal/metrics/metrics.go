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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the receiver's prometheus collectors.
type Metrics struct {
	BurstsTotal       *prometheus.CounterVec
	BurstDecodeErrors prometheus.Counter
	SlotsTotal        *prometheus.CounterVec
	SlotCrcErrors     *prometheus.CounterVec
	PacketsTotal      *prometheus.CounterVec
	PacketsSentTotal  *prometheus.CounterVec
	TimebaseCount     prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		BurstsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetrahub_bursts_total",
			Help: "The total number of synchronized bursts, by burst type",
		}, []string{"burst_type"}),
		BurstDecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tetrahub_burst_decode_errors_total",
			Help: "The total number of bursts dropped due to decode errors",
		}),
		SlotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetrahub_slots_total",
			Help: "The total number of decoded logical channel slots, by channel",
		}, []string{"logical_channel"}),
		SlotCrcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetrahub_slot_crc_errors_total",
			Help: "The total number of signalling slots with a failed CRC, by channel",
		}, []string{"logical_channel"}),
		PacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetrahub_packets_total",
			Help: "The total number of parsed protocol packets, by deepest layer",
		}, []string{"key"}),
		PacketsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tetrahub_packets_sent_total",
			Help: "The total number of packets emitted to sinks, by transport and status",
		}, []string{"transport", "status"}),
		TimebaseCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tetrahub_timebase_count",
			Help: "The scalar burst count of the current cell timebase",
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.BurstsTotal)
	prometheus.MustRegister(m.BurstDecodeErrors)
	prometheus.MustRegister(m.SlotsTotal)
	prometheus.MustRegister(m.SlotCrcErrors)
	prometheus.MustRegister(m.PacketsTotal)
	prometheus.MustRegister(m.PacketsSentTotal)
	prometheus.MustRegister(m.TimebaseCount)
}

// RecordBurst counts one synchronized burst.
func (m *Metrics) RecordBurst(burstType string, decodeError bool) {
	m.BurstsTotal.WithLabelValues(burstType).Inc()
	if decodeError {
		m.BurstDecodeErrors.Inc()
	}
}

// RecordSlot counts one decoded logical channel slot.
func (m *Metrics) RecordSlot(logicalChannel string, crcOK bool) {
	m.SlotsTotal.WithLabelValues(logicalChannel).Inc()
	if !crcOK {
		m.SlotCrcErrors.WithLabelValues(logicalChannel).Inc()
	}
}

// RecordPacket counts one parsed protocol packet.
func (m *Metrics) RecordPacket(key string) {
	m.PacketsTotal.WithLabelValues(key).Inc()
}

// RecordSend counts one sink delivery attempt.
func (m *Metrics) RecordSend(transport, status string) {
	m.PacketsSentTotal.WithLabelValues(transport, status).Inc()
}
