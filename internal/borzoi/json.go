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

// Package borzoi converts parsed packets into the versioned JSON envelope of
// the borzoi sink and delivers it over HTTP, UDP and NATS.
package borzoi

import (
	"fmt"
	"time"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/l3"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

// PacketAPIVersion is the protocol_version of the emitted envelopes.
const PacketAPIVersion = 0

// Envelope is the JSON object emitted per decoded packet. Key names the
// deepest parsed layer; Value carries that layer's fields.
type Envelope struct {
	ProtocolVersion int    `json:"protocol_version"`
	Time            string `json:"time"`
	Station         string `json:"station,omitempty"`
	Key             string `json:"key"`
	Value           any    `json:"value"`
}

// Item is one unit of egress work.
type Item struct {
	Envelope Envelope
	// FailedSlots routes the envelope to the failed-slots endpoint.
	FailedSlots bool
	// SuppressLog skips the local log line (basic link acknowledgements).
	SuppressLog bool
}

// bitVectorJSON renders the remaining bits of a vector as octets plus the
// number of valid bits in the trailing octet.
func bitVectorJSON(v *bits.BitVector) map[string]any {
	data := v.Copy()
	octets := []uint64{}
	for data.BitsLeft() >= 8 {
		octets = append(octets, data.Take(8))
	}
	bitsInLastByte := 8
	if data.BitsLeft() > 0 {
		bitsInLastByte = data.BitsLeft()
		octets = append(octets, data.TakeAll())
	}
	return map[string]any{
		"data":              octets,
		"bits_in_last_byte": bitsInLastByte,
	}
}

func type34ElementsJSON(elements map[l3.ElementIdentifier]l3.Type34Element) map[string]any {
	if len(elements) == 0 {
		return nil
	}
	out := map[string]any{}
	for id, element := range elements {
		entry := map[string]any{
			"repeated_elements": element.RepeatedElements,
		}
		if element.Unparsed != nil {
			entry["unparsed_bits"] = bitVectorJSON(element.Unparsed)
		}
		out[elementName(id)] = entry
	}
	return out
}

func elementName(id l3.ElementIdentifier) string {
	switch id {
	case l3.CmceElementExternalSubscriberNumber:
		return "external_subscriber_number"
	case l3.CmceElementDmMsAddress:
		return "dm_ms_address"
	default:
		return fmt.Sprintf("element_%d", id)
	}
}

// NewPacketEnvelope builds the egress item for a parsed packet. The Value
// object carries the fields of every parsed layer, from the LLC inward, in
// one flat map.
func NewPacketEnvelope(station string, packet *l3.LogicalLinkControlPacket) Item {
	value := map[string]any{
		"logical_channel": int(packet.LogicalChannel),
		"mac_type":        int(packet.Type),
		"encrypted":       packet.Encrypted,
		"address":         packet.Address,
	}
	if packet.TMSDU != nil {
		value["tm_sdu"] = bitVectorJSON(packet.TMSDU)
	}

	suppressLog := false
	if info := packet.BasicLinkInformation; info != nil {
		basicLink := map[string]any{"type": int(info.Type)}
		if info.NR != nil {
			basicLink["n_r"] = *info.NR
		}
		if info.NS != nil {
			basicLink["n_s"] = *info.NS
		}
		if info.FcsGood != nil {
			basicLink["fcs_good"] = *info.FcsGood
		}
		value["basic_link_information"] = basicLink
		suppressLog = info.Type.IsAck()
	}

	if mle := packet.MLE; mle != nil {
		value["mle_protocol"] = int(mle.Protocol)

		if mm := mle.MM; mm != nil {
			value["mm_packet_type"] = int(mm.PacketType.Value)
			if accept := mm.LocationUpdateAccept; accept != nil {
				acceptValue := map[string]any{
					"location_update_accept_type": accept.LocationUpdateAcceptType,
					"address":                     accept.Address,
				}
				if accept.SubscriberClass != nil {
					acceptValue["subscriber_class"] = *accept.SubscriberClass
				}
				if accept.EnergySavingInformation != nil {
					acceptValue["energy_saving_information"] = *accept.EnergySavingInformation
				}
				value["location_update_accept"] = acceptValue
			}
			if ack := mm.AttachDetachGroupIdentityAck; ack != nil {
				value["attach_detach_group_identity_ack"] = map[string]any{
					"group_identity_accept_reject": ack.GroupIdentityAcceptReject,
				}
			}
		}

		if cmce := mle.CMCE; cmce != nil {
			value["cmce_packet_type"] = int(cmce.PacketType.Value)
			if sdsData := cmce.SdsData; sdsData != nil {
				sdsValue := map[string]any{
					"address": sdsData.Address,
					"data":    bitVectorJSON(sdsData.Data),
				}
				if sdsData.AreaSelection != nil {
					sdsValue["area_selection"] = *sdsData.AreaSelection
				}
				if optional := type34ElementsJSON(sdsData.OptionalElements); optional != nil {
					sdsValue["optional_elements"] = optional
				}
				value["sds_data"] = sdsValue
			}
			if sds := cmce.SDS; sds != nil {
				value["protocol_identifier"] = sds.ProtocolIdentifier
				if sds.LocationInformationProtocol != nil {
					value["location_information_protocol"] = sds.LocationInformationProtocol
				}
			}
		}
	}

	return Item{
		Envelope: Envelope{
			ProtocolVersion: PacketAPIVersion,
			Time:            time.Now().Format(time.RFC3339),
			Station:         station,
			Key:             packet.Key(),
			Value:           value,
		},
		SuppressLog: suppressLog,
	}
}

// NewFailedSlotsEnvelope builds the egress item carrying the raw slots of a
// burst whose signalling failed its CRC, for offline re-analysis.
func NewFailedSlotsEnvelope(station string, slots *tetra.Slots) Item {
	slotValues := []map[string]any{}
	for _, slot := range slots.Concrete() {
		slotValues = append(slotValues, map[string]any{
			"logical_channel": int(slot.Channel),
			"data":            bitVectorJSON(slot.Data),
			"crc_ok":          slot.CrcOK,
		})
	}
	return Item{
		Envelope: Envelope{
			ProtocolVersion: PacketAPIVersion,
			Time:            time.Now().Format(time.RFC3339),
			Station:         station,
			Key:             "Slots",
			Value: map[string]any{
				"burst_type": int(slots.BurstType()),
				"slots_type": int(slots.SlotsType()),
				"slots":      slotValues,
			},
		},
		FailedSlots: true,
		SuppressLog: true,
	}
}
