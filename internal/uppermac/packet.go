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

// Package uppermac parses decoded logical channel slots into MAC PDUs
// (clause 21 of ETSI EN 300 392-2) and reassembles fragmented TM-SDUs.
package uppermac

import (
	"github.com/USA-RedDragon/TETRAHub/internal/bits"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
)

// MacPacketType identifies a MAC PDU.
type MacPacketType int

const (
	// downlink c-plane
	MacResource MacPacketType = iota
	MacFragmentDownlink
	MacEndDownlink
	MacDBlck
	MacBroadcast

	// uplink c-plane (SCH/HU)
	MacAccess
	MacEndHu

	// uplink c-plane
	MacData
	MacFragmentUplink
	MacEndUplink
	MacUBlck

	// u-plane signalling on either direction
	MacUSignal
)

func (t MacPacketType) String() string {
	switch t {
	case MacResource:
		return "MacResource"
	case MacFragmentDownlink:
		return "MacFragmentDownlink"
	case MacEndDownlink:
		return "MacEndDownlink"
	case MacDBlck:
		return "MacDBlck"
	case MacBroadcast:
		return "MacBroadcast"
	case MacAccess:
		return "MacAccess"
	case MacEndHu:
		return "MacEndHu"
	case MacData:
		return "MacData"
	case MacFragmentUplink:
		return "MacFragmentUplink"
	case MacEndUplink:
		return "MacEndUplink"
	case MacUBlck:
		return "MacUBlck"
	case MacUSignal:
		return "MacUSignal"
	}
	return "unknown"
}

// AccessCodeDefinition, 21.4.7.2.
type AccessCodeDefinition struct {
	Immediate                 uint8 `json:"immediate"`
	WaitingTime               uint8 `json:"waiting_time"`
	RandomAccessTransmissions uint8 `json:"number_of_random_access_transmissions_on_up_link"`
	FrameLengthFactor         uint8 `json:"frame_length_factor"`
	TimeslotPointer           uint8 `json:"timeslot_pointer"`
	MinimumPduPriority        uint8 `json:"minimum_pdu_priority"`
}

func parseAccessCodeDefinition(data *bits.BitVector) AccessCodeDefinition {
	return AccessCodeDefinition{
		Immediate:                 uint8(data.Take(4)),
		WaitingTime:               uint8(data.Take(4)),
		RandomAccessTransmissions: uint8(data.Take(4)),
		FrameLengthFactor:         uint8(data.Take(1)),
		TimeslotPointer:           uint8(data.Take(4)),
		MinimumPduPriority:        uint8(data.Take(3)),
	}
}

// ExtendedServiceBroadcast and its sections, 21.4.4.1.
type ExtendedServiceBroadcastSection1 struct {
	DataPrioritySupported            uint8 `json:"data_priority_supported"`
	ExtendedAdvancedLinksAndMaxUblck uint8 `json:"extended_advanced_links_and_max_ublck_supported"`
	QoSNegotiationSupported          uint8 `json:"qos_negotiation_supported"`
	D8PSKService                     uint8 `json:"d8psk_service"`
	Section2Sent                     uint8 `json:"section2_sent"`
	Section3Sent                     uint8 `json:"section3_sent"`
	Section4Sent                     uint8 `json:"section4_sent"`
}

type ExtendedServiceBroadcastSection2 struct {
	Service25QAM  uint8 `json:"service_25qam"`
	Service50QAM  uint8 `json:"service_50qam"`
	Service100QAM uint8 `json:"service_100qam"`
	Service150QAM uint8 `json:"service_150qam"`
	Reserved      uint8 `json:"reserved"`
}

type ExtendedServiceBroadcast struct {
	SecurityInformation   uint8 `json:"security_information"`
	SDSTLAddressingMethod uint8 `json:"sdstl_addressing_method"`
	GCKSupported          uint8 `json:"gck_supported"`

	Section1 *ExtendedServiceBroadcastSection1 `json:"section1,omitempty"`
	Section2 *ExtendedServiceBroadcastSection2 `json:"section2,omitempty"`
	Section3 *uint8                            `json:"section3,omitempty"`
	Section4 *uint8                            `json:"section4,omitempty"`
}

// SystemInfo is the SYSINFO broadcast PDU, 21.4.4.1.
type SystemInfo struct {
	DownlinkFrequency int32 `json:"downlink_frequency"`
	UplinkFrequency   int32 `json:"uplink_frequency"`

	NumberSecondaryControlChannels uint8 `json:"number_secondary_control_channels_main_carrier"`
	MSTxPwrMaxCell                 uint8 `json:"ms_txpwr_max_cell"`
	RxLevAccessMin                 uint8 `json:"rxlev_access_min"`
	AccessParameter                uint8 `json:"access_parameter"`
	RadioDownlinkTimeout           uint8 `json:"radio_downlink_timeout"`

	HyperFrameNumber         *uint16 `json:"hyper_frame_number,omitempty"`
	CommonCipherKeyID        *uint16 `json:"common_cipher_key_identifier,omitempty"`
	EvenMultiFrameDefinition *uint32 `json:"even_multi_frame_definition_for_ts_mode,omitempty"`
	OddMultiFrameDefinition  *uint32 `json:"odd_multi_frame_definition_for_ts_mode,omitempty"`

	DefaultsForAccessCodeA   *AccessCodeDefinition     `json:"defaults_for_access_code_a,omitempty"`
	ExtendedServiceBroadcast *ExtendedServiceBroadcast `json:"extended_service_broadcast,omitempty"`

	LocationArea    uint16 `json:"location_area"`
	SubscriberClass uint16 `json:"subscriber_class"`

	Registration                  uint8 `json:"registration"`
	Deregistration                uint8 `json:"deregistration"`
	PriorityCell                  uint8 `json:"priority_cell"`
	MinimumModeService            uint8 `json:"minimum_mode_service"`
	Migration                     uint8 `json:"migration"`
	SystemWideService             uint8 `json:"system_wide_service"`
	TetraVoiceService             uint8 `json:"tetra_voice_service"`
	CircuitModeDataService        uint8 `json:"circuit_mode_data_service"`
	SNDCPService                  uint8 `json:"sndcp_service"`
	AirInterfaceEncryptionService uint8 `json:"air_interface_encryption_service"`
	AdvancedLinkSupported         uint8 `json:"advanced_link_supported"`
}

// AccessDefine is the ACCESS-DEFINE broadcast PDU, 21.4.4.3.
type AccessDefine struct {
	CommonOrAssignedControlChannelFlag uint8                `json:"common_or_assigned_control_channel_flag"`
	AccessCode                         uint8                `json:"access_code"`
	AccessCodeDefinition               AccessCodeDefinition `json:"access_code_definition"`
	SubscriberClassBitmap              *uint16              `json:"subscriber_class_bitmap,omitempty"`
	GSSI                               *uint32              `json:"gssi,omitempty"`
}

// BroadcastPacket is the decoded TMB-SAP broadcast PDU of a slot.
type BroadcastPacket struct {
	LogicalChannel tetra.LogicalChannel
	Type           MacPacketType

	SystemInfo   *SystemInfo
	AccessDefine *AccessDefine
}

// ExtendedCarrierNumbering, 21.4.3.1.
type ExtendedCarrierNumbering struct {
	FrequencyBand    uint8 `json:"frequency_band"`
	Offset           uint8 `json:"offset"`
	DuplexSpacing    uint8 `json:"duplex_spacing"`
	ReverseOperation uint8 `json:"reverse_operation"`
}

// AugmentedChannelAllocation, 21.4.3.1.
type AugmentedChannelAllocation struct {
	UpDownlinkAssigned uint8 `json:"up_downlink_assigned"`
	Bandwidth          uint8 `json:"bandwidth"`
	ModulationMode     uint8 `json:"modulation_mode"`

	MaximumUplinkQAMModulationLevel *uint8 `json:"maximum_uplink_qam_modulation_level,omitempty"`

	ConformingChannelStatus uint8 `json:"conforming_channel_status"`
	BSLinkImbalance         uint8 `json:"bs_link_imbalance"`
	BSTransmitPower         uint8 `json:"bs_transmit_power_relative_to_main_carrier"`

	NappingStatus      uint8   `json:"napping_status"`
	NappingInformation *uint16 `json:"napping_information,omitempty"`

	ConditionalElementA     *uint16 `json:"conditional_element_a,omitempty"`
	ConditionalElementB     *uint16 `json:"conditional_element_b,omitempty"`
	FurtherAugmentationFlag uint8   `json:"further_augmentation_flag"`
}

// ChannelAllocationElement, 21.4.3.1.
type ChannelAllocationElement struct {
	AllocationType     uint8 `json:"allocation_type"`
	TimeslotAssigned   uint8 `json:"timeslot_assigned"`
	UpDownlinkAssigned uint8 `json:"up_downlink_assigned"`
	CLCHPermission     uint8 `json:"clch_permission"`
	CellChangeFlag     uint8 `json:"cell_change_flag"`

	CarrierNumber            uint16                    `json:"carrier_number"`
	ExtendedCarrierNumbering *ExtendedCarrierNumbering `json:"extended_carrier_numbering,omitempty"`

	MonitoringPattern        uint8  `json:"monitoring_pattern"`
	Frame18MonitoringPattern *uint8 `json:"frame18_monitoring_pattern,omitempty"`

	AugmentedChannelAllocation *AugmentedChannelAllocation `json:"augmented_channel_allocation,omitempty"`
}

// CPlaneSignallingPacket is one C-plane MAC PDU.
type CPlaneSignallingPacket struct {
	LogicalChannel tetra.LogicalChannel
	Type           MacPacketType

	Encrypted bool
	Address   tetra.Address

	Fragmentation                  bool
	FragmentationOnStealingChannel bool

	ReservationRequirement *uint8

	// TMSDU is passed up to the LLC.
	TMSDU *bits.BitVector

	// downlink (MAC-RESOURCE and MAC-D-BLCK)
	EncryptionMode *uint8

	// downlink
	ImmediateNappingPermissionFlag *bool
	BasicSlotGrantingElement       *uint8
	PositionOfGrant                *uint8
	ChannelAllocationElement       *ChannelAllocationElement
	RandomAccessFlag               *uint8
	PowerControlElement            *uint8
}

// IsDownlinkFragment reports whether the PDU starts or continues a downlink
// fragment chain.
func (p *CPlaneSignallingPacket) IsDownlinkFragment() bool {
	return (p.Type == MacResource && p.Fragmentation) || p.Type == MacFragmentDownlink
}

// IsUplinkFragment reports whether the PDU starts or continues an uplink
// fragment chain.
func (p *CPlaneSignallingPacket) IsUplinkFragment() bool {
	return ((p.Type == MacAccess || p.Type == MacData) && p.Fragmentation) || p.Type == MacFragmentUplink
}

// IsNullPDU reports whether this is a MAC-RESOURCE null PDU, the
// end-of-block marker.
func (p *CPlaneSignallingPacket) IsNullPDU() bool {
	return p.Type == MacResource && p.Address.IsEmpty() && p.TMSDU == nil
}

// UPlaneSignallingPacket is a MAC-U-SIGNAL PDU on the stealing channel.
type UPlaneSignallingPacket struct {
	LogicalChannel tetra.LogicalChannel
	Type           MacPacketType
	TMSDU          *bits.BitVector
}

// UPlaneTrafficPacket carries the raw bits of a traffic channel slot.
type UPlaneTrafficPacket struct {
	LogicalChannel tetra.LogicalChannel
	Data           *bits.BitVector
}
