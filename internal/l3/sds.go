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

package l3

import (
	"math"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
)

// LocationInformationProtocolID is the SDS protocol identifier of the
// location information protocol.
const LocationInformationProtocolID uint8 = 0b00001010

var positionErrorNames = [8]string{
	"< 2 m", "< 20 m", "< 200 m", "< 2 km", "< 20 km", "<= 200 km", "> 200 km", "unknown",
}

var directionOfTravelNames = [16]string{
	"0 N", "22.5 NNE", "45 NE", "67.5 ENE", "90 E", "112.5 ESE", "135 SE", "157.5 SSE",
	"180 S", "202.5 SSW", "225 SW", "247.5 WSW", "270 W", "292.5 WNW", "315 NW", "337.5 NNW",
}

// twosComplementScaled interprets data as an n-bit two's complement value
// scaled so the full positive range maps to multiplier.
func twosComplementScaled(data uint32, n int, multiplier float64) float64 {
	half := float64(uint32(1) << (n - 1))
	if data&(1<<(n-1)) != 0 {
		data = (^data + 1) & (0xFFFFFFFF >> (32 - n))
		return -multiplier * float64(data) / half
	}
	return multiplier * float64(data) / half
}

func decodeLongitude(v uint32) float64 {
	return twosComplementScaled(v, 25, 180.0)
}

func decodeLatitude(v uint32) float64 {
	return twosComplementScaled(v, 24, 90.0)
}

// decodeHorizontalVelocity maps the 7-bit velocity field to m/s; 127 means
// unknown and yields -1.
func decodeHorizontalVelocity(v uint32) float64 {
	if v == 127 {
		return -1.0
	}
	return 16.0 * math.Pow(1.038, float64(v)-13.0)
}

// ShortLocationReport is the LIP short location report PDU.
type ShortLocationReport struct {
	TimeElapsed          uint8   `json:"time_elapsed"`
	Longitude            float64 `json:"longitude"`
	Latitude             float64 `json:"latitude"`
	PositionError        string  `json:"position_error"`
	HorizontalVelocity   float64 `json:"horizontal_velocity"`
	DirectionOfTravel    string  `json:"direction_of_travel"`
	TypeOfAdditionalData uint8   `json:"type_of_additional_data"`
	AdditionalData       uint8   `json:"additional_data"`
}

func parseShortLocationReport(data *bits.BitVector) (ShortLocationReport, error) {
	report := ShortLocationReport{
		TimeElapsed:          uint8(data.Take(2)),
		Longitude:            decodeLongitude(uint32(data.Take(25))),
		Latitude:             decodeLatitude(uint32(data.Take(24))),
		PositionError:        positionErrorNames[data.Take(3)],
		HorizontalVelocity:   decodeHorizontalVelocity(uint32(data.Take(7))),
		DirectionOfTravel:    directionOfTravelNames[data.Take(4)],
		TypeOfAdditionalData: uint8(data.Take(1)),
		AdditionalData:       uint8(data.Take(8)),
	}
	return report, data.Err()
}

// LocationInformationProtocol is the LIP layer within an SDS payload.
type LocationInformationProtocol struct {
	PduType             uint8                `json:"pdu_type"`
	ShortLocationReport *ShortLocationReport `json:"short_location_report,omitempty"`
}

func parseLocationInformationProtocol(data *bits.BitVector) (*LocationInformationProtocol, error) {
	lip := &LocationInformationProtocol{PduType: uint8(data.Take(2))}
	if err := data.Err(); err != nil {
		return nil, err
	}
	if lip.PduType == 0b00 {
		report, err := parseShortLocationReport(data)
		if err != nil {
			return nil, err
		}
		lip.ShortLocationReport = &report
	}
	return lip, nil
}

// ShortDataServicePacket is the SDS layer: the protocol identifier and, for
// the location information protocol, the parsed LIP content.
type ShortDataServicePacket struct {
	ProtocolIdentifier          uint8
	LocationInformationProtocol *LocationInformationProtocol
}

func parseShortDataService(sdsData *SdsData) (*ShortDataServicePacket, error) {
	data := sdsData.Data.Copy()

	sds := &ShortDataServicePacket{ProtocolIdentifier: uint8(data.Take(8))}
	if err := data.Err(); err != nil {
		return nil, err
	}

	if sds.ProtocolIdentifier == LocationInformationProtocolID {
		lip, err := parseLocationInformationProtocol(data)
		if err != nil {
			return nil, err
		}
		sds.LocationInformationProtocol = lip
	}
	return sds, nil
}
