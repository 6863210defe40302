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

package config

// Config stores the application configuration.
type Config struct {
	LogLevel  LogLevel `name:"log-level" description:"Logging level. One of debug, info, warn, error" default:"info"`
	StationID string   `name:"station-id" description:"Identifier stamped into every emitted packet" default:""`
	Workers   int      `name:"workers" description:"Number of lower MAC worker threads" default:"4"`
	Input     Input    `name:"input"`
	Output    Output   `name:"output"`
	Metrics   Metrics  `name:"metrics"`
	PProf     PProf    `name:"pprof"`
}

// Input selects and shapes the ingress source.
type Input struct {
	ReceivePort int    `name:"receive-port" description:"UDP port receiving data from the physical layer" default:"42000"`
	File        string `name:"file" description:"Replay data from a binary file instead of UDP" default:""`
	RecordFile  string `name:"record-file" description:"Tee the raw ingress byte stream to this file for later replay" default:""`
	Packed      bool   `name:"packed" description:"Input octets carry 8 bits each, LSB first, instead of one bit per octet" default:"false"`
	IQ          bool   `name:"iq" description:"Input is raw IQ data, two little-endian float32 per symbol, instead of a bit stream" default:"false"`

	// UplinkScramblingCode enables decoupled uplink-only decoding with the
	// given scrambling code instead of waiting for a downlink BSCH. Zero
	// means downlink operation.
	UplinkScramblingCode uint32 `name:"uplink-scrambling-code" description:"Scrambling code for uplink-only decoding (0 = downlink operation)" default:"0"`
}

// Output selects the egress sinks; any combination may be enabled.
type Output struct {
	SendPort    int    `name:"send-port" description:"UDP port receiving the emitted JSON packets (0 = disabled)" default:"0"`
	BorzoiURL   string `name:"borzoi-url" description:"Base URL of the borzoi HTTP sink (empty = disabled)" default:""`
	NATSURL     string `name:"nats-url" description:"NATS server URL for publishing emitted packets (empty = disabled)" default:""`
	NATSSubject string `name:"nats-subject" description:"NATS subject for emitted packets" default:"tetrahub.packets"`
}

// Metrics configures the prometheus metrics server and tracing.
type Metrics struct {
	Enabled      bool   `name:"enabled" description:"Enable the prometheus metrics server" default:"false"`
	Bind         string `name:"bind" description:"Bind address of the metrics server" default:"0.0.0.0"`
	Port         int    `name:"port" description:"Port of the metrics server" default:"9100"`
	OTLPEndpoint string `name:"otlp-endpoint" description:"OTLP gRPC endpoint for tracing (empty = disabled)" default:""`
}

// PProf configures the pprof debugging server.
type PProf struct {
	Enabled bool   `name:"enabled" description:"Enable the pprof server" default:"false"`
	Bind    string `name:"bind" description:"Bind address of the pprof server" default:"127.0.0.1"`
	Port    int    `name:"port" description:"Port of the pprof server" default:"6060"`
}
