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

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrInvalidReceivePort indicates that the provided receive port is not valid.
	ErrInvalidReceivePort = errors.New("invalid receive port provided")
	// ErrInvalidSendPort indicates that the provided send port is not valid.
	ErrInvalidSendPort = errors.New("invalid send port provided")
	// ErrInvalidWorkers indicates that the worker count is not positive.
	ErrInvalidWorkers = errors.New("worker count must be positive")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfPort indicates that the provided pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
	// ErrNATSSubjectRequired indicates a NATS URL without a subject.
	ErrNATSSubjectRequired = errors.New("nats subject is required when a nats url is set")
)

// Validate checks the configuration for contradictions. A failed validation
// never means partial operation; the command refuses to start.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Input.File == "" && (c.Input.ReceivePort <= 0 || c.Input.ReceivePort > 65535) {
		return ErrInvalidReceivePort
	}
	if c.Output.SendPort < 0 || c.Output.SendPort > 65535 {
		return ErrInvalidSendPort
	}
	if c.Output.NATSURL != "" && c.Output.NATSSubject == "" {
		return ErrNATSSubjectRequired
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return ErrInvalidMetricsPort
	}
	if c.PProf.Enabled && (c.PProf.Port <= 0 || c.PProf.Port > 65535) {
		return ErrInvalidPProfPort
	}
	return nil
}
