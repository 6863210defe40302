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

package config_test

import (
	"testing"

	"github.com/USA-RedDragon/TETRAHub/internal/config"
	"github.com/USA-RedDragon/configulator"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := configulator.New[config.Config]().Default()
	require.NoError(t, err)
	return cfg
}

func TestDefaultsValidate(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	require.NoError(t, cfg.Validate())
}

func TestValidateLogLevel(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	cfg.LogLevel = "verbose"
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	cfg.Workers = 0
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidWorkers)
}

func TestValidateReceivePort(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	cfg.Input.ReceivePort = 0
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidReceivePort)

	// A file input does not need a receive port.
	cfg.Input.File = "capture.bits"
	require.NoError(t, cfg.Validate())
}

func TestValidateNATSSubject(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	cfg.Output.NATSURL = "nats://localhost:4222"
	cfg.Output.NATSSubject = ""
	require.ErrorIs(t, cfg.Validate(), config.ErrNATSSubjectRequired)
}

func TestValidateMetricsPort(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = -1
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidMetricsPort)
}
