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

package pprof

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/USA-RedDragon/TETRAHub/internal/config"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

const readTimeout = 3 * time.Second

// CreatePProfServer serves the pprof endpoints when enabled. It blocks until
// the server fails.
func CreatePProfServer(cfg *config.Config) {
	if !cfg.PProf.Enabled {
		return
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	pprof.Register(r)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.PProf.Bind, cfg.PProf.Port),
		Handler:           r,
		ReadHeaderTimeout: readTimeout,
	}
	slog.Info("PProf server listening", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("PProf server failed", "error", err)
	}
}
