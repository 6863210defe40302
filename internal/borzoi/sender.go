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

package borzoi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/USA-RedDragon/TETRAHub/internal/config"
	"github.com/USA-RedDragon/TETRAHub/internal/metrics"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

const (
	queueSize   = 100
	sendTimeout = 10 * time.Second
)

// Sender drains the egress queue to the configured sinks: the borzoi HTTP
// endpoint, a UDP datagram sink and a NATS subject. Egress failures are
// logged and counted; they never stop the pipeline.
type Sender struct {
	cfg     config.Output
	metrics *metrics.Metrics

	queue chan Item

	httpClient *http.Client
	udpConn    net.Conn
	natsConn   *nats.Conn
}

// NewSender connects the configured sinks.
func NewSender(cfg config.Output, m *metrics.Metrics) (*Sender, error) {
	s := &Sender{
		cfg:        cfg,
		metrics:    m,
		queue:      make(chan Item, queueSize),
		httpClient: &http.Client{Timeout: sendTimeout},
	}

	if cfg.SendPort != 0 {
		conn, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", cfg.SendPort))
		if err != nil {
			return nil, fmt.Errorf("failed to dial UDP sink: %w", err)
		}
		s.udpConn = conn
	}

	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name("TETRAHub"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.natsConn = conn
	}

	return s, nil
}

// Queue returns the egress queue. Closing it ends Run after the remaining
// items have been delivered.
func (s *Sender) Queue() chan<- Item {
	return s.queue
}

// Run delivers queued items until the queue is closed and drained.
func (s *Sender) Run(ctx context.Context) {
	for item := range s.queue {
		s.send(ctx, item)
	}
}

// Close tears down the sink connections. Call after Run has returned.
func (s *Sender) Close() {
	if s.udpConn != nil {
		if err := s.udpConn.Close(); err != nil {
			slog.Error("Failed to close UDP sink", "error", err)
		}
	}
	if s.natsConn != nil {
		s.natsConn.Close()
	}
}

func (s *Sender) send(ctx context.Context, item Item) {
	ctx, span := otel.Tracer("TETRAHub").Start(ctx, "Sender.send")
	defer span.End()

	payload, err := json.Marshal(item.Envelope)
	if err != nil {
		slog.Error("Failed to marshal envelope", "key", item.Envelope.Key, "error", err)
		return
	}

	if s.cfg.BorzoiURL != "" {
		s.sendHTTP(ctx, item, payload)
	}
	if s.udpConn != nil {
		s.sendUDP(payload)
	}
	if s.natsConn != nil {
		s.sendNATS(payload)
	}

	if !item.SuppressLog {
		slog.Info("Packet", "key", item.Envelope.Key)
	}
}

func (s *Sender) sendHTTP(ctx context.Context, item Item, payload []byte) {
	url := s.cfg.BorzoiURL + "/tetra"
	if item.FailedSlots {
		url = s.cfg.BorzoiURL + "/tetra/failed_slots"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Error("Failed to build borzoi request", "error", err)
		s.metrics.RecordSend("http", "error")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send packet to borzoi", "error", err)
		s.metrics.RecordSend("http", "error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Borzoi rejected packet", "status", resp.StatusCode, "url", url)
		s.metrics.RecordSend("http", "rejected")
		return
	}
	s.metrics.RecordSend("http", "ok")
}

func (s *Sender) sendUDP(payload []byte) {
	if _, err := s.udpConn.Write(payload); err != nil {
		slog.Error("Failed to send packet to UDP sink", "error", err)
		s.metrics.RecordSend("udp", "error")
		return
	}
	s.metrics.RecordSend("udp", "ok")
}

func (s *Sender) sendNATS(payload []byte) {
	if err := s.natsConn.Publish(s.cfg.NATSSubject, payload); err != nil {
		slog.Error("Failed to publish packet to NATS", "error", err)
		s.metrics.RecordSend("nats", "error")
		return
	}
	s.metrics.RecordSend("nats", "ok")
}
