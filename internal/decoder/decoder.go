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

// Package decoder wires the receive pipeline: ingress (UDP or replay file)
// feeds the burst synchronizer, synchronized bursts fan out to the lower MAC
// worker pool, and a single in-order consumer runs the upper MAC, fragment
// reassembly and the L3 chain before handing packets to the egress sender.
package decoder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"sync/atomic"

	"github.com/USA-RedDragon/TETRAHub/internal/borzoi"
	"github.com/USA-RedDragon/TETRAHub/internal/config"
	"github.com/USA-RedDragon/TETRAHub/internal/l3"
	"github.com/USA-RedDragon/TETRAHub/internal/lowermac"
	"github.com/USA-RedDragon/TETRAHub/internal/metrics"
	"github.com/USA-RedDragon/TETRAHub/internal/phy"
	"github.com/USA-RedDragon/TETRAHub/internal/pool"
	"github.com/USA-RedDragon/TETRAHub/internal/tetra"
	"github.com/USA-RedDragon/TETRAHub/internal/uppermac"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const rxBufferSize = 4096

// poolCapacity bounds the number of in-flight bursts; the producer blocks on
// submission beyond it.
const poolCapacity = 64

// Decoder is the pipeline orchestrator.
type Decoder struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	sender  *borzoi.Sender

	lowerMac   *lowermac.LowerMac
	workerPool *pool.OrderedPool[lowermac.Result]
	bitStream  *phy.BitStreamDecoder
	iqStream   *phy.IQStreamDecoder

	// cellSync publishes the cell state (scrambling code, timebase) that
	// the in-order consumer owns. The consumer stores a fresh snapshot
	// after every burst it applies; the ingress goroutine loads the latest
	// snapshot when it submits a burst, so pool workers only ever see an
	// immutable value and never touch cell state themselves. A burst
	// decoded while earlier bursts are still in flight observes the
	// snapshot published after the last consumed burst.
	cellSync atomic.Pointer[tetra.BroadcastSynchronizationChannel]

	// Upper MAC state. Owned exclusively by the in-order consumer, like
	// the authoritative cell sync behind cellSync.
	fragmentation  uppermac.Fragmentation
	downlinkParser *l3.Parser
	uplinkParser   *l3.Parser

	// leftover carries a partial IQ sample pair between ingress reads.
	leftover []byte

	counters counters
}

// counters are the receiver statistics. The consumer goroutine writes them;
// the periodic stats job reads them, hence the atomics.
type counters struct {
	bursts       atomic.Uint64
	decodeErrors atomic.Uint64
	packets      atomic.Uint64
}

// New builds the pipeline for the given configuration.
func New(cfg *config.Config, m *metrics.Metrics) (*Decoder, error) {
	sender, err := borzoi.NewSender(cfg.Output, m)
	if err != nil {
		return nil, err
	}

	isUplink := cfg.Input.UplinkScramblingCode != 0

	d := &Decoder{
		cfg:            cfg,
		metrics:        m,
		sender:         sender,
		lowerMac:       lowermac.New(),
		workerPool:     pool.New[lowermac.Result](cfg.Workers, poolCapacity),
		downlinkParser: l3.NewParser(true),
		uplinkParser:   l3.NewParser(false),
	}
	if isUplink {
		// Decoupled uplink decoding starts with an injected scrambling code
		// instead of waiting for a downlink BSCH.
		d.cellSync.Store(tetra.UplinkOnly(cfg.Input.UplinkScramblingCode))
	}
	d.bitStream = phy.NewBitStreamDecoder(d.submitBurst, isUplink)
	d.iqStream = phy.NewIQStreamDecoder(d.submitBurst, d.bitStream, isUplink)
	return d, nil
}

// submitBurst hands a synchronized burst to the worker pool. Called from the
// ingress goroutine only, so submissions are strictly ordered. The current
// cell sync snapshot travels with the work item, keeping the lower MAC a
// pure function on the workers.
func (d *Decoder) submitBurst(frame []byte, burstType tetra.BurstType) {
	bsc := d.cellSync.Load()
	d.workerPool.Submit(func() lowermac.Result {
		return d.lowerMac.Process(frame, burstType, bsc)
	})
}

// Run operates the pipeline until the input is exhausted or the context is
// cancelled. All in-flight work completes before it returns.
func (d *Decoder) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		// The pool stops accepting work once ingress ends; the consumer
		// keeps pulling until the results channel closes so no slot is lost.
		defer d.workerPool.Stop()
		return d.runIngress(ctx)
	})

	group.Go(func() error {
		defer close(d.sender.Queue())
		d.runConsumer(ctx)
		return nil
	})

	group.Go(func() error {
		d.sender.Run(ctx)
		return nil
	})

	err := group.Wait()
	d.sender.Close()
	return err
}

// Counters returns a snapshot of the receiver statistics. Only meaningful
// from the stats job; the counters are written by the consumer goroutine.
func (d *Decoder) Counters() (bursts, decodeErrors, packets uint64) {
	return d.counters.bursts.Load(), d.counters.decodeErrors.Load(), d.counters.packets.Load()
}

// runIngress reads the input source and feeds the synchronizer.
func (d *Decoder) runIngress(ctx context.Context) error {
	reader, closer, err := d.openInput(ctx)
	if err != nil {
		return err
	}
	defer closer()

	var record *os.File
	if d.cfg.Input.RecordFile != "" {
		record, err = os.OpenFile(d.cfg.Input.RecordFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open record file: %w", err)
		}
		defer record.Close()
	}

	buffer := make([]byte, rxBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			if record != nil {
				if _, err := record.Write(buffer[:n]); err != nil {
					return fmt.Errorf("failed to write record file: %w", err)
				}
			}
			_, span := otel.Tracer("TETRAHub").Start(ctx, "Decoder.ingest")
			d.ingest(buffer[:n])
			span.End()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingress read: %w", err)
		}
	}
}

// openInput opens the replay file or binds the receive socket. The returned
// closer also detaches the context watcher that unblocks a pending read on
// cancellation.
func (d *Decoder) openInput(ctx context.Context) (io.Reader, func(), error) {
	if d.cfg.Input.File != "" {
		f, err := os.Open(d.cfg.Input.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open input file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: d.cfg.Input.ReceivePort}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bind receive socket: %w", err)
	}
	slog.Info("Listening for physical layer data", "address", addr.String())

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	return conn, func() { close(done); conn.Close() }, nil
}

// ingest dispatches one chunk of raw ingress bytes according to the input
// format.
func (d *Decoder) ingest(data []byte) {
	if d.cfg.Input.IQ {
		d.ingestIQ(data)
		return
	}
	if d.cfg.Input.Packed {
		for _, octet := range data {
			for j := 0; j < 8; j++ {
				d.bitStream.ProcessBit(octet >> j & 0x1)
			}
		}
		return
	}
	for _, octet := range data {
		d.bitStream.ProcessBit(octet & 0x1)
	}
}

// ingestIQ parses pairs of little-endian float32 as one symbol each,
// carrying partial pairs across reads.
func (d *Decoder) ingestIQ(data []byte) {
	const symbolBytes = 8

	if len(d.leftover) > 0 {
		data = append(d.leftover, data...)
	}
	end := len(data) - len(data)%symbolBytes
	for i := 0; i < end; i += symbolBytes {
		re := math.Float32frombits(binary.LittleEndian.Uint32(data[i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(data[i+4:]))
		d.iqStream.ProcessComplex(complex(re, im))
	}
	d.leftover = append(d.leftover[:0], data[end:]...)
}

// runConsumer pops lower MAC results in submission order and runs all
// stateful upper MAC, fragmentation and L3 processing.
func (d *Decoder) runConsumer(ctx context.Context) {
	for result := range d.workerPool.Results() {
		d.consume(ctx, result)
	}
}

func (d *Decoder) consume(_ context.Context, result lowermac.Result) {
	d.counters.bursts.Add(1)
	d.metrics.RecordBurst(result.BurstType.String(), result.Err != nil)
	if result.Err != nil {
		d.counters.decodeErrors.Add(1)
		slog.Debug("Burst decode error", "burstType", result.BurstType, "error", result.Err)
	}

	// Apply the cell state here, in reception order: a decoded BSCH
	// replaces the lock, otherwise the timebase advances exactly once per
	// received downlink burst. The updated snapshot is published for the
	// next submissions.
	switch {
	case result.Sync != nil:
		slog.Info("Cell synchronization", "bsch", result.Sync.String())
		d.cellSync.Store(result.Sync)
		d.metrics.TimebaseCount.Set(float64(result.Sync.Time.Count()))
	case result.BurstType.IsDownlink():
		if sync := d.cellSync.Load(); sync != nil {
			advanced := *sync
			advanced.Time.Increment()
			d.cellSync.Store(&advanced)
			d.metrics.TimebaseCount.Set(float64(advanced.Time.Count()))
		}
	}

	if result.Slots == nil {
		return
	}

	for _, slot := range result.Slots.Concrete() {
		d.metrics.RecordSlot(slot.Channel.String(), slot.CrcOK)
	}

	// Corrupt signalling slots go out raw for offline re-analysis; the
	// remaining slots of the burst still parse below.
	if result.Slots.HasCrcError() {
		d.sender.Queue() <- borzoi.NewFailedSlotsEnvelope(d.cfg.StationID, result.Slots)
	}

	packets, err := uppermac.ParseSlots(result.Slots)
	if err != nil {
		d.counters.decodeErrors.Add(1)
		slog.Debug("Upper MAC decode error", "burstType", result.BurstType, "error", err)
		return
	}

	d.processPackets(result.Slots.BurstType(), packets)
}

// processPackets reassembles fragments and runs the L3 chain over every
// C-plane PDU that carries a TM-SDU.
func (d *Decoder) processPackets(burstType tetra.BurstType, packets uppermac.Packets) {
	if packets.Broadcast != nil {
		slog.Debug("Broadcast", "channel", packets.Broadcast.LogicalChannel)
	}

	for _, packet := range packets.CPlaneSignalling {
		switch {
		case packet.IsDownlinkFragment() || packet.IsUplinkFragment():
			reassembled, err := d.fragmentation.Push(packet)
			if err != nil {
				d.counters.decodeErrors.Add(1)
				slog.Debug("Fragmentation error", "type", packet.Type, "error", err)
				continue
			}
			if reassembled != nil {
				d.emitCPlane(burstType, *reassembled)
			}
		case packet.TMSDU != nil:
			d.emitCPlane(burstType, packet)
		}
	}
}

func (d *Decoder) emitCPlane(burstType tetra.BurstType, packet uppermac.CPlaneSignallingPacket) {
	parser := d.uplinkParser
	if burstType.IsDownlink() {
		parser = d.downlinkParser
	}

	llc, err := parser.ParseCPlane(packet)
	if err != nil {
		d.counters.decodeErrors.Add(1)
		slog.Debug("L3 decode error", "macType", packet.Type, "error", err)
		return
	}

	d.counters.packets.Add(1)
	d.metrics.RecordPacket(llc.Key())
	d.sender.Queue() <- borzoi.NewPacketEnvelope(d.cfg.StationID, llc)
}
