/*
 * VC5 load balancer. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package mesh is the central coordinator: receive dispatch, the
// per-protocol process callbacks, the send path, and the two periodic
// workers (retry sweep, gateway announce) that drive the routing table.
package mesh

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerodesic-io/meshnet/log"
	"github.com/aerodesic-io/meshnet/metrics"
	"github.com/aerodesic-io/meshnet/queue"
	"github.com/aerodesic-io/meshnet/radio"
	"github.com/aerodesic-io/meshnet/route"
	"github.com/aerodesic-io/meshnet/wire"

	"golang.org/x/sync/errgroup"
)

const (
	// RetrySweepInterval is how often the retry sweep runs (§4.8).
	RetrySweepInterval = 500 * time.Millisecond

	// RouteRequestRetries is the number of retransmissions attempted for
	// an unresolved RouteRequest before the route is given up on, not
	// counting the original transmission — so a pending route that never
	// gets an answer puts RouteRequestRetries+1 copies on the air in all.
	RouteRequestRetries = 4

	// RouteRequestRetryInterval is the spacing between those retransmissions.
	RouteRequestRetryInterval = 5 * time.Second

	// DefaultAnnounceInterval is the gateway announce period (§4.9).
	DefaultAnnounceInterval = 15 * time.Second

	// ReceiveQueueCap bounds the application-facing receive channel.
	ReceiveQueueCap = 32
)

// Received is one packet delivered to the application: either genuinely
// addressed to this node, or a promiscuous-mode duplicate of a frame that
// was not.
type Received struct {
	Packet      wire.Packet
	RSSI        int
	Promiscuous bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger installs a structured-event logger in place of log.Nil{}.
func WithLogger(n log.Notifier) Option { return func(e *Engine) { e.log = n } }

// WithMetrics installs a counter sink in place of metrics.Nil{}.
func WithMetrics(m metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithClock substitutes the clock used for route expiry and retry timing,
// for deterministic tests.
func WithClock(c radio.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithAnnounceInterval overrides DefaultAnnounceInterval.
func WithAnnounceInterval(d time.Duration) Option {
	return func(e *Engine) { e.announceInterval = d }
}

// Engine is the mesh routing coordinator. It owns the routing table and
// the transmit queue outright; nothing outside this package mutates
// either directly. A *Engine is the value a radio driver's interrupt
// handlers call into (OnReceive, OnTransmitComplete) and the value an
// application sends/receives through (Send, Receive).
type Engine struct {
	Own     wire.Address
	gateway bool

	promiscuous atomic.Bool
	debug       atomic.Bool

	table *route.Table

	txMu sync.Mutex
	tx   *queue.Bounded[wire.Packet]

	recv chan Received

	radio radio.Radio
	clock radio.Clock
	log   log.Notifier
	metrics metrics.Metrics

	seq atomic.Uint32

	announceInterval time.Duration
	sweepWorker      *queue.Worker
	announceWorker   *queue.Worker
}

// New constructs an Engine for own, transmitting through r. gateway marks
// this node as eligible to run the periodic announce worker (§4.9) and is
// reflected into every RouteRequest/RouteAnnounce this node originates.
func New(own wire.Address, r radio.Radio, gateway bool, opts ...Option) *Engine {
	e := &Engine{
		Own:              own,
		gateway:          gateway,
		table:            route.NewTable(),
		tx:               queue.NewBounded[wire.Packet](0),
		recv:             make(chan Received, ReceiveQueueCap),
		radio:            r,
		clock:            radio.SystemClock{},
		log:              log.Nil{},
		metrics:          metrics.Nil{},
		announceInterval: DefaultAnnounceInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsGateway reports whether this node advertises gateway connectivity.
func (e *Engine) IsGateway() bool { return e.gateway }

// SetPromiscuous toggles delivery of every overheard frame to the
// application, not just those addressed to this node or BROADCAST.
func (e *Engine) SetPromiscuous(v bool) { e.promiscuous.Store(v) }

// Promiscuous reports the current promiscuous-mode setting.
func (e *Engine) Promiscuous() bool { return e.promiscuous.Load() }

// SetDebug toggles the Beacon debug log line and other verbose output.
func (e *Engine) SetDebug(v bool) { e.debug.Store(v) }

// Debug reports the current debug setting.
func (e *Engine) Debug() bool { return e.debug.Load() }

// Receive blocks until a packet is available for the application. It takes
// no context and has no timeout.
func (e *Engine) Receive() (Received, bool) {
	r, ok := <-e.recv
	return r, ok
}

// nextSequence returns the next originating sequence number for a
// RouteRequest or gateway RouteAnnounce this node constructs, wrapping
// silently at 65536 per spec.
func (e *Engine) nextSequence() wire.Sequence {
	return wire.Sequence(uint16(e.seq.Add(1)))
}

// deliver pushes a packet onto the application receive channel without
// blocking: the receive path (interrupt context) must never block, so a
// full channel drops the packet and counts it rather than waiting for a
// reader.
func (e *Engine) deliver(p wire.Packet, rssi int, promiscuous bool) {
	select {
	case e.recv <- Received{Packet: p, RSSI: rssi, Promiscuous: promiscuous}:
	default:
		e.metrics.PacketDropped("recv-queue-full")
		e.log.PacketDropped("deliver", log.KV{"reason": "recv-queue-full", "promiscuous": promiscuous})
	}
}

// Start launches the retry sweep and, if this node is a gateway, the
// announce worker.
func (e *Engine) Start() {
	e.sweepWorker = queue.Start(RetrySweepInterval, e.sweepTick)
	if e.gateway {
		e.announceWorker = queue.Start(e.announceInterval, e.announceTick)
	}
}

// Stop cancels and joins both workers, waiting for them concurrently
// through an errgroup rather than sequentially.
func (e *Engine) Stop() {
	var g errgroup.Group
	if e.sweepWorker != nil {
		w := e.sweepWorker
		g.Go(func() error { w.Stop(); return nil })
	}
	if e.announceWorker != nil {
		w := e.announceWorker
		g.Go(func() error { w.Stop(); return nil })
	}
	g.Wait()
}
