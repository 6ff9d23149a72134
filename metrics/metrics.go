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

// Package metrics exposes the engine's observable counters as Prometheus
// metrics: the quantities spec.md calls out directly (CRC errors, route
// churn, retry exhaustion, queue drops).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the counter surface the mesh engine reports through. A nil
// interface value is never passed around; use Nil{} when no registry is
// configured, mirroring log.Nil.
type Metrics interface {
	CRCError()
	PacketProcessed(proto string)
	PacketDropped(reason string)
	RouteCreated()
	RouteImproved()
	RouteEvicted()
	RetryAttempted()
	RetryExhausted()
	PendingDropped()
}

// Nil discards every observation.
type Nil struct{}

func (Nil) CRCError()             {}
func (Nil) PacketProcessed(string) {}
func (Nil) PacketDropped(string)   {}
func (Nil) RouteCreated()          {}
func (Nil) RouteImproved()         {}
func (Nil) RouteEvicted()          {}
func (Nil) RetryAttempted()        {}
func (Nil) RetryExhausted()        {}
func (Nil) PendingDropped()        {}

// Prom is a prometheus.Collector implementation of Metrics, registered the
// way a custom per-domain collector is wired into a registry rather than
// using the global default registry implicitly.
type Prom struct {
	crcErrors       prometheus.Counter
	packetsByProto  *prometheus.CounterVec
	droppedByReason *prometheus.CounterVec
	routeCreated    prometheus.Counter
	routeImproved   prometheus.Counter
	routeEvicted    prometheus.Counter
	retryAttempted  prometheus.Counter
	retryExhausted  prometheus.Counter
	pendingDropped  prometheus.Counter
}

// NewProm constructs a Prom and registers it with reg.
func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		crcErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "crc_errors_total",
			Help:      "Frames discarded for failing the radio CRC check.",
		}),
		packetsByProto: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "packets_processed_total",
			Help:      "Packets successfully classified and processed, by protocol.",
		}, []string{"protocol"}),
		droppedByReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "packets_dropped_total",
			Help:      "Packets dropped before or during processing, by reason.",
		}, []string{"reason"}),
		routeCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "routes_created_total",
			Help:      "Routing-table entries created.",
		}),
		routeImproved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "routes_improved_total",
			Help:      "Routing-table entries overwritten with a newer sequence or better metric.",
		}),
		routeEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "routes_evicted_total",
			Help:      "Routing-table entries removed by the retry sweep, on expiry or retry exhaustion. Capacity evictions are not counted.",
		}),
		retryAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "route_request_retries_total",
			Help:      "RouteRequest retransmissions sent by the retry sweep.",
		}),
		retryExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "route_request_exhausted_total",
			Help:      "Pending routes given up on after exhausting their retry budget.",
		}),
		pendingDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshnet",
			Name:      "pending_queue_drops_total",
			Help:      "Packets dropped from a route's pending queue for exceeding its capacity.",
		}),
	}

	reg.MustRegister(
		p.crcErrors, p.packetsByProto, p.droppedByReason,
		p.routeCreated, p.routeImproved, p.routeEvicted,
		p.retryAttempted, p.retryExhausted, p.pendingDropped,
	)
	return p
}

func (p *Prom) CRCError()                      { p.crcErrors.Inc() }
func (p *Prom) PacketProcessed(proto string)    { p.packetsByProto.WithLabelValues(proto).Inc() }
func (p *Prom) PacketDropped(reason string)     { p.droppedByReason.WithLabelValues(reason).Inc() }
func (p *Prom) RouteCreated()                   { p.routeCreated.Inc() }
func (p *Prom) RouteImproved()                  { p.routeImproved.Inc() }
func (p *Prom) RouteEvicted()                   { p.routeEvicted.Inc() }
func (p *Prom) RetryAttempted()                 { p.retryAttempted.Inc() }
func (p *Prom) RetryExhausted()                 { p.retryExhausted.Inc() }
func (p *Prom) PendingDropped()                 { p.pendingDropped.Inc() }
