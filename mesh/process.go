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

package mesh

import (
	"github.com/aerodesic-io/meshnet/log"
	"github.com/aerodesic-io/meshnet/route"
	"github.com/aerodesic-io/meshnet/wire"
)

// IntentKind distinguishes the variants of Intent. Packet types own no
// back-reference to the Engine (a process function cannot call Send
// itself); instead every process function returns one of these and
// mesh.execute performs it once the routing-table lock has been released.
type IntentKind int

const (
	// IntentNone means processing is complete; nothing further to send.
	IntentNone IntentKind = iota
	// IntentForward means transmit Packet, decrementing its TTL first iff
	// DecrementTTL.
	IntentForward
	// IntentReleasePending means a route was just confirmed: every packet
	// in Released should be fed back through Send, in order.
	IntentReleasePending
	// IntentDeliver means Data should be handed to the application.
	IntentDeliver
)

// Intent is the result of a process function: a description of what the
// engine should do next, to be executed outside the routing-table lock.
type Intent struct {
	Kind         IntentKind
	Packet       wire.Packet
	DecrementTTL bool
	Released     []wire.Packet
	Data         wire.DataPacket
}

// classify dispatches a received packet to its protocol's process
// function, defaulting any unrecognized protocol id to Data per §4.6.
func (e *Engine) classify(p wire.Packet) Intent {
	switch p.Protocol() {
	case wire.ProtoBeacon:
		return processBeacon(e, p.AsBeacon())
	case wire.ProtoRouteAnnounce:
		return processRouteAnnounce(e, p.AsRouteAnnounce())
	case wire.ProtoRouteRequest:
		return processRouteRequest(e, p.AsRouteRequest())
	case wire.ProtoRouteError:
		return processRouteError(e, p.AsRouteError())
	default:
		return processData(e, p.AsData())
	}
}

// execute performs intent. rssi is only meaningful for IntentDeliver,
// carried through from the OnReceive call that produced this intent.
func (e *Engine) execute(intent Intent, rssi int) {
	switch intent.Kind {
	case IntentForward:
		e.Send(intent.Packet, intent.DecrementTTL)
	case IntentReleasePending:
		for _, pending := range intent.Released {
			e.Send(pending, false)
		}
	case IntentDeliver:
		// Clone before handing off, same as the promiscuous path in
		// receive.go: OnReceive's data slice is only guaranteed valid for
		// the duration of the call, and an interrupt-driven FIFO driver
		// typically reuses that buffer once it returns.
		e.deliver(intent.Data.Packet().Clone(), rssi, false)
	}
}

// processBeacon is observational only: no state change, an optional debug
// log line.
func processBeacon(e *Engine, b wire.Beacon) Intent {
	if e.Debug() {
		e.log.BeaconSeen("beacon", log.KV{"source": b.Source().String(), "name": b.Name()})
	}
	return Intent{Kind: IntentNone}
}

// processRouteAnnounce implements §4.2's RouteAnnounce contract: capture
// the reverse route to the announcement's originator, and either release
// pending traffic (we are the original requester) or relay the
// announcement one hop closer to it.
//
// A literal reading of spec.md gates the relay branch on the on-wire
// next-hop being BROADCAST, matching the common case (a gateway's flooded
// announce). But a RouteAnnounce built in reply to a RouteRequest is
// addressed unicast, hop by hop, back toward the requester (see
// processRouteRequest below) — at each intermediate hop the wire next-hop
// is that hop's own address, never BROADCAST, so a literal BROADCAST gate
// would strand the reply at the first relay and break multi-hop discovery
// entirely (the very thing §8's testable property 10 and scenario S3
// require to work). original_source/meshnet.py's RouteAnnounce.process
// has no such gate — it relays whenever the route was created or improved
// and the announcement isn't already for us — so that unconditional
// relay is what this follows.
func processRouteAnnounce(e *Engine, a wire.RouteAnnounce) Intent {
	const F = "route-announce"

	// A RouteAnnounce we originated can be heard back after a neighbor
	// rebroadcasts it; source is unchanged by relays, so without this guard
	// the table would be asked to create a route with target == e.Own,
	// violating the "own address never appears in the table" invariant.
	if a.Source() == e.Own {
		return Intent{Kind: IntentNone}
	}

	var (
		released []wire.Packet
		state    route.State
	)

	e.table.UpdateOrCreate(a.Source(), a.Previous(), a.Sequence(), a.Metric(), a.GatewayFlag(), e.clock.Now(),
		func(entry *route.Entry, st route.State) {
			state = st
			if st == route.Unchanged {
				return
			}
			if a.Target() == e.Own {
				entry.ReleasePendingRequest()
				released = entry.DrainPending()
			}
		})

	switch state {
	case route.Created:
		e.metrics.RouteCreated()
		e.log.RouteCreated(F, log.KV{"target": a.Source().String(), "nextHop": a.Previous().String(), "metric": int(a.Metric())})
	case route.Improved:
		e.metrics.RouteImproved()
		e.log.RouteImproved(F, log.KV{"target": a.Source().String(), "nextHop": a.Previous().String(), "metric": int(a.Metric())})
	case route.Unchanged:
		return Intent{Kind: IntentNone}
	}

	if a.Target() == e.Own {
		return Intent{Kind: IntentReleasePending, Released: released}
	}

	a.SetNextHop(wire.NullAddress)
	a.SetMetric(a.Metric() + 1)
	return Intent{Kind: IntentForward, Packet: a.Packet(), DecrementTTL: true}
}

// processRouteRequest implements §4.2's RouteRequest contract: capture the
// reverse route to the requester, then either answer (we are the target)
// or relay the flood.
//
// The reply is addressed to r.Source() — the original requester, not
// r.Previous() — with next-hop set explicitly to r.Previous(), the direct
// radio neighbor that relayed this request to us. original_source/
// meshnet.py instead builds the reply with target=r.previous() and no
// explicit next-hop, relying on a routing-table lookup of that target to
// resolve it. That only happens to work in meshnet.py's own single-hop
// test because a reply's target and previous coincide there; in any path
// of two or more hops nothing keys a route to an intermediate relay's own
// address, so a lookup of it always misses and the reply would itself
// trigger a brand-new, unrelated route discovery back toward the relay
// rather than being forwarded at all. Addressing the reply to the
// requester's address, one direct hop at a time via next-hop, is the only
// reading consistent with RouteAnnounce.process's own "target equals our
// address" check ever firing at the true originator.
func processRouteRequest(e *Engine, r wire.RouteRequest) Intent {
	const F = "route-request"

	// Same loop guard as processRouteAnnounce: a flooded RouteRequest we
	// originated can come back to us via a neighbor's rebroadcast with
	// source still pointing at us.
	if r.Source() == e.Own {
		return Intent{Kind: IntentNone}
	}

	var state route.State
	e.table.UpdateOrCreate(r.Source(), r.Previous(), r.Sequence(), r.Metric(), r.GatewayFlag(), e.clock.Now(),
		func(_ *route.Entry, st route.State) { state = st })

	switch state {
	case route.Created:
		e.metrics.RouteCreated()
		e.log.RouteCreated(F, log.KV{"target": r.Source().String(), "nextHop": r.Previous().String(), "metric": int(r.Metric())})
	case route.Improved:
		e.metrics.RouteImproved()
		e.log.RouteImproved(F, log.KV{"target": r.Source().String(), "nextHop": r.Previous().String(), "metric": int(r.Metric())})
	}

	if r.Target() == e.Own {
		// Gate the reply on the reverse-route update actually changing
		// something: a re-received RouteRequest with the same (source,
		// sequence) is Unchanged, and answering it again would violate §8
		// testable property 10 ("exactly one RouteAnnounce per distinct
		// incoming sequence number, even if the request is re-received").
		if state == route.Unchanged {
			return Intent{Kind: IntentNone}
		}
		ann := wire.BuildRouteAnnounce(e.Own, r.Source(), r.Sequence(), r.Metric(), e.gateway)
		ann.SetNextHop(r.Previous())
		return Intent{Kind: IntentForward, Packet: ann.Packet(), DecrementTTL: false}
	}

	if r.NextHop() == wire.BroadcastAddress && state != route.Unchanged {
		r.SetMetric(r.Metric() + 1)
		return Intent{Kind: IntentForward, Packet: r.Packet(), DecrementTTL: true}
	}

	e.log.PacketDropped(F, log.KV{"reason": "not-for-us", "target": r.Target().String()})
	return Intent{Kind: IntentNone}
}

// processRouteError is reserved: logged only, never acted on. The core
// never originates a RouteError (see DESIGN.md, Open Question 3).
func processRouteError(e *Engine, r wire.RouteError) Intent {
	e.log.PacketDropped("route-error", log.KV{"unreachable": r.Unreachable().String(), "reason": int(r.Reason())})
	return Intent{Kind: IntentNone}
}

// processData implements §4.2's DataPacket contract: deliver locally, or
// clear next-hop and forward. Never touches the routing table.
func processData(e *Engine, d wire.DataPacket) Intent {
	if d.Target() == e.Own {
		return Intent{Kind: IntentDeliver, Data: d}
	}
	d.SetNextHop(wire.NullAddress)
	return Intent{Kind: IntentForward, Packet: d.Packet(), DecrementTTL: true}
}
