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
	"time"

	"github.com/aerodesic-io/meshnet/log"
	"github.com/aerodesic-io/meshnet/route"
	"github.com/aerodesic-io/meshnet/wire"
)

// Send implements the §4.5 send path. decrementTTL distinguishes a
// forward (TTL accounted against the hop just taken) from a locally
// originated packet (TTL left as the caller set it).
func (e *Engine) Send(p wire.Packet, decrementTTL bool) {
	const F = "send"

	now := e.clock.Now()

	if decrementTTL {
		if p.TTL() <= 1 {
			e.log.PacketDropped(F, log.KV{"reason": "expired", "target": p.Target().String(), "source": p.Source().String()})
			e.metrics.PacketDropped("expired")
			return
		}
		p.SetTTL(p.TTL() - 1)
	}

	p.SetPrevious(e.Own)
	if p.Source() == wire.NullAddress {
		p.SetSource(e.Own)
	}

	ready := p
	if p.NextHop() == wire.NullAddress {
		resolved, ok := e.resolve(p, now)
		if !ok {
			return
		}
		ready = resolved
	}

	e.enqueueTransmit(ready)
}

// resolve implements §4.5 step 3: deciding a next-hop for a packet whose
// on-wire next-hop is still NullAddress. It returns the packet actually
// ready to transmit (p itself, or a freshly built RouteRequest substituted
// in its place) and whether anything is ready now.
func (e *Engine) resolve(p wire.Packet, now time.Time) (wire.Packet, bool) {
	target := p.Target()

	// BROADCAST never needs a routing-table lookup: every neighbor within
	// radio range is, by construction, directly reachable.
	if target == wire.BroadcastAddress {
		p.SetNextHop(wire.BroadcastAddress)
		return p, true
	}

	nextHop, ready, pending := e.table.Resolve(target, now, func(entry *route.Entry) {
		dropped := entry.PendingDropped()
		entry.EnqueuePending(p)
		if entry.PendingDropped() != dropped {
			e.metrics.PendingDropped()
		}
	})
	if ready {
		p.SetNextHop(nextHop)
		return p, true
	}
	if pending {
		return wire.Packet{}, false
	}

	// No route at all: start a fresh discovery round and substitute the
	// RouteRequest as the packet to transmit now.
	seq := e.nextSequence()
	req := wire.BuildRouteRequest(e.Own, target, seq, 1, e.gateway)
	req.SetPrevious(e.Own)

	e.table.CreatePendingRoute(target, now, func(entry *route.Entry) {
		entry.EnqueuePending(p)
		entry.AttachPendingRequest(req.Clone(), RouteRequestRetries, RouteRequestRetryInterval, now)
	})
	e.metrics.RouteCreated()

	return req.Packet(), true
}

// enqueueTransmit appends p to the transmit queue under the engine lock.
// If the queue was empty, p is now the head and the radio is idle, so it
// is handed to the radio immediately; otherwise OnTransmitComplete will
// pick it up once the current frame finishes.
func (e *Engine) enqueueTransmit(p wire.Packet) {
	e.txMu.Lock()
	wasEmpty := e.tx.Len() == 0
	e.tx.Push(p)
	e.txMu.Unlock()

	if wasEmpty {
		e.radio.TransmitPacket(p.Bytes())
	}
}
