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
	"context"

	"github.com/aerodesic-io/meshnet/log"
	"github.com/aerodesic-io/meshnet/wire"
)

// sweepTick is the §4.8 retry sweep: every RetrySweepInterval, walk a
// snapshot of routing-table targets and either expire or retry each one.
// The snapshot is taken without holding the table lock across the
// per-target Sweep calls, and Sweep itself never holds the lock across a
// Send call, so there is no lock-ordering hazard to manage here at all.
func (e *Engine) sweepTick(ctx context.Context) {
	const F = "sweep"

	now := e.clock.Now()
	for _, target := range e.table.Snapshot() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e.table.Sweep(target, now,
			func(exhausted bool) {
				e.metrics.RouteEvicted()
				if exhausted {
					e.metrics.RetryExhausted()
					e.log.RequestExhausted(F, log.KV{"target": target.String()})
					return
				}
				e.log.RouteExpired(F, log.KV{"target": target.String()})
			},
			func(req wire.RouteRequest) {
				e.metrics.RetryAttempted()
				e.log.RequestRetried(F, log.KV{"target": target.String(), "sequence": int(req.Sequence())})
				e.Send(req.Packet(), false)
			})
	}
}

// announceTick is the §4.9 announce worker: broadcasts a fresh,
// zero-metric RouteAnnounce with the gateway flag set. Only started when
// the engine is configured as a gateway.
func (e *Engine) announceTick(ctx context.Context) {
	seq := e.nextSequence()
	ann := wire.BuildRouteAnnounce(e.Own, wire.BroadcastAddress, seq, 0, true)
	ann.SetNextHop(wire.BroadcastAddress)
	e.Send(ann.Packet(), false)
}
