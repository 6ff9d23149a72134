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

// Package route implements the per-destination route cache: bounded
// pending-packet queues, pending-RouteRequest retry state, and the routing
// table that owns every entry.
package route

import (
	"time"

	"github.com/aerodesic-io/meshnet/queue"
	"github.com/aerodesic-io/meshnet/wire"
)

// Lifetime is the duration a route stays present after being created or
// improved, absent a further refresh.
const Lifetime = 30 * time.Second

// PendingCap is the bound on a route's pending-packet queue.
const PendingCap = 8

// pendingRequest is the retained RouteRequest a route retransmits until it
// is answered or the retry budget is exhausted. The same request value is
// resent verbatim on every retry rather than re-derived with a new
// sequence, so intermediate nodes can dedupe on (source, sequence).
type pendingRequest struct {
	request       wire.RouteRequest
	retriesLeft   int
	retryInterval time.Duration
	nextRetry     time.Time
}

// Entry is one destination's cache line. It is owned exclusively by Table;
// nothing outside this package holds a *Entry across a lock release.
type Entry struct {
	Target      wire.Address
	NextHop     wire.Address
	Metric      wire.Metric
	Sequence    wire.Sequence
	GatewayFlag bool
	ExpiresAt   time.Time

	pending *queue.Bounded[wire.Packet]
	request *pendingRequest
}

// newEntry constructs a pending route (NextHop == NullAddress) for target,
// due to expire at now+Lifetime.
func newEntry(target wire.Address, now time.Time) *Entry {
	return &Entry{
		Target:    target,
		NextHop:   wire.NullAddress,
		ExpiresAt: now.Add(Lifetime),
		pending:   queue.NewBounded[wire.Packet](PendingCap),
	}
}

// Expired reports whether the entry is no longer present as of now.
func (e *Entry) Expired(now time.Time) bool { return !now.Before(e.ExpiresAt) }

// UpdateLifetime refreshes the entry's expiry to now+Lifetime.
func (e *Entry) UpdateLifetime(now time.Time) { e.ExpiresAt = now.Add(Lifetime) }

// EnqueuePending appends p to the bounded pending queue, dropping the
// oldest queued packet if already at capacity.
func (e *Entry) EnqueuePending(p wire.Packet) { e.pending.Push(p) }

// DrainPending removes and returns every queued packet in enqueue order.
// A route confirmed by a RouteAnnounce drains its pending queue exactly
// once; calling it again before any further enqueue returns nil.
func (e *Entry) DrainPending() []wire.Packet { return e.pending.Drain() }

// PendingDropped reports how many pending packets have been dropped for
// exceeding the queue's capacity.
func (e *Entry) PendingDropped() uint64 { return e.pending.Dropped() }

// AttachPendingRequest records request to retransmit up to retries more
// times, every retryInterval, arming the first deadline at now+retryInterval.
func (e *Entry) AttachPendingRequest(request wire.RouteRequest, retries int, retryInterval time.Duration, now time.Time) {
	e.request = &pendingRequest{
		request:       request,
		retriesLeft:   retries,
		retryInterval: retryInterval,
		nextRetry:     now.Add(retryInterval),
	}
}

// ReleasePendingRequest clears the retained RouteRequest, called once the
// route is confirmed by a matching RouteAnnounce.
func (e *Entry) ReleasePendingRequest() { e.request = nil }

// HasPendingRequest reports whether the entry is currently retrying a
// RouteRequest.
func (e *Entry) HasPendingRequest() bool { return e.request != nil }

// PollRetry checks whether the entry's pending RouteRequest deadline has
// been reached. If so and retries remain, it decrements the remaining
// count, arms the next deadline, and returns the retained request to
// retransmit. If the deadline has been reached and no retries remain, it
// returns ok=false and exhausted=true: the caller must remove this entry.
// If the deadline has not yet been reached, it returns ok=false,
// exhausted=false.
func (e *Entry) PollRetry(now time.Time) (request wire.RouteRequest, ok bool, exhausted bool) {
	if e.request == nil {
		return wire.RouteRequest{}, false, false
	}
	if now.Before(e.request.nextRetry) {
		return wire.RouteRequest{}, false, false
	}
	if e.request.retriesLeft <= 0 {
		return wire.RouteRequest{}, false, true
	}
	e.request.retriesLeft--
	e.request.nextRetry = now.Add(e.request.retryInterval)
	return e.request.request, true, false
}
