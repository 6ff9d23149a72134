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

package route

import (
	"sync"
	"time"

	"github.com/aerodesic-io/meshnet/wire"
)

// MaxEntries bounds the routing table. Eviction keeps it from ever growing
// past this regardless of how many distinct destinations are observed.
const MaxEntries = 64

// State reports what UpdateOrCreate did to a route.
type State int

const (
	Unchanged State = iota
	Created
	Improved
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Improved:
		return "improved"
	default:
		return "unchanged"
	}
}

// Snapshot is an immutable, lock-free copy of a route entry's comparable
// fields, safe to read after the call that produced it returns.
type Snapshot struct {
	Target      wire.Address
	NextHop     wire.Address
	Metric      wire.Metric
	Sequence    wire.Sequence
	GatewayFlag bool
	ExpiresAt   time.Time
}

func snapshotOf(e *Entry) Snapshot {
	return Snapshot{
		Target:      e.Target,
		NextHop:     e.NextHop,
		Metric:      e.Metric,
		Sequence:    e.Sequence,
		GatewayFlag: e.GatewayFlag,
		ExpiresAt:   e.ExpiresAt,
	}
}

// Table is the bounded destination-address to route-entry cache. It is the
// sole owner of every Entry it holds: entries are mutated only while
// Table's lock is held, via the callback-taking methods below, matching the
// "lookups return a borrow of the entry, held only as long as the lock"
// rule.
type Table struct {
	mu      sync.Mutex
	entries map[wire.Address]*Entry
}

// NewTable constructs an empty routing table.
func NewTable() *Table {
	return &Table{entries: make(map[wire.Address]*Entry)}
}

// Find returns a snapshot of target's entry, iff present and not expired.
func (t *Table) Find(target wire.Address, now time.Time) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[target]
	if !ok || e.Expired(now) {
		return Snapshot{}, false
	}
	return snapshotOf(e), true
}

// UpdateOrCreate applies an observation of (next_hop, sequence, metric,
// gateway_flag) for target, per spec: absent-or-expired creates fresh;
// present compares sequence then metric to decide Improved vs Unchanged.
// If onResult is non-nil it is invoked with the live entry and resulting
// state while the lock is still held, so the caller can perform further
// entry-level work (e.g. draining the pending queue) without a second
// lock acquisition racing a concurrent mutation.
func (t *Table) UpdateOrCreate(
	target, nextHop wire.Address,
	seq wire.Sequence,
	metric wire.Metric,
	gateway bool,
	now time.Time,
	onResult func(e *Entry, state State),
) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, present := t.entries[target]
	if !present || e.Expired(now) {
		e = t.insertLocked(target, now)
		e.NextHop = nextHop
		e.Sequence = seq
		e.Metric = metric
		e.GatewayFlag = gateway
		e.UpdateLifetime(now)
		if onResult != nil {
			onResult(e, Created)
		}
		return snapshotOf(e)
	}

	if seq != e.Sequence || metric < e.Metric {
		e.NextHop = nextHop
		e.Sequence = seq
		e.Metric = metric
		e.GatewayFlag = gateway
		e.UpdateLifetime(now)
		if onResult != nil {
			onResult(e, Improved)
		}
		return snapshotOf(e)
	}

	if onResult != nil {
		onResult(e, Unchanged)
	}
	return snapshotOf(e)
}

// Resolve implements the route-lookup half of the send path (§4.5 step 3)
// as a single locked operation, avoiding a lookup-then-act race against a
// concurrent UpdateOrCreate/Sweep. If the route is present, unexpired, and
// resolved, it reports (nextHop, true, false). If present, unexpired, and
// still pending (next_hop == NullAddress), onPending is invoked with the
// live entry — so the caller can enqueue onto it — and Resolve reports
// (NullAddress, false, true). If absent or expired, it reports
// (NullAddress, false, false): the caller must create a new pending route.
func (t *Table) Resolve(target wire.Address, now time.Time, onPending func(e *Entry)) (nextHop wire.Address, ready bool, pending bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[target]
	if !ok || e.Expired(now) {
		return wire.NullAddress, false, false
	}
	if e.NextHop != wire.NullAddress {
		return e.NextHop, true, false
	}
	if onPending != nil {
		onPending(e)
	}
	return wire.NullAddress, false, true
}

// CreatePendingRoute force-creates a fresh pending route (next_hop ==
// NullAddress) for target, discarding any existing entry, per §4.5.c: a
// local send with no known route always starts a brand new discovery round
// rather than reusing whatever stale entry might exist. fn is invoked with
// the live entry under lock so the caller can enqueue the triggering packet
// and attach the retry state atomically.
func (t *Table) CreatePendingRoute(target wire.Address, now time.Time, fn func(e *Entry)) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.insertLocked(target, now)
	if fn != nil {
		fn(e)
	}
	return snapshotOf(e)
}

// WithEntry runs fn with target's live entry, iff present (regardless of
// expiry — the retry sweep needs to touch entries right at their expiry
// boundary). Returns false if no entry exists for target.
func (t *Table) WithEntry(target wire.Address, fn func(e *Entry)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[target]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// Remove deletes target's entry unconditionally.
func (t *Table) Remove(target wire.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, target)
}

// Snapshot returns the current set of destination addresses, a point-in-time
// copy safe to range over without holding the lock — the retry sweep uses
// this so it never holds the table lock across a send-path call.
func (t *Table) Snapshot() []wire.Address {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]wire.Address, 0, len(t.entries))
	for a := range t.entries {
		out = append(out, a)
	}
	return out
}

// Len reports the current number of entries, expired or not.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep runs the periodic retry-sweep logic for a single target: if the
// entry is expired, it is removed and onExpired is called with
// exhausted=false. Otherwise PollRetry is consulted; a retry due is
// reported via onRetry, and retry-budget exhaustion removes the entry and
// calls onExpired with exhausted=true (distinguishing "nothing ever
// answered" from "this route simply aged out" for metrics/logging).
// Neither callback runs while the table lock is held.
func (t *Table) Sweep(target wire.Address, now time.Time, onExpired func(exhausted bool), onRetry func(req wire.RouteRequest)) {
	var (
		removed   bool
		exhausted bool
		retry     wire.RouteRequest
		hasRetry  bool
	)

	t.mu.Lock()
	e, ok := t.entries[target]
	if ok {
		switch {
		case e.Expired(now):
			delete(t.entries, target)
			removed = true
		default:
			req, polled, reqExhausted := e.PollRetry(now)
			switch {
			case reqExhausted:
				delete(t.entries, target)
				removed, exhausted = true, true
			case polled:
				retry, hasRetry = req, true
			}
		}
	}
	t.mu.Unlock()

	if removed && onExpired != nil {
		onExpired(exhausted)
	}
	if hasRetry && onRetry != nil {
		onRetry(retry)
	}
}

// insertLocked creates a fresh pending entry for target, evicting first if
// the table is at capacity: every expired entry is removed, and if that
// still leaves the table full, the entry with the earliest expiry is
// removed. Caller must hold t.mu.
func (t *Table) insertLocked(target wire.Address, now time.Time) *Entry {
	if len(t.entries) >= MaxEntries {
		t.evictExpiredLocked(now)
	}
	if len(t.entries) >= MaxEntries {
		t.evictEarliestLocked()
	}

	e := newEntry(target, now)
	t.entries[target] = e
	return e
}

func (t *Table) evictExpiredLocked(now time.Time) {
	for addr, e := range t.entries {
		if e.Expired(now) {
			delete(t.entries, addr)
		}
	}
}

func (t *Table) evictEarliestLocked() {
	var (
		victim wire.Address
		found  bool
		oldest time.Time
	)
	for addr, e := range t.entries {
		if !found || e.ExpiresAt.Before(oldest) {
			victim, oldest, found = addr, e.ExpiresAt, true
		}
	}
	if found {
		delete(t.entries, victim)
	}
}
