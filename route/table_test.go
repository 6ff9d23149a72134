package route

import (
	"testing"
	"time"

	"github.com/aerodesic-io/meshnet/wire"
)

func TestUpdateOrCreateStates(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	snap := tbl.UpdateOrCreate(1, 2, 5, 3, false, now, nil)
	if snap.NextHop != 2 || snap.Sequence != 5 || snap.Metric != 3 {
		t.Fatalf("unexpected snapshot after create: %+v", snap)
	}

	var gotState State
	tbl.UpdateOrCreate(1, 2, 5, 3, false, now, func(e *Entry, s State) { gotState = s })
	if gotState != Unchanged {
		t.Fatalf("identical args should be Unchanged, got %s", gotState)
	}

	tbl.UpdateOrCreate(1, 2, 5, 1, false, now, func(e *Entry, s State) { gotState = s })
	if gotState != Improved {
		t.Fatalf("lower metric, same sequence should be Improved, got %s", gotState)
	}

	tbl.UpdateOrCreate(1, 2, 6, 9, false, now, func(e *Entry, s State) { gotState = s })
	if gotState != Improved {
		t.Fatalf("new sequence, worse metric should still be Improved, got %s", gotState)
	}
}

func TestUpdateOrCreateUnchangedDoesNotRefreshLifetime(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	snap := tbl.UpdateOrCreate(1, 2, 5, 3, false, now, nil)
	firstExpiry := snap.ExpiresAt

	later := now.Add(Lifetime / 2)
	snap2 := tbl.UpdateOrCreate(1, 2, 5, 3, false, later, nil)
	if !snap2.ExpiresAt.Equal(firstExpiry) {
		t.Fatalf("Unchanged refreshed lifetime: %v -> %v", firstExpiry, snap2.ExpiresAt)
	}
}

func TestFindTreatsExpiredAsAbsent(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	tbl.UpdateOrCreate(1, 2, 5, 3, false, now, nil)

	if _, ok := tbl.Find(1, now.Add(Lifetime+time.Second)); ok {
		t.Fatal("expired entry reported present")
	}
	if _, ok := tbl.Find(1, now); !ok {
		t.Fatal("fresh entry reported absent")
	}
}

func TestEvictionPrefersExpiredThenEarliest(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	// Fill the table to capacity, all unexpired, with staggered expiries.
	for i := 0; i < MaxEntries; i++ {
		addr := wire.Address(i + 1)
		tbl.CreatePendingRoute(addr, now.Add(time.Duration(i)*time.Second), nil)
	}
	if tbl.Len() != MaxEntries {
		t.Fatalf("len = %d, want %d", tbl.Len(), MaxEntries)
	}

	// Table is full of unexpired entries; inserting one more must evict the
	// earliest-expiring (address 1, created at `now`).
	tbl.CreatePendingRoute(wire.Address(9999), now, nil)
	if tbl.Len() != MaxEntries {
		t.Fatalf("len after eviction = %d, want %d", tbl.Len(), MaxEntries)
	}
	if _, ok := tbl.Find(1, now); ok {
		t.Fatal("earliest-expiring entry was not evicted")
	}
	if _, ok := tbl.Find(9999, now); !ok {
		t.Fatal("newly inserted entry missing")
	}
}

func TestEvictionRemovesExpiredFirst(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	for i := 0; i < MaxEntries; i++ {
		addr := wire.Address(i + 1)
		tbl.CreatePendingRoute(addr, now, nil)
	}

	// Everything is now expired from the perspective of `later`.
	later := now.Add(Lifetime + time.Second)
	tbl.CreatePendingRoute(wire.Address(9999), later, nil)

	if tbl.Len() != 1 {
		t.Fatalf("len after expired-eviction = %d, want 1", tbl.Len())
	}
}

func TestPendingQueueDrainTwiceEmptySecondTime(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	tbl.CreatePendingRoute(1, now, func(e *Entry) {
		e.EnqueuePending(wire.BuildDataPacket(10, 1, 2, []byte("a")).Packet())
	})

	var first, second []wire.Packet
	tbl.WithEntry(1, func(e *Entry) { first = e.DrainPending() })
	tbl.WithEntry(1, func(e *Entry) { second = e.DrainPending() })

	if len(first) != 1 {
		t.Fatalf("first drain = %d packets, want 1", len(first))
	}
	if len(second) != 0 {
		t.Fatalf("second drain = %d packets, want 0", len(second))
	}
}

func TestPendingRequestRetryThenExhaust(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	req := wire.BuildRouteRequest(1, 2, 9, 1, false)

	tbl.CreatePendingRoute(2, now, func(e *Entry) {
		e.AttachPendingRequest(req, 2, time.Second, now)
	})

	var retries int
	var gaveUp bool

	t2 := now.Add(time.Second)
	tbl.Sweep(2, t2, func(bool) { gaveUp = true }, func(wire.RouteRequest) { retries++ })
	t3 := t2.Add(time.Second)
	tbl.Sweep(2, t3, func(bool) { gaveUp = true }, func(wire.RouteRequest) { retries++ })
	t4 := t3.Add(time.Second)
	tbl.Sweep(2, t4, func(bool) { gaveUp = true }, func(wire.RouteRequest) { retries++ })

	if retries != 2 {
		t.Fatalf("retries = %d, want 2", retries)
	}
	if !gaveUp {
		t.Fatal("expected give-up after exhausting retries")
	}
	if _, ok := tbl.Find(2, t4); ok {
		t.Fatal("entry should have been removed after give-up")
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	tbl.CreatePendingRoute(3, now, nil)

	var expired bool
	tbl.Sweep(3, now.Add(Lifetime+time.Second), func(bool) { expired = true }, nil)

	if !expired {
		t.Fatal("expected expiry callback")
	}
	if tbl.Len() != 0 {
		t.Fatal("expired entry not removed")
	}
}
