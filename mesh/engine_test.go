package mesh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aerodesic-io/meshnet/wire"
)

// fakeRadio records every frame handed to TransmitPacket, copying the
// buffer so a later mutation of the live packet can't retroactively change
// what was "on the air". Each frame completes at once: the radio reports
// OnTransmitComplete to its engine and transmits whatever frame comes back.
type fakeRadio struct {
	mu     sync.Mutex
	sent   []wire.Packet
	engine *Engine
}

func (r *fakeRadio) TransmitPacket(buf []byte) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	r.mu.Lock()
	r.sent = append(r.sent, wire.FromBytes(cp))
	r.mu.Unlock()

	if r.engine == nil {
		return
	}
	if next := r.engine.OnTransmitComplete(); next != nil {
		r.TransmitPacket(next)
	}
}

func (r *fakeRadio) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *fakeRadio) last() wire.Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

// fakeClock is a manually-advanced Clock, so retry/expiry timing in tests
// never depends on wall-clock scheduling.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

const (
	addrA wire.Address = 1
	addrB wire.Address = 2
	addrC wire.Address = 3
	addrD wire.Address = 4
	addrX wire.Address = 5
)

func newTestEngine(own wire.Address, gateway bool) (*Engine, *fakeRadio, *fakeClock) {
	radio := &fakeRadio{}
	clock := newFakeClock()
	e := New(own, radio, gateway, WithClock(clock))
	radio.engine = e
	return e, radio, clock
}

// S1 — RouteRequest answered by destination.
func TestRouteRequestAnsweredByDestination(t *testing.T) {
	e, radio, clock := newTestEngine(addrA, false)

	req := wire.BuildRouteRequest(addrB, addrA, 7, 1, false)
	req.SetPrevious(addrB)

	e.OnReceive(req.Bytes(), true, 0)

	snap, ok := e.table.Find(addrB, clock.Now())
	if !ok {
		t.Fatal("no route to B recorded")
	}
	if snap.NextHop != addrB || snap.Sequence != 7 || snap.Metric != 1 {
		t.Fatalf("unexpected route to B: %+v", snap)
	}

	if radio.count() != 1 {
		t.Fatalf("transmitted %d frames, want 1", radio.count())
	}
	ann := radio.last().AsRouteAnnounce()
	if ann.Protocol() != wire.ProtoRouteAnnounce {
		t.Fatalf("transmitted protocol = %s, want RouteAnnounce", ann.Protocol())
	}
	if ann.Source() != addrA || ann.Previous() != addrA || ann.Target() != addrB ||
		ann.NextHop() != addrB || ann.Sequence() != 7 || ann.Metric() != 1 {
		t.Fatalf("unexpected RouteAnnounce: %s", ann.String())
	}
}

// S2 — flooded RouteRequest, not for us, improves the reverse route and is
// rebroadcast with an incremented metric and decremented TTL.
func TestRouteRequestFloodedNotForUs(t *testing.T) {
	e, radio, clock := newTestEngine(addrA, false)

	req := wire.BuildRouteRequest(addrD, addrB, 3, 2, false)
	req.SetPrevious(addrC)

	e.OnReceive(req.Bytes(), true, 0)

	snap, ok := e.table.Find(addrD, clock.Now())
	if !ok {
		t.Fatal("no reverse route to D recorded")
	}
	if snap.NextHop != addrC || snap.Sequence != 3 || snap.Metric != 2 {
		t.Fatalf("unexpected reverse route to D: %+v", snap)
	}

	if radio.count() != 1 {
		t.Fatalf("transmitted %d frames, want 1", radio.count())
	}
	out := radio.last().AsRouteRequest()
	if out.Previous() != addrA || out.NextHop() != wire.BroadcastAddress ||
		out.Metric() != 3 || out.TTL() != 63 || out.Source() != addrD || out.Target() != addrB {
		t.Fatalf("unexpected rebroadcast RouteRequest: %s", out.String())
	}
}

// S3 — a deferred send is queued behind a RouteRequest and released once
// the matching RouteAnnounce arrives.
func TestDeferredSendResolvedByAnnounce(t *testing.T) {
	e, radio, _ := newTestEngine(addrA, false)

	data := wire.BuildDataPacket(50, wire.NullAddress, addrB, []byte("hi"))
	e.Send(data.Packet(), false)

	if radio.count() != 1 {
		t.Fatalf("transmitted %d frames after deferred send, want 1", radio.count())
	}
	req := radio.last().AsRouteRequest()
	if req.Target() != addrB || req.Metric() != 1 {
		t.Fatalf("unexpected discovery RouteRequest: %s", req.String())
	}
	seq := req.Sequence()

	ann := wire.BuildRouteAnnounce(addrB, addrA, seq, 1, false)
	ann.SetPrevious(addrB)
	ann.SetNextHop(addrA)
	e.OnReceive(ann.Bytes(), true, 0)

	if radio.count() != 2 {
		t.Fatalf("transmitted %d frames after announce, want 2", radio.count())
	}
	out := radio.last().AsData()
	if out.Previous() != addrA || out.Source() != addrA || out.NextHop() != addrB ||
		out.Target() != addrB || string(out.Payload()) != "hi" {
		t.Fatalf("unexpected released Data packet: %s", out.String())
	}
}

// S4 — a RouteRequest retried to exhaustion gives up and silently drops the
// pending data packet; exactly RouteRequestRetries+1 RouteRequests ever hit
// the radio.
func TestRouteRequestRetryThenGiveUp(t *testing.T) {
	e, radio, clock := newTestEngine(addrA, false)

	data := wire.BuildDataPacket(50, wire.NullAddress, addrX, []byte("p"))
	e.Send(data.Packet(), false)
	if radio.count() != 1 {
		t.Fatalf("transmitted %d frames after initial send, want 1", radio.count())
	}

	for i := 0; i < RouteRequestRetries; i++ {
		clock.Advance(RouteRequestRetryInterval)
		e.sweepTick(context.Background())
	}
	if radio.count() != 1+RouteRequestRetries {
		t.Fatalf("transmitted %d frames after %d retries, want %d", radio.count(), RouteRequestRetries, 1+RouteRequestRetries)
	}
	if _, ok := e.table.Find(addrX, clock.Now()); !ok {
		t.Fatal("route to X removed before retry budget exhausted")
	}

	clock.Advance(RouteRequestRetryInterval)
	e.sweepTick(context.Background())

	if radio.count() != 1+RouteRequestRetries {
		t.Fatalf("transmitted %d frames after give-up, want no further transmission (%d)", radio.count(), 1+RouteRequestRetries)
	}
	if _, ok := e.table.Find(addrX, clock.Now()); ok {
		t.Fatal("route to X should have been removed after exhausting retries")
	}
}

// S5 — forwarding a Data packet decrements TTL and rewrites previous/next-hop.
func TestDataForwarding(t *testing.T) {
	e, radio, clock := newTestEngine(addrA, false)

	e.table.UpdateOrCreate(addrD, addrC, 1, 1, false, clock.Now(), nil)

	d := wire.BuildDataPacket(50, addrB, addrD, []byte("p"))
	d.SetPrevious(addrB)
	d.SetNextHop(addrA)
	d.SetTTL(10)

	e.OnReceive(d.Bytes(), true, 0)

	if radio.count() != 1 {
		t.Fatalf("transmitted %d frames, want 1", radio.count())
	}
	out := radio.last().AsData()
	if out.Source() != addrB || out.Previous() != addrA || out.NextHop() != addrC ||
		out.Target() != addrD || out.TTL() != 9 || string(out.Payload()) != "p" {
		t.Fatalf("unexpected forwarded Data packet: %s", out.String())
	}
}

// S6's capacity-driven eviction (earliest-expiry-first once every entry is
// unexpired) is table-package behavior, independent of the engine; see
// route.TestEvictionPrefersExpiredThenEarliest.

// Property 9 — a packet at TTL<=1 is dropped rather than forwarded.
func TestSendDropsExpiredTTL(t *testing.T) {
	e, radio, _ := newTestEngine(addrA, false)

	d := wire.BuildDataPacket(50, addrB, addrD, []byte("p"))
	d.SetNextHop(addrC)
	d.SetTTL(1)

	e.Send(d.Packet(), true)

	if radio.count() != 0 {
		t.Fatalf("transmitted %d frames for an expired-TTL packet, want 0", radio.count())
	}
}

// Promiscuous mode delivers every overheard frame to the application,
// whether or not it was addressed to this node.
func TestPromiscuousDeliversUnaddressedFrames(t *testing.T) {
	e, _, _ := newTestEngine(addrA, false)
	e.SetPromiscuous(true)

	d := wire.BuildDataPacket(50, addrB, addrD, []byte("p"))
	d.SetNextHop(addrC)
	d.SetTTL(5)

	e.OnReceive(d.Bytes(), true, -40)

	got, ok := e.Receive()
	if !ok {
		t.Fatal("no packet delivered to application")
	}
	if !got.Promiscuous {
		t.Fatal("delivered packet not marked promiscuous")
	}
	if got.Packet.AsData().Target() != addrD {
		t.Fatalf("unexpected delivered packet: %s", got.Packet.String())
	}
}

// Property 10 — re-receiving the same RouteRequest (same source and
// sequence, relayed twice by a neighbor) must answer it only once: the
// second UpdateOrCreate call reports Unchanged, and that must suppress the
// reply rather than emitting a duplicate RouteAnnounce.
func TestRouteRequestDuplicateAnsweredOnce(t *testing.T) {
	e, radio, _ := newTestEngine(addrA, false)

	req := wire.BuildRouteRequest(addrB, addrA, 7, 1, false)
	req.SetPrevious(addrB)

	e.OnReceive(req.Bytes(), true, 0)
	e.OnReceive(req.Bytes(), true, 0)

	if radio.count() != 1 {
		t.Fatalf("transmitted %d frames for a duplicate RouteRequest, want 1", radio.count())
	}
	ann := radio.last().AsRouteAnnounce()
	if ann.Protocol() != wire.ProtoRouteAnnounce || ann.Target() != addrB || ann.Sequence() != 7 {
		t.Fatalf("unexpected RouteAnnounce: %s", ann.String())
	}
}

// A RouteRequest or RouteAnnounce this node originated can be heard back
// after a neighbor rebroadcasts it (source is unchanged by relays). Neither
// must be allowed to create a table entry with target == own address
// (§8 testable property 1).
func TestSelfOriginatedFloodIgnoredOnLoopback(t *testing.T) {
	e, radio, clock := newTestEngine(addrA, false)

	req := wire.BuildRouteRequest(addrA, addrC, 9, 2, false)
	req.SetPrevious(addrB)

	e.OnReceive(req.Bytes(), true, 0)

	if _, ok := e.table.Find(addrA, clock.Now()); ok {
		t.Fatal("table must never hold an entry for our own address")
	}
	if radio.count() != 0 {
		t.Fatalf("transmitted %d frames in response to a self-originated RouteRequest loopback, want 0", radio.count())
	}

	ann := wire.BuildRouteAnnounce(addrA, wire.BroadcastAddress, 9, 1, false)
	ann.SetNextHop(wire.BroadcastAddress)
	ann.SetPrevious(addrB)

	e.OnReceive(ann.Bytes(), true, 0)

	if _, ok := e.table.Find(addrA, clock.Now()); ok {
		t.Fatal("table must never hold an entry for our own address")
	}
	if radio.count() != 0 {
		t.Fatalf("transmitted %d frames in response to a self-originated RouteAnnounce loopback, want 0", radio.count())
	}
}
