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

package wire

import "fmt"

// Address is a 16-bit mesh node address.
type Address uint16

const (
	// NullAddress marks an unset field awaiting resolution.
	NullAddress Address = 0x0000
	// BroadcastAddress is the link-layer and end-to-end broadcast address.
	BroadcastAddress Address = 0xFFFF
)

func (a Address) String() string {
	switch a {
	case NullAddress:
		return "NULL"
	case BroadcastAddress:
		return "BCAST"
	default:
		return fmt.Sprintf("%04x", uint16(a))
	}
}

// Sequence is a per-originator monotonically increasing discovery round
// identifier. It wraps silently at 65536, as the spec requires.
type Sequence uint16

// Metric is an accumulated hop count.
type Metric uint8

// TTL is the remaining hop budget of a packet.
type TTL uint8

// DefaultTTL is the TTL a newly originated packet starts with.
const DefaultTTL TTL = 64

// Protocol identifies the payload layout following the 10-byte header.
type Protocol uint8

const (
	ProtoBeacon        Protocol = 0
	ProtoRouteAnnounce Protocol = 1
	ProtoRouteRequest  Protocol = 2
	ProtoRouteError    Protocol = 4
	// Any other value denotes an opaque Data payload.
)

func (p Protocol) String() string {
	switch p {
	case ProtoBeacon:
		return "Beacon"
	case ProtoRouteAnnounce:
		return "RouteAnnounce"
	case ProtoRouteRequest:
		return "RouteRequest"
	case ProtoRouteError:
		return "RouteError"
	default:
		return "Data"
	}
}

// Header field layout, per spec: 10-byte fixed prefix.
var (
	fNextHop  = Field{Offset: 0, Length: 2}
	fTarget   = NextField(fNextHop, 2)
	fPrevious = NextField(fTarget, 2)
	fSource   = NextField(fPrevious, 2)
	fProtocol = NextField(fSource, 1)
	fTTL      = NextField(fProtocol, 1)
)

// HeaderLen is the fixed size, in bytes, of the packet header.
const HeaderLen = 10

// Header is a mutable view over the 10-byte fixed prefix shared by every
// packet type. Protocol-specific types embed it and add payload accessors.
type Header struct {
	Buf []byte
}

func (h Header) NextHop() Address    { return Address(GetUint(h.Buf, fNextHop)) }
func (h Header) SetNextHop(a Address) { PutUint(h.Buf, fNextHop, uint64(a)) }

func (h Header) Target() Address     { return Address(GetUint(h.Buf, fTarget)) }
func (h Header) SetTarget(a Address) { PutUint(h.Buf, fTarget, uint64(a)) }

func (h Header) Previous() Address     { return Address(GetUint(h.Buf, fPrevious)) }
func (h Header) SetPrevious(a Address) { PutUint(h.Buf, fPrevious, uint64(a)) }

func (h Header) Source() Address     { return Address(GetUint(h.Buf, fSource)) }
func (h Header) SetSource(a Address) { PutUint(h.Buf, fSource, uint64(a)) }

func (h Header) Protocol() Protocol     { return Protocol(GetUint(h.Buf, fProtocol)) }
func (h Header) SetProtocol(p Protocol) { PutUint(h.Buf, fProtocol, uint64(p)) }

func (h Header) TTL() TTL     { return TTL(GetUint(h.Buf, fTTL)) }
func (h Header) SetTTL(t TTL) { PutUint(h.Buf, fTTL, uint64(t)) }

func (h Header) String() string {
	return fmt.Sprintf("%s->%s src=%s tgt=%s proto=%s ttl=%d",
		h.Previous(), h.NextHop(), h.Source(), h.Target(), h.Protocol(), h.TTL())
}

// newHeader allocates a zeroed buffer of length HeaderLen+payload and wraps
// it, setting up the fields every outbound packet shares.
func newHeader(proto Protocol, ttl TTL, payload int) Header {
	buf := make([]byte, HeaderLen, HeaderLen+payload)
	h := Header{Buf: buf}
	h.SetProtocol(proto)
	h.SetTTL(ttl)
	h.Buf = AppendZero(h.Buf, payload)
	return h
}
