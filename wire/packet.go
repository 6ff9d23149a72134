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

// Packet is an untyped wire frame: the common currency of the transmit
// queue, the pending-packet queues, and the receive dispatch path before
// it has been classified by protocol id. Every typed view (Beacon,
// RouteAnnounce, ...) is a Packet with the same underlying buffer plus
// payload accessors.
type Packet struct{ Header }

// FromBytes wraps a raw frame (as delivered by the radio, or about to be
// handed to it) as a generic Packet.
func FromBytes(buf []byte) Packet { return Packet{Header{Buf: buf}} }

// Bytes returns the packet's backing buffer, ready for radio transmission.
func (p Packet) Bytes() []byte { return p.Buf }

// MinLen reports the minimum number of header+payload bytes a given protocol
// id requires; frames shorter than this are malformed.
func MinLen(proto Protocol) int {
	switch proto {
	case ProtoBeacon:
		return HeaderLen + beaconNameLen
	case ProtoRouteAnnounce:
		return RouteAnnounceLen
	case ProtoRouteRequest:
		return RouteRequestLen
	case ProtoRouteError:
		return RouteErrorLen
	default:
		return HeaderLen
	}
}

func (p Packet) AsBeacon() Beacon             { return Beacon{p.Header} }
func (p Packet) AsRouteAnnounce() RouteAnnounce { return RouteAnnounce{p.Header} }
func (p Packet) AsRouteRequest() RouteRequest { return RouteRequest{p.Header} }
func (p Packet) AsRouteError() RouteError     { return RouteError{p.Header} }
func (p Packet) AsData() DataPacket           { return DataPacket{p.Header} }

func (b Beacon) Packet() Packet        { return Packet{b.Header} }
func (a RouteAnnounce) Packet() Packet { return Packet{a.Header} }
func (r RouteRequest) Packet() Packet  { return Packet{r.Header} }
func (e RouteError) Packet() Packet    { return Packet{e.Header} }
func (d DataPacket) Packet() Packet    { return Packet{d.Header} }

// Clone returns an independent copy of the packet's backing buffer.
func (p Packet) Clone() Packet {
	buf := make([]byte, len(p.Buf))
	copy(buf, p.Buf)
	return Packet{Header{Buf: buf}}
}
