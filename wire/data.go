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

// DataPacket carries an opaque application payload. Its protocol byte is
// whatever the application assigns it, as long as it doesn't collide with
// one of the reserved control protocol ids.
type DataPacket struct{ Header }

// BuildDataPacket constructs a Data packet for the given application
// protocol id (any value other than the reserved control ids) carrying
// payload, from source to target. Next-hop is left as NullAddress, so the
// send pipeline resolves a route unless the caller sets one.
func BuildDataPacket(proto Protocol, source, target Address, payload []byte) DataPacket {
	h := newHeader(proto, DefaultTTL, len(payload))
	d := DataPacket{h}
	d.SetSource(source)
	d.SetTarget(target)
	copy(d.Buf[HeaderLen:], payload)
	return d
}

// Payload returns the opaque bytes following the fixed header.
func (d DataPacket) Payload() []byte {
	return d.Buf[HeaderLen:]
}

func (d DataPacket) String() string {
	return d.Header.String() + " len=" + itoa(len(d.Payload()))
}
