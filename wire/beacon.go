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

import "strings"

const beaconNameLen = 16

var fBeaconName = Field{Offset: HeaderLen, Length: beaconNameLen}

// Beacon is an observational-only announcement of a node's friendly name.
type Beacon struct{ Header }

// BuildBeacon constructs a Beacon. Per spec it is always TTL=1 and
// addressed to the broadcast next-hop.
func BuildBeacon(source Address, name string) Beacon {
	h := newHeader(ProtoBeacon, 1, beaconNameLen)
	b := Beacon{h}
	b.SetSource(source)
	b.SetNextHop(BroadcastAddress)
	b.SetName(name)
	return b
}

// Name returns the NUL-padded 16-byte name field, trimmed of trailing NULs.
func (b Beacon) Name() string {
	raw := b.Buf[fBeaconName.Offset : fBeaconName.Offset+fBeaconName.Length]
	return strings.TrimRight(string(raw), "\x00")
}

// SetName writes name into the fixed 16-byte field, truncating or
// zero-padding as needed.
func (b Beacon) SetName(name string) {
	dst := b.Buf[fBeaconName.Offset : fBeaconName.Offset+fBeaconName.Length]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

func (b Beacon) String() string {
	return b.Header.String() + " name=" + b.Name()
}
