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

var (
	fErrorAddress  = Field{Offset: HeaderLen, Length: 2}
	fErrorSequence = NextField(fErrorAddress, 2)
	fErrorReason   = NextField(fErrorSequence, 1)
)

// RouteErrorLen is the total wire size of a RouteError packet.
const RouteErrorLen = HeaderLen + 5

// Reserved reason codes. Reserved for a future revision; the core never
// emits a RouteError today (see DESIGN.md, Open Question 3).
const (
	ReasonUnspecified    uint8 = 0
	ReasonLinkBroken     uint8 = 1
	ReasonRouteSuperseded uint8 = 2
)

// RouteError names a destination that is no longer reachable. Reserved on
// the wire; the core parses and can build one, but never originates it.
type RouteError struct{ Header }

// BuildRouteError constructs a RouteError reporting that unreachable is no
// longer reachable, carrying the sequence of the route that failed.
func BuildRouteError(source, unreachable Address, seq Sequence, reason uint8) RouteError {
	h := newHeader(ProtoRouteError, DefaultTTL, 5)
	e := RouteError{h}
	e.SetSource(source)
	e.SetUnreachable(unreachable)
	e.SetSequence(seq)
	e.SetReason(reason)
	return e
}

func (e RouteError) Unreachable() Address     { return Address(GetUint(e.Buf, fErrorAddress)) }
func (e RouteError) SetUnreachable(a Address) { PutUint(e.Buf, fErrorAddress, uint64(a)) }
func (e RouteError) Sequence() Sequence       { return Sequence(GetUint(e.Buf, fErrorSequence)) }
func (e RouteError) SetSequence(s Sequence)   { PutUint(e.Buf, fErrorSequence, uint64(s)) }
func (e RouteError) Reason() uint8            { return uint8(GetUint(e.Buf, fErrorReason)) }
func (e RouteError) SetReason(r uint8)        { PutUint(e.Buf, fErrorReason, uint64(r)) }

func (e RouteError) String() string {
	return e.Header.String() + " unreachable=" + e.Unreachable().String()
}
