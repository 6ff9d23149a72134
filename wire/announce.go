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

const gatewayBit = 0

var (
	fAnnounceFlags    = Field{Offset: HeaderLen, Length: 1}
	fAnnounceSequence = NextField(fAnnounceFlags, 2)
	fAnnounceMetric   = NextField(fAnnounceSequence, 1)
)

// RouteAnnounceLen is the total wire size of a RouteAnnounce packet.
const RouteAnnounceLen = HeaderLen + 4

// RouteAnnounce advertises a path to Source, carrying the sequence number
// and accumulated metric of the discovery round that produced it.
type RouteAnnounce struct{ Header }

// BuildRouteAnnounce constructs a RouteAnnounce originated by source,
// addressed to target, for the given discovery round.
func BuildRouteAnnounce(source, target Address, seq Sequence, metric Metric, gateway bool) RouteAnnounce {
	h := newHeader(ProtoRouteAnnounce, DefaultTTL, 4)
	a := RouteAnnounce{h}
	a.SetSource(source)
	a.SetTarget(target)
	a.SetSequence(seq)
	a.SetMetric(metric)
	a.SetGatewayFlag(gateway)
	return a
}

func (a RouteAnnounce) GatewayFlag() bool        { return GetBit(a.Buf, fAnnounceFlags, gatewayBit) }
func (a RouteAnnounce) SetGatewayFlag(v bool)    { PutBit(a.Buf, fAnnounceFlags, gatewayBit, v) }
func (a RouteAnnounce) Sequence() Sequence       { return Sequence(GetUint(a.Buf, fAnnounceSequence)) }
func (a RouteAnnounce) SetSequence(s Sequence)   { PutUint(a.Buf, fAnnounceSequence, uint64(s)) }
func (a RouteAnnounce) Metric() Metric           { return Metric(GetUint(a.Buf, fAnnounceMetric)) }
func (a RouteAnnounce) SetMetric(m Metric)       { PutUint(a.Buf, fAnnounceMetric, uint64(m)) }

func (a RouteAnnounce) String() string {
	return a.Header.String() + " seq=" + itoa(int(a.Sequence())) + " metric=" + itoa(int(a.Metric()))
}
