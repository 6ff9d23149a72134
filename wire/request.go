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
	fRequestFlags    = Field{Offset: HeaderLen, Length: 1}
	fRequestSequence = NextField(fRequestFlags, 2)
	fRequestMetric   = NextField(fRequestSequence, 1)
)

// RouteRequestLen is the total wire size of a RouteRequest packet.
const RouteRequestLen = HeaderLen + 4

// RouteRequest floods a request for a path to Target, carrying the
// originating sequence number and the metric accumulated so far.
type RouteRequest struct{ Header }

// BuildRouteRequest constructs a RouteRequest originated by source, for
// target, at the given sequence and metric. Per spec the next-hop of a
// RouteRequest is always BROADCAST.
func BuildRouteRequest(source, target Address, seq Sequence, metric Metric, gateway bool) RouteRequest {
	h := newHeader(ProtoRouteRequest, DefaultTTL, 4)
	r := RouteRequest{h}
	r.SetSource(source)
	r.SetTarget(target)
	r.SetNextHop(BroadcastAddress)
	r.SetSequence(seq)
	r.SetMetric(metric)
	r.SetGatewayFlag(gateway)
	return r
}

func (r RouteRequest) GatewayFlag() bool      { return GetBit(r.Buf, fRequestFlags, gatewayBit) }
func (r RouteRequest) SetGatewayFlag(v bool)  { PutBit(r.Buf, fRequestFlags, gatewayBit, v) }
func (r RouteRequest) Sequence() Sequence     { return Sequence(GetUint(r.Buf, fRequestSequence)) }
func (r RouteRequest) SetSequence(s Sequence) { PutUint(r.Buf, fRequestSequence, uint64(s)) }
func (r RouteRequest) Metric() Metric         { return Metric(GetUint(r.Buf, fRequestMetric)) }
func (r RouteRequest) SetMetric(m Metric)     { PutUint(r.Buf, fRequestMetric, uint64(m)) }

func (r RouteRequest) String() string {
	return r.Header.String() + " seq=" + itoa(int(r.Sequence())) + " metric=" + itoa(int(r.Metric()))
}

// Clone returns an independent copy of the packet's backing buffer, used
// when a RouteRequest is retained for retransmission across retries: the
// retained copy must not alias a buffer the send pipeline later mutates.
func (r RouteRequest) Clone() RouteRequest {
	buf := make([]byte, len(r.Buf))
	copy(buf, r.Buf)
	return RouteRequest{Header{Buf: buf}}
}
