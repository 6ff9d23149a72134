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

package radio

// Channel describes one contiguous channel plan within a regulatory
// domain's band: a range of channel numbers, the data rates valid on them,
// and the frequency stepping used to compute a channel's center frequency.
type Channel struct {
	ChannelLo, ChannelHi int
	DataRateLo, DataRateHi int
	BaseFreqHz             int64
	StepHz                 int64
}

// FreqHz returns the center frequency of channel n within this plan. n is
// not range-checked against ChannelLo/ChannelHi; callers validate first.
func (c Channel) FreqHz(n int) int64 {
	return c.BaseFreqHz + int64(n)*c.StepHz
}

// DataRate describes one entry of a domain's data-rate table: spreading
// factor and bandwidth (the chirp-spread-spectrum parameters), the
// regulatory TX power ceiling, and the payload limits that follow from
// them.
type DataRate struct {
	SpreadingFactor int
	BandwidthHz     int64
	TXPowerDBm      int
	MaxUserPayload  int
	MaxTotalBytes   int
}

// Domain is a named regulatory plan: its channel layout and its indexed
// data-rate table, most-reliable entry first.
type Domain struct {
	Name      string
	Channels  []Channel
	DataRates map[int]DataRate
}

// US915 is the 902-928MHz North American plan: narrow-band uplink
// channels for normal traffic, a coarser wide-band uplink tier, and a
// downlink tier reserved for gateway-originated broadcasts.
var US915 = Domain{
	Name: "US915",
	Channels: []Channel{
		{ChannelLo: 0, ChannelHi: 63, DataRateLo: 0, DataRateHi: 3, BaseFreqHz: 902300000, StepHz: 200000},
		{ChannelLo: 64, ChannelHi: 71, DataRateLo: 4, DataRateHi: 4, BaseFreqHz: 903000000, StepHz: 1600000},
		{ChannelLo: 0, ChannelHi: 7, DataRateLo: 8, DataRateHi: 13, BaseFreqHz: 923300000, StepHz: 600000},
	},
	DataRates: map[int]DataRate{
		0:  {SpreadingFactor: 10, BandwidthHz: 125000, TXPowerDBm: 30, MaxUserPayload: 11, MaxTotalBytes: 19},
		1:  {SpreadingFactor: 9, BandwidthHz: 125000, TXPowerDBm: 28, MaxUserPayload: 53, MaxTotalBytes: 61},
		2:  {SpreadingFactor: 8, BandwidthHz: 125000, TXPowerDBm: 26, MaxUserPayload: 124, MaxTotalBytes: 133},
		3:  {SpreadingFactor: 7, BandwidthHz: 125000, TXPowerDBm: 24, MaxUserPayload: 242, MaxTotalBytes: 250},
		4:  {SpreadingFactor: 8, BandwidthHz: 500000, TXPowerDBm: 22, MaxUserPayload: 242, MaxTotalBytes: 250},
		8:  {SpreadingFactor: 12, BandwidthHz: 500000, TXPowerDBm: 14, MaxUserPayload: 33, MaxTotalBytes: 41},
		9:  {SpreadingFactor: 11, BandwidthHz: 500000, TXPowerDBm: 12, MaxUserPayload: 109, MaxTotalBytes: 117},
		10: {SpreadingFactor: 10, BandwidthHz: 500000, TXPowerDBm: 10, MaxUserPayload: 220, MaxTotalBytes: 230},
		11: {SpreadingFactor: 9, BandwidthHz: 500000, TXPowerDBm: 8, MaxUserPayload: 220, MaxTotalBytes: 230},
		12: {SpreadingFactor: 8, BandwidthHz: 500000, TXPowerDBm: 6, MaxUserPayload: 220, MaxTotalBytes: 230},
		13: {SpreadingFactor: 7, BandwidthHz: 500000, TXPowerDBm: 4, MaxUserPayload: 220, MaxTotalBytes: 230},
	},
}

// MaxUserPayload returns the largest application payload the given data
// rate of this domain can carry, and false if the domain has no such rate.
func (d Domain) MaxUserPayload(dataRate int) (int, bool) {
	dr, ok := d.DataRates[dataRate]
	if !ok {
		return 0, false
	}
	return dr.MaxUserPayload, true
}
