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

package log

import "go.uber.org/zap"

// Zap backs Notifier with a structured zap.Logger. Route churn and retry
// events log at Info, drops and exhaustion at Warn, the Beacon debug line
// at Debug.
type Zap struct {
	L *zap.Logger
}

// NewZap wraps an already-constructed zap.Logger.
func NewZap(l *zap.Logger) Zap { return Zap{L: l} }

func fields(kv KV) []zap.Field {
	out := make([]zap.Field, 0, len(kv))
	for k, v := range kv {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (z Zap) RouteCreated(facility string, kv KV) {
	z.L.Info(facility+": route created", fields(kv)...)
}

func (z Zap) RouteImproved(facility string, kv KV) {
	z.L.Info(facility+": route improved", fields(kv)...)
}

func (z Zap) RouteExpired(facility string, kv KV) {
	z.L.Info(facility+": route expired", fields(kv)...)
}

func (z Zap) TableEvicted(facility string, kv KV) {
	z.L.Warn(facility+": route evicted for capacity", fields(kv)...)
}

func (z Zap) RequestRetried(facility string, kv KV) {
	z.L.Info(facility+": route request retried", fields(kv)...)
}

func (z Zap) RequestExhausted(facility string, kv KV) {
	z.L.Warn(facility+": route request retries exhausted", fields(kv)...)
}

func (z Zap) BeaconSeen(facility string, kv KV) {
	z.L.Debug(facility+": beacon seen", fields(kv)...)
}

func (z Zap) PacketDropped(facility string, kv KV) {
	z.L.Warn(facility+": packet dropped", fields(kv)...)
}
