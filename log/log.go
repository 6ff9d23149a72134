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

// Package log declares the structured-event logging interface the mesh
// engine reports through: callers log named events with a facility and a
// field set, not formatted strings.
package log

// KV is a bag of structured fields attached to a single log event.
type KV = map[string]any

// Notifier is the logging surface the mesh engine calls through. Each method names one mesh event; implementations decide
// format and level.
type Notifier interface {
	RouteCreated(facility string, fields KV)
	RouteImproved(facility string, fields KV)
	RouteExpired(facility string, fields KV)
	TableEvicted(facility string, fields KV)
	RequestRetried(facility string, fields KV)
	RequestExhausted(facility string, fields KV)
	BeaconSeen(facility string, fields KV)
	PacketDropped(facility string, fields KV)
}

// Nil is a Notifier that discards every event, the default when no logger
// is configured.
type Nil struct{}

func (Nil) RouteCreated(string, KV)     {}
func (Nil) RouteImproved(string, KV)    {}
func (Nil) RouteExpired(string, KV)     {}
func (Nil) TableEvicted(string, KV)     {}
func (Nil) RequestRetried(string, KV)   {}
func (Nil) RequestExhausted(string, KV) {}
func (Nil) BeaconSeen(string, KV)       {}
func (Nil) PacketDropped(string, KV)    {}
