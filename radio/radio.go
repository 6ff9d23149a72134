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

// Package radio declares the external contract between the mesh engine
// and the physical radio driver: the upcalls the driver invokes into the
// engine, the transmit call the engine invokes into the driver, and a
// clock seam so retry/expiry logic is deterministically testable.
package radio

import "time"

// Radio is the interface the engine requires from the physical transceiver
// driver (register programming, FIFO I/O, IRQ wiring — all out of core).
// Implementations must not block: TransmitPacket hands bytes to the radio
// and returns immediately, with completion signaled later through the
// engine's OnTransmitComplete upcall.
type Radio interface {
	// TransmitPacket hands buf to the radio for transmission. The radio is
	// half-duplex and single-threaded: callers only invoke this when the
	// radio has reported itself idle (at startup, or after a prior
	// OnTransmitComplete upcall).
	TransmitPacket(buf []byte)
}

// Clock abstracts wall-clock time so periodic workers and route expiry are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
