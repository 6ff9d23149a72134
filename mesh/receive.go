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

package mesh

import "github.com/aerodesic-io/meshnet/wire"

// OnReceive is the radio driver's upcall for one received frame (§4.6).
// It runs from interrupt context: it must not block, and the only I/O it
// performs is an eventual non-blocking send to the application receive
// channel and, when processing produces a packet to send, a hand-off to the
// transmit queue.
func (e *Engine) OnReceive(data []byte, crcOK bool, rssi int) {
	if !crcOK {
		e.metrics.CRCError()
		return
	}

	if len(data) < wire.HeaderLen {
		// Too short to even hold a header: nothing to classify against.
		e.metrics.CRCError()
		return
	}

	p := wire.FromBytes(data)
	if len(data) < wire.MinLen(p.Protocol()) {
		// Malformed: counted alongside CRC errors per §7, for lack of a
		// better category.
		e.metrics.CRCError()
		return
	}

	if e.Promiscuous() {
		e.deliver(p.Clone(), rssi, true)
	}

	nextHop := p.NextHop()
	if nextHop != e.Own && nextHop != wire.BroadcastAddress {
		e.metrics.PacketDropped("ignored")
		return
	}

	intent := e.classify(p)
	e.metrics.PacketProcessed(p.Protocol().String())
	e.execute(intent, rssi)
}

// OnTransmitComplete is the radio driver's upcall once the current frame
// is fully on air (§4.7). The just-finished packet is popped from the
// transmit queue; if another is queued, its bytes are returned for the
// driver to chain-transmit immediately.
func (e *Engine) OnTransmitComplete() []byte {
	e.txMu.Lock()
	defer e.txMu.Unlock()

	e.tx.Pop()
	if next, ok := e.tx.Peek(); ok {
		return next.Bytes()
	}
	return nil
}
