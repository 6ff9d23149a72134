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

package queue

import (
	"context"
	"time"
)

// Worker runs fn on a fixed tick until Stop is called. It is the "worker
// task with stop/join" primitive every periodic job in the mesh engine
// (the retry sweep, the announce broadcaster) is built from.
type Worker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the worker. fn is invoked once per tick of interval; it
// should do its own bounded work and return promptly so the next tick's
// ctx.Done() check happens close to on schedule (the spec calls for
// checking the running flag at least once per second).
func Start(interval time.Duration, fn func(ctx context.Context)) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	return w
}

// Stop cancels the worker and blocks until its goroutine has exited.
func (w *Worker) Stop() {
	w.cancel()
	<-w.done
}
