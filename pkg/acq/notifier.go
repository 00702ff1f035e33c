/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package acq

import "sync"

// Notifier is a binary wakeup flag connecting the data-ready callback to the
// acquisition loop. Multiple notifications before a Wait coalesce into one:
// the loop reads whole frames, so a missed edge only matters as "at least one
// conversion is pending", never as a count.
type Notifier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending bool
	closed  bool
}

func NewNotifier() *Notifier {
	n := &Notifier{}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Notify marks a conversion pending and wakes the waiter. Safe to call from
// any goroutine, including bus callback context.
func (n *Notifier) Notify() {
	n.mu.Lock()
	n.pending = true
	n.mu.Unlock()
	n.cond.Signal()
}

// Wait blocks until at least one notification arrived since the last Wait,
// consuming all of them. It returns false once the notifier is closed.
func (n *Notifier) Wait() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for !n.pending && !n.closed {
		n.cond.Wait()
	}
	n.pending = false
	return !n.closed
}

// Drain discards any pending notification without blocking. The acquisition
// loop calls it when arming so a stale edge from before the restart does not
// produce a phantom first frame.
func (n *Notifier) Drain() {
	n.mu.Lock()
	n.pending = false
	n.mu.Unlock()
}

// Close releases the waiter permanently.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.cond.Broadcast()
}
