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

// Queue is the bounded handoff between the acquisition loop and the
// transmitter: a fixed ring of equally sized slots with copy-in, copy-out
// semantics. When the ring is full the incoming packet is dropped and the
// queued ones survive; under backpressure the freshest data is the cheapest
// to lose since the consumer is already behind.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	slots    [][]byte
	head     int
	count    int
	slotSize int
	closed   bool
	dropped  uint64
}

func NewQueue(slotCount, slotSize int) *Queue {
	q := &Queue{
		slots:    make([][]byte, slotCount),
		slotSize: slotSize,
	}
	for i := range q.slots {
		q.slots[i] = make([]byte, slotSize)
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// TryPush copies the packet into a free slot. It returns false without
// blocking when the ring is full or the packet does not fit a slot.
func (q *Queue) TryPush(packet []byte) bool {
	if len(packet) != q.slotSize {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.count == len(q.slots) {
		q.dropped++
		return false
	}
	tail := (q.head + q.count) % len(q.slots)
	copy(q.slots[tail], packet)
	q.count++
	q.cond.Signal()
	return true
}

// Pop blocks until a packet is available and copies it into dst, which must
// be one slot long. It returns false once the queue is closed and drained.
func (q *Queue) Pop(dst []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.count == 0 {
		return false
	}
	copy(dst, q.slots[q.head])
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	return true
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped returns how many packets were rejected since the last Reset.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Reset discards everything queued. Used when the stream watchdog fires so a
// reconnecting host never receives stale frames.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.head = 0
	q.count = 0
	q.dropped = 0
	q.mu.Unlock()
}

// Close wakes any blocked consumer; queued packets can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
