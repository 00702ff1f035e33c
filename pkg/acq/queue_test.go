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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func packetOf(b byte, size int) []byte {
	p := make([]byte, size)
	for i := range p {
		p[i] = b
	}
	return p
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(3, 4)
	require.True(t, q.TryPush(packetOf(1, 4)))
	require.True(t, q.TryPush(packetOf(2, 4)))
	require.Equal(t, 2, q.Len())

	dst := make([]byte, 4)
	require.True(t, q.Pop(dst))
	require.Equal(t, packetOf(1, 4), dst)
	require.True(t, q.Pop(dst))
	require.Equal(t, packetOf(2, 4), dst)
}

func TestQueueDropsNewestWhenFull(t *testing.T) {
	q := NewQueue(2, 4)
	require.True(t, q.TryPush(packetOf(1, 4)))
	require.True(t, q.TryPush(packetOf(2, 4)))
	require.False(t, q.TryPush(packetOf(3, 4)))
	require.Equal(t, uint64(1), q.Dropped())

	// the queued packets survive untouched
	dst := make([]byte, 4)
	require.True(t, q.Pop(dst))
	require.Equal(t, packetOf(1, 4), dst)
	require.True(t, q.Pop(dst))
	require.Equal(t, packetOf(2, 4), dst)
}

func TestQueueCopiesOnPush(t *testing.T) {
	q := NewQueue(2, 4)
	src := packetOf(7, 4)
	require.True(t, q.TryPush(src))
	// mutating the producer buffer after the push must not reach the slot
	src[0] = 99

	dst := make([]byte, 4)
	require.True(t, q.Pop(dst))
	require.Equal(t, packetOf(7, 4), dst)
}

func TestQueueRejectsWrongSize(t *testing.T) {
	q := NewQueue(2, 4)
	require.False(t, q.TryPush(packetOf(1, 3)))
	require.False(t, q.TryPush(packetOf(1, 5)))
	require.Equal(t, 0, q.Len())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue(2, 4)
	got := make(chan []byte, 1)
	go func() {
		dst := make([]byte, 4)
		if q.Pop(dst) {
			got <- dst
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, q.TryPush(packetOf(5, 4)))

	select {
	case dst := <-got:
		require.Equal(t, packetOf(5, 4), dst)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up")
	}
}

func TestQueueReset(t *testing.T) {
	q := NewQueue(2, 4)
	require.True(t, q.TryPush(packetOf(1, 4)))
	require.True(t, q.TryPush(packetOf(2, 4)))
	require.False(t, q.TryPush(packetOf(3, 4)))

	q.Reset()
	require.Equal(t, 0, q.Len())
	require.Equal(t, uint64(0), q.Dropped())
	require.True(t, q.TryPush(packetOf(4, 4)))
}

func TestQueueCloseWakesPop(t *testing.T) {
	q := NewQueue(2, 4)
	done := make(chan bool, 1)
	go func() {
		dst := make([]byte, 4)
		done <- q.Pop(dst)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case popped := <-done:
		require.False(t, popped)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up on close")
	}
}
