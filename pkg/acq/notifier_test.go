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

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Notify()
	n.Notify()

	// three notifications collapse into one wakeup
	require.True(t, n.Wait())

	woke := make(chan struct{})
	go func() {
		n.Wait()
		close(woke)
	}()
	select {
	case <-woke:
		t.Fatal("Wait returned without a new notification")
	case <-time.After(50 * time.Millisecond):
	}
	n.Notify()
	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake up")
	}
}

func TestNotifierDrain(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Drain()

	woke := make(chan struct{})
	go func() {
		n.Wait()
		close(woke)
	}()
	select {
	case <-woke:
		t.Fatal("drained notification still woke the waiter")
	case <-time.After(50 * time.Millisecond):
	}
	n.Notify()
	<-woke
}

func TestNotifierClose(t *testing.T) {
	n := NewNotifier()
	done := make(chan bool, 1)
	go func() {
		done <- n.Wait()
	}()

	time.Sleep(20 * time.Millisecond)
	n.Close()

	select {
	case alive := <-done:
		require.False(t, alive)
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake up on close")
	}
	require.False(t, n.Wait())
}
