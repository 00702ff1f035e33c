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
	"context"
	"encoding/binary"
	"time"

	"github.com/meower-bci/go-exg/pkg/bus"
	"github.com/meower-bci/go-exg/pkg/dsp"
	"github.com/meower-bci/go-exg/pkg/layers"
	"github.com/meower-bci/go-exg/pkg/log"
)

// timestampTick is the unit of the per-frame latency stamp.
const timestampTick = 8 * time.Microsecond

// Task is the acquisition loop: it waits for a conversion, clocks the raw
// frame off the bus, runs the filter chain, and packs the result into the
// outgoing packet. One instance owns the filter state and the partially
// filled packet; nothing else touches them.
type Task struct {
	Bus      bus.Bus
	Notifier *Notifier
	Queue    *Queue
	Shared   *Shared
	Chain    *dsp.Chain

	packet []byte
	cursor int
	raw    [dsp.RawFrameSize]byte
	parsed [dsp.ParsedFrameSize]byte
	vector dsp.ChannelVector
}

func NewTask(b bus.Bus, n *Notifier, q *Queue, s *Shared, framesPerPacket int) *Task {
	return &Task{
		Bus:      b,
		Notifier: n,
		Queue:    q,
		Shared:   s,
		Chain:    dsp.NewChain(),
		packet:   make([]byte, framesPerPacket*layers.FrameSize),
	}
}

// Kick wakes the loop so it observes a streaming-state change immediately.
// The control path calls it after flipping the continuous flag.
func (t *Task) Kick() {
	t.Notifier.Notify()
}

// Run executes the loop until the context is cancelled. Closing the notifier
// also stops it.
func (t *Task) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		t.Notifier.Close()
	}()

	wasReading := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !t.Shared.Continuous() {
			wasReading = false
			if !t.Notifier.Wait() {
				return nil
			}
			continue
		}

		if !wasReading {
			// arm: forget any edge from before the restart and start the
			// packet from its first slot
			wasReading = true
			t.Notifier.Drain()
			t.cursor = 0
		}

		waitStart := time.Now()
		if !t.Notifier.Wait() {
			return nil
		}
		if !t.Shared.Continuous() {
			wasReading = false
			continue
		}
		timestamp := uint32(time.Since(waitStart) / timestampTick)

		if err := t.readFrame(timestamp); err != nil {
			return err
		}
	}
}

// readFrame clocks one raw frame off the bus and appends the processed
// result to the packet under construction.
func (t *Task) readFrame(timestamp uint32) error {
	for i := range t.raw {
		t.raw[i] = 0
	}
	if err := t.Bus.Transfer(bus.TargetBoth, t.raw[:], t.raw[:]); err != nil {
		return err
	}

	dsp.StripPreambles(t.raw[:], t.parsed[:])
	dsp.Unpack(t.parsed[:], &t.vector, t.Shared.GainShift())

	t.Chain.Process(&t.vector,
		t.Shared.RatePreset(), t.Shared.CutoffPreset(), t.Shared.Region(),
		t.Shared.Toggles())

	slot := t.packet[t.cursor : t.cursor+layers.FrameSize]
	dsp.Pack(&t.vector, slot[:dsp.ParsedFrameSize])
	binary.LittleEndian.PutUint32(slot[dsp.ParsedFrameSize:], timestamp)
	t.cursor += layers.FrameSize

	if t.cursor == len(t.packet) {
		if !t.Queue.TryPush(t.packet) {
			log.Debug("Packet queue full, dropping freshest packet")
		}
		t.cursor = 0
	}
	return nil
}
