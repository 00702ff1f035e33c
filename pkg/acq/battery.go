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
	"math"
	"sync/atomic"
)

const (
	// BatterySamplePeriodMs limits how often the supply rail is actually
	// measured; between measurements the cached value is served.
	BatterySamplePeriodMs = 32

	// batteryAlpha is the smoothing weight of a fresh reading.
	batteryAlpha = 0.1
)

// Battery serves a smoothed supply voltage without touching the measurement
// hardware on every packet. The read function is injected so a simulated
// device can report a fixed rail.
type Battery struct {
	read     func() float32
	voltage  uint32
	lastRead uint32
	primed   bool
}

func NewBattery(read func() float32) *Battery {
	return &Battery{read: read}
}

// Update takes a new measurement if the sampling period elapsed, folding it
// into the running average. Called from the housekeeping loop.
func (b *Battery) Update(nowMs uint32) {
	if b.primed && SafeTimeDelta(nowMs, b.lastRead) < BatterySamplePeriodMs {
		return
	}
	fresh := b.read()
	if !b.primed {
		b.primed = true
		atomic.StoreUint32(&b.voltage, math.Float32bits(fresh))
	} else {
		old := math.Float32frombits(atomic.LoadUint32(&b.voltage))
		smoothed := old + batteryAlpha*(fresh-old)
		atomic.StoreUint32(&b.voltage, math.Float32bits(smoothed))
	}
	b.lastRead = nowMs
}

// Voltage returns the last smoothed reading. Safe from any goroutine.
func (b *Battery) Voltage() float32 {
	return math.Float32frombits(atomic.LoadUint32(&b.voltage))
}
