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

package bus

import (
	"sync"
	"time"

	"github.com/meower-bci/go-exg/pkg/log"
)

const (
	simNumRegs    = 24
	simNumDevices = 2

	// converter opcodes
	OpWakeup = 0x02
	OpReset  = 0x06
	OpStart  = 0x08
	OpStop   = 0x0A
	OpRDATAC = 0x10
	OpSDATAC = 0x11
	OpRREG   = 0x20
	OpWREG   = 0x40

	// register reset values relevant to the simulator
	simIDValue      = 0x3E
	simConfig1Reset = 0x96
	simConfig2Reset = 0xC0
	simConfig3Reset = 0x60
	simChReset      = 0x61

	simPreamble = 0xC0
)

// Sim emulates the pair of daisy-chained converters well enough to run the
// full acquisition pipeline without hardware: a register file per converter,
// the command opcodes, and a conversion clock that follows the data-rate
// bits of the first converter.
type Sim struct {
	mu         sync.Mutex
	regs       [simNumDevices][simNumRegs]byte
	continuous bool
	started    bool
	dataReady  func()
	counter    uint32
	done       chan struct{}
	closeOnce  sync.Once
}

func NewSim() *Sim {
	s := &Sim{done: make(chan struct{})}
	for dev := 0; dev < simNumDevices; dev++ {
		s.resetRegs(dev)
	}
	go s.clock()
	return s
}

func (s *Sim) resetRegs(dev int) {
	for i := range s.regs[dev] {
		s.regs[dev][i] = 0
	}
	s.regs[dev][0x00] = simIDValue
	s.regs[dev][0x01] = simConfig1Reset
	s.regs[dev][0x02] = simConfig2Reset
	s.regs[dev][0x03] = simConfig3Reset
	for ch := 0; ch < 8; ch++ {
		s.regs[dev][0x05+ch] = simChReset
	}
}

// OnDataReady registers the conversion-complete callback.
func (s *Sim) OnDataReady(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataReady = fn
}

// SetStart drives the emulated START pin.
func (s *Sim) SetStart(high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = high
}

// ReadBattery reports a full simulated cell with a little measurement noise
// so the smoothing in front of it has something to do.
func (s *Sim) ReadBattery() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 4.05 + float32(s.counter%16)*0.001
}

// Close stops the conversion clock.
func (s *Sim) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// samplePeriod derives the conversion period from the data-rate bits of the
// first converter, which clocks the chain.
func (s *Sim) samplePeriod() time.Duration {
	dr := s.regs[0][0x01] & 0x07
	var hz int
	switch dr {
	case 6:
		hz = 250
	case 5:
		hz = 500
	case 4:
		hz = 1000
	case 3:
		hz = 2000
	case 2:
		hz = 4000
	default:
		hz = 250
	}
	return time.Second / time.Duration(hz)
}

func (s *Sim) clock() {
	for {
		s.mu.Lock()
		period := s.samplePeriod()
		fire := s.started && s.continuous
		fn := s.dataReady
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		case <-time.After(period):
		}
		if fire && fn != nil {
			fn()
		}
	}
}

func (s *Sim) Transfer(target Target, tx, rx []byte) error {
	if len(tx) != len(rx) {
		return ErrTransferSize{TxLen: len(tx), RxLen: len(rx)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.continuous {
		// SDATAC is the only command the converters accept mid-stream
		if len(tx) == 1 && tx[0] == OpSDATAC {
			s.continuous = false
			return nil
		}
		if target == TargetBoth {
			s.fillFrame(rx)
			return nil
		}
	}

	switch target {
	case TargetFirst:
		s.exec(0, tx, rx)
	case TargetSecond:
		s.exec(1, tx, rx)
	case TargetBoth, TargetTest:
		s.exec(0, tx, rx)
		s.exec(1, tx, rx)
	}
	return nil
}

// exec interprets one command transfer against a single register file.
func (s *Sim) exec(dev int, tx, rx []byte) {
	if len(tx) == 0 {
		return
	}
	op := tx[0]
	switch {
	case op == OpReset:
		s.resetRegs(dev)
	case op == OpRDATAC:
		s.continuous = true
	case op == OpSDATAC:
		s.continuous = false
	case op&0xE0 == OpRREG:
		if len(tx) < 2 {
			return
		}
		addr := int(op & 0x1F)
		count := int(tx[1]) + 1
		for i := 0; i < count && 2+i < len(rx) && addr+i < simNumRegs; i++ {
			rx[2+i] = s.regs[dev][addr+i]
		}
	case op&0xE0 == OpWREG:
		if len(tx) < 2 {
			return
		}
		addr := int(op & 0x1F)
		count := int(tx[1]) + 1
		for i := 0; i < count && 2+i < len(tx) && addr+i < simNumRegs; i++ {
			s.regs[dev][addr+i] = tx[2+i]
		}
	default:
		log.Debug("Sim: ignoring opcode %#x for device %d", op, dev)
	}
}

// fillFrame writes one raw chained frame: a status preamble and eight
// channels per converter, samples forming a deterministic ramp so the
// pipeline output is reproducible.
func (s *Sim) fillFrame(rx []byte) {
	s.counter++
	pos := 0
	for dev := 0; dev < simNumDevices; dev++ {
		if pos+3 > len(rx) {
			return
		}
		rx[pos] = simPreamble
		rx[pos+1] = 0
		rx[pos+2] = 0
		pos += 3
		for ch := 0; ch < 8; ch++ {
			if pos+3 > len(rx) {
				return
			}
			v := int32(s.counter)*37 + int32(dev*8+ch)*4096
			v &= 0xFFFFFF
			rx[pos] = byte(v >> 16)
			rx[pos+1] = byte(v >> 8)
			rx[pos+2] = byte(v)
			pos += 3
		}
	}
}
