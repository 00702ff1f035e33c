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

package device

import (
	"sync"
	"time"

	"github.com/meower-bci/go-exg/pkg/bus"
	"github.com/meower-bci/go-exg/pkg/dsp"
	"github.com/meower-bci/go-exg/pkg/log"
)

// Device drives the pair of daisy-chained converters over the bus. All
// register traffic goes through here; the acquisition loop only reads
// conversion frames.
type Device struct {
	mu  sync.Mutex
	bus bus.Bus

	// continuous is true while the converters stream conversions; register
	// access is only legal outside that mode so setters pause and resume it.
	continuous bool
}

func NewDevice(b bus.Bus) *Device {
	return &Device{bus: b}
}

func (d *Device) setStart(high bool) {
	if sc, ok := d.bus.(bus.StartControl); ok {
		sc.SetStart(high)
	}
}

func (d *Device) command(target bus.Target, op byte) error {
	tx := []byte{op}
	rx := make([]byte, 1)
	return d.bus.Transfer(target, tx, rx)
}

// WriteReg writes a single register on the addressed converters.
func (d *Device) WriteReg(target bus.Target, addr, value byte) error {
	tx := []byte{bus.OpWREG | addr, 0, value}
	rx := make([]byte, len(tx))
	return d.bus.Transfer(target, tx, rx)
}

// ReadReg reads a single register. Only meaningful for a single converter
// target since both share the reply clock.
func (d *Device) ReadReg(target bus.Target, addr byte) (byte, error) {
	tx := []byte{bus.OpRREG | addr, 0, 0}
	rx := make([]byte, len(tx))
	if err := d.bus.Transfer(target, tx, rx); err != nil {
		return 0, err
	}
	return rx[2], nil
}

// FullReset puts both converters into the known working configuration:
// internal reference on, chain clocking set up, test signal settings, and
// every channel at the boot gain and mux.
func (d *Device) FullReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fullReset()
}

func (d *Device) fullReset() error {
	log.Info("Resetting converters")
	d.setStart(false)
	d.continuous = false

	if err := d.command(bus.TargetBoth, bus.OpSDATAC); err != nil {
		return err
	}
	if err := d.WriteReg(bus.TargetBoth, RegConfig3, Config3Boot); err != nil {
		return err
	}
	if err := d.WriteReg(bus.TargetFirst, RegConfig1, Config1FirstBase|drBits[0]); err != nil {
		return err
	}
	if err := d.WriteReg(bus.TargetSecond, RegConfig1, Config1SecondBase|drBits[0]); err != nil {
		return err
	}
	// the internal reference needs a settling write after the clock change
	if err := d.WriteReg(bus.TargetBoth, RegConfig3, Config3Boot); err != nil {
		return err
	}
	if err := d.WriteReg(bus.TargetBoth, RegConfig2, Config2Boot); err != nil {
		return err
	}
	for ch := byte(0); ch < 8; ch++ {
		if err := d.WriteReg(bus.TargetBoth, RegCh1Set+ch, ChSetBoot); err != nil {
			return err
		}
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

// StartContinuous arms conversions. It reads back the data-rate field of the
// first converter and returns the matching rate preset so the filter chain
// can follow the hardware, whatever was configured before.
func (d *Device) StartContinuous() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startContinuous()
}

func (d *Device) startContinuous() (uint32, error) {
	config1, err := d.ReadReg(bus.TargetFirst, RegConfig1)
	if err != nil {
		return 0, err
	}
	preset, ok := drPreset(config1 & drMask)
	if !ok {
		return 0, ErrBadDataRate{DR: config1 & drMask}
	}

	d.setStart(true)
	if err := d.command(bus.TargetBoth, bus.OpRDATAC); err != nil {
		return 0, err
	}
	d.continuous = true
	log.Info("Continuous conversion started at %d Hz", dsp.RateHz(preset))
	return preset, nil
}

// StopContinuous halts conversions and returns the converters to register
// access mode.
func (d *Device) StopContinuous() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopContinuous()
}

func (d *Device) stopContinuous() error {
	if err := d.command(bus.TargetBoth, bus.OpSDATAC); err != nil {
		return err
	}
	d.setStart(false)
	d.continuous = false
	log.Info("Continuous conversion stopped")
	return nil
}

// paused runs fn with conversions stopped, restoring streaming afterwards if
// it was running. Register writes during continuous mode corrupt the frame
// clocking, so every setter goes through here.
func (d *Device) paused(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	wasRunning := d.continuous
	if wasRunning {
		if err := d.stopContinuous(); err != nil {
			return err
		}
	}
	if err := fn(); err != nil {
		return err
	}
	if wasRunning {
		if _, err := d.startContinuous(); err != nil {
			return err
		}
	}
	return nil
}

// SetSampleRate reprograms the data-rate field on both converters. The rate
// must be one of the supported presets.
func (d *Device) SetSampleRate(hz int) (uint32, error) {
	preset, ok := dsp.RatePreset(hz)
	if !ok {
		return 0, ErrBadSampleRate{Hz: hz}
	}
	err := d.paused(func() error {
		if err := d.WriteReg(bus.TargetFirst, RegConfig1, Config1FirstBase|drBits[preset]); err != nil {
			return err
		}
		return d.WriteReg(bus.TargetSecond, RegConfig1, Config1SecondBase|drBits[preset])
	})
	return preset, err
}

// chTarget resolves a channel index 0..15 to the converter owning it and the
// register address within that converter.
func chTarget(ch int) (bus.Target, byte) {
	if ch < 8 {
		return bus.TargetFirst, RegCh1Set + byte(ch)
	}
	return bus.TargetSecond, RegCh1Set + byte(ch-8)
}

func (d *Device) updateChannel(ch int, fn func(old byte) byte) error {
	target, addr := chTarget(ch)
	return d.paused(func() error {
		old, err := d.ReadReg(target, addr)
		if err != nil {
			return err
		}
		return d.WriteReg(target, addr, fn(old))
	})
}

// SetChannelGain sets the analog gain of one channel, or of all channels
// when ch is negative.
func (d *Device) SetChannelGain(ch int, gain int) error {
	bits, ok := gainBits[gain]
	if !ok {
		return ErrBadGain{Gain: gain}
	}
	set := func(old byte) byte {
		return old&^chGainMask | bits<<chGainShift
	}
	if ch < 0 {
		return d.forEachChannel(set)
	}
	return d.updateChannel(ch, set)
}

// SetChannelMux routes one channel input, or all channels when ch is negative.
func (d *Device) SetChannelMux(ch int, mux byte) error {
	if mux > chMuxMask {
		return ErrBadMux{Mux: mux}
	}
	set := func(old byte) byte {
		return old&^byte(chMuxMask) | mux
	}
	if ch < 0 {
		return d.forEachChannel(set)
	}
	return d.updateChannel(ch, set)
}

// SetChannelPowerDown powers one channel down or back up.
func (d *Device) SetChannelPowerDown(ch int, down bool) error {
	return d.updateChannel(ch, func(old byte) byte {
		if down {
			return old | chPowerDownBit
		}
		return old &^ byte(chPowerDownBit)
	})
}

func (d *Device) forEachChannel(fn func(old byte) byte) error {
	return d.paused(func() error {
		for ch := 0; ch < dsp.NumChannels; ch++ {
			target, addr := chTarget(ch)
			old, err := d.ReadReg(target, addr)
			if err != nil {
				return err
			}
			if err := d.WriteReg(target, addr, fn(old)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetSRB1 connects or disconnects the common reference electrode on both
// converters.
func (d *Device) SetSRB1(on bool) error {
	return d.paused(func() error {
		for _, target := range []bus.Target{bus.TargetFirst, bus.TargetSecond} {
			old, err := d.ReadReg(target, RegMisc1)
			if err != nil {
				return err
			}
			value := old &^ byte(misc1SRB1Bit)
			if on {
				value |= misc1SRB1Bit
			}
			if err := d.WriteReg(target, RegMisc1, value); err != nil {
				return err
			}
		}
		return nil
	})
}
