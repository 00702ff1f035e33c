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
	"sync/atomic"

	"github.com/meower-bci/go-exg/pkg/config"
	"github.com/meower-bci/go-exg/pkg/dsp"
)

// Shared holds the scalar runtime parameters the acquisition loop reads on
// every sample while the control path updates them concurrently. Each field
// is read and written atomically and independently; the loop tolerates
// observing a mix of old and new values for one sample.
type Shared struct {
	equalizer     uint32
	dcBlock       uint32
	notchMains    uint32
	notchHarmonic uint32
	filterMaster  uint32

	ratePreset   uint32
	cutoffPreset uint32
	region       uint32
	gainShift    uint32

	continuous uint32
}

// NewShared seeds the runtime parameters from the validated config.
func NewShared(cfg *config.Config) *Shared {
	s := &Shared{}
	s.SetEqualizer(cfg.Equalizer)
	s.SetDCBlock(cfg.DCBlock)
	s.SetNotchMains(cfg.NotchMains)
	s.SetNotchHarmonic(cfg.NotchHarmonic)
	s.SetFilterMaster(cfg.FilterMaster)

	ratePreset, _ := dsp.RatePreset(cfg.SampleRate)
	s.SetRatePreset(ratePreset)
	cutoffPreset, _ := dsp.CutoffPreset(cfg.DCCutoffHz)
	s.SetCutoffPreset(cutoffPreset)
	region, _ := dsp.RegionPreset(cfg.Region)
	s.SetRegion(region)
	gainShift, _ := dsp.GainShift(cfg.DigitalGain)
	s.SetGainShift(gainShift)
	return s
}

func storeBool(addr *uint32, v bool) {
	var u uint32
	if v {
		u = 1
	}
	atomic.StoreUint32(addr, u)
}

func (s *Shared) SetEqualizer(v bool)     { storeBool(&s.equalizer, v) }
func (s *Shared) SetDCBlock(v bool)       { storeBool(&s.dcBlock, v) }
func (s *Shared) SetNotchMains(v bool)    { storeBool(&s.notchMains, v) }
func (s *Shared) SetNotchHarmonic(v bool) { storeBool(&s.notchHarmonic, v) }
func (s *Shared) SetFilterMaster(v bool)  { storeBool(&s.filterMaster, v) }

// Toggles snapshots the five filter switches for one sample.
func (s *Shared) Toggles() dsp.Toggles {
	return dsp.Toggles{
		Equalizer:     atomic.LoadUint32(&s.equalizer) != 0,
		DCBlock:       atomic.LoadUint32(&s.dcBlock) != 0,
		NotchMains:    atomic.LoadUint32(&s.notchMains) != 0,
		NotchHarmonic: atomic.LoadUint32(&s.notchHarmonic) != 0,
		Master:        atomic.LoadUint32(&s.filterMaster) != 0,
	}
}

func (s *Shared) SetRatePreset(v uint32)   { atomic.StoreUint32(&s.ratePreset, v) }
func (s *Shared) RatePreset() uint32       { return atomic.LoadUint32(&s.ratePreset) }
func (s *Shared) SetCutoffPreset(v uint32) { atomic.StoreUint32(&s.cutoffPreset, v) }
func (s *Shared) CutoffPreset() uint32     { return atomic.LoadUint32(&s.cutoffPreset) }
func (s *Shared) SetRegion(v uint32)       { atomic.StoreUint32(&s.region, v) }
func (s *Shared) Region() uint32           { return atomic.LoadUint32(&s.region) }
func (s *Shared) SetGainShift(v uint32)    { atomic.StoreUint32(&s.gainShift, v) }
func (s *Shared) GainShift() uint32        { return atomic.LoadUint32(&s.gainShift) }

func (s *Shared) SetContinuous(v bool) { storeBool(&s.continuous, v) }
func (s *Shared) Continuous() bool     { return atomic.LoadUint32(&s.continuous) != 0 }
